package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all environment-supplied settings for the service. It is
// loaded once at startup and passed down; nothing in the pipeline reads the
// environment directly.
type Config struct {
	ListenAddr string

	SupabaseURL string
	SupabaseKey string

	// Storage locations. Source videos are uploaded into SourceBucket by the
	// upload flow; renditions are written under OutputBucket.
	SourceBucket string
	OutputBucket string

	// External transcoding service.
	TranscoderEndpoint string
	TranscoderProject  string
	TranscoderRegion   string

	// Completion notifications.
	NotificationTopic string
	KafkaBrokers      []string
	KafkaGroupID      string

	RedisAddr string

	// Number of concurrent change-event workers.
	EventWorkers int
}

// Load reads the configuration from environment variables. Supabase
// credentials are required; everything else has a development default.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:         getEnv("LISTEN_ADDR", ":8080"),
		SupabaseURL:        os.Getenv("SUPABASE_URL"),
		SupabaseKey:        os.Getenv("SUPABASE_SERVICE_KEY"),
		SourceBucket:       getEnv("SOURCE_BUCKET", "dev-autospotr-videos"),
		OutputBucket:       getEnv("OUTPUT_BUCKET", "dev-autospotr-renditions"),
		TranscoderEndpoint: getEnv("TRANSCODER_ENDPOINT", "https://transcoder.googleapis.com"),
		TranscoderProject:  getEnv("TRANSCODER_PROJECT", "dev-autospotr"),
		TranscoderRegion:   getEnv("TRANSCODER_REGION", "us-west1"),
		NotificationTopic:  getEnv("NOTIFICATION_TOPIC", "transcode-events"),
		KafkaBrokers:       strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		KafkaGroupID:       getEnv("KAFKA_GROUP_ID", "cloud-reel-vault"),
		RedisAddr:          getEnv("REDIS_ADDR", "localhost:6379"),
		EventWorkers:       getEnvInt("EVENT_WORKERS", 4),
	}

	if cfg.SupabaseURL == "" || cfg.SupabaseKey == "" {
		return nil, fmt.Errorf("SUPABASE_URL and SUPABASE_SERVICE_KEY must be set in environment variables")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
