package transcode

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/Disfractal/cloud-reel-vault/internal/renditions"
)

// requestNamespace seeds the deterministic request id, so the same
// record/object pair always produces the same idempotency key.
var requestNamespace = uuid.MustParse("9f2c1c6e-40bb-4a86-8f35-2c1c06c1d2aa")

// BuilderConfig is the environment-supplied portion of every job: where
// sources live, where renditions go, and which topic completion
// notifications are published to.
type BuilderConfig struct {
	SourceBucket      string
	OutputBucket      string
	NotificationTopic string
}

// Builder constructs complete job requests from the injected rendition
// profile. It is pure: no network calls, deterministic for a given input.
type Builder struct {
	profile renditions.Profile
	cfg     BuilderConfig
}

// NewBuilder validates the profile once and returns a Builder. A ladder that
// does not validate is a configuration bug, caught at startup.
func NewBuilder(profile renditions.Profile, cfg BuilderConfig) (*Builder, error) {
	if err := profile.Validate(); err != nil {
		return nil, err
	}
	if cfg.SourceBucket == "" || cfg.OutputBucket == "" {
		return nil, fmt.Errorf("transcode: source and output buckets must be configured")
	}
	return &Builder{profile: profile, cfg: cfg}, nil
}

// BuildInput identifies one job: the uploaded source object and the record
// the renditions belong to.
type BuildInput struct {
	RecordID     string
	SourceObject string
}

// BuildJob assembles the full job request. Outputs are keyed by record
// id so jobs for different records never collide.
func (b *Builder) BuildJob(in BuildInput) (*JobRequest, error) {
	if in.RecordID == "" {
		return nil, fmt.Errorf("transcode: record id is required")
	}
	if in.SourceObject == "" {
		return nil, fmt.Errorf("transcode: source object name is required")
	}

	segment := fmt.Sprintf("%.1fs", b.profile.SegmentSeconds)

	req := &JobRequest{
		RequestID: uuid.NewSHA1(requestNamespace, []byte(in.RecordID+"/"+in.SourceObject)).String(),
		InputURI:  fmt.Sprintf("gs://%s/model-videos/%s", b.cfg.SourceBucket, in.SourceObject),
		OutputURI: fmt.Sprintf("gs://%s/renditions/%s/", b.cfg.OutputBucket, in.RecordID),
	}

	for _, v := range b.profile.Video {
		req.Config.ElementaryStreams = append(req.Config.ElementaryStreams, ElementaryStream{
			Key: v.Key,
			VideoStream: &VideoStream{
				Codec:           v.Codec,
				WidthPixels:     v.Width,
				HeightPixels:    v.Height,
				BitrateBps:      v.BitrateBps,
				FrameRate:       v.FrameRate,
				Profile:         v.Profile,
				RateControlMode: v.RateControl,
				CrfLevel:        v.CRFLevel,
				GopDuration:     fmt.Sprintf("%.1fs", v.GOPSeconds),
			},
		})
	}
	for _, a := range b.profile.Audio {
		req.Config.ElementaryStreams = append(req.Config.ElementaryStreams, ElementaryStream{
			Key: a.Key,
			AudioStream: &AudioStream{
				Codec:           a.Codec,
				BitrateBps:      a.BitrateBps,
				ChannelCount:    a.Channels,
				SampleRateHertz: a.SampleRate,
			},
		})
	}

	for _, m := range b.profile.Muxes {
		req.Config.MuxStreams = append(req.Config.MuxStreams, MuxStream{
			Key:               m.Key,
			Container:         m.Container,
			ElementaryStreams: []string{m.VideoKey, m.AudioKey},
			SegmentSettings:   &SegmentSettings{SegmentDuration: segment},
		})
	}

	for _, man := range b.profile.Manifests {
		req.Config.Manifests = append(req.Config.Manifests, Manifest{
			FileName:   man.FileName,
			Type:       man.Type,
			MuxStreams: append([]string(nil), man.MuxKeys...),
		})
	}

	if b.cfg.NotificationTopic != "" {
		req.Config.PubsubDestination = &PubsubDestination{Topic: b.cfg.NotificationTopic}
	}

	return req, nil
}
