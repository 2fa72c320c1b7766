// Package renditions defines the fixed adaptive-bitrate ladder produced for
// every transcode. The ladder is data: changing a rung, a mux pairing or the
// manifest layout is an edit here, never in the job-building code.
package renditions

import "fmt"

// VideoRendition is one rung of the video ladder.
type VideoRendition struct {
	Key         string
	Codec       string
	Width       int
	Height      int
	BitrateBps  int
	FrameRate   float64
	Profile     string
	RateControl string
	CRFLevel    int
	GOPSeconds  float64
}

// AudioRendition is one audio-only elementary stream.
type AudioRendition struct {
	Key        string
	Codec      string
	BitrateBps int
	Channels   int
	SampleRate int
}

// MuxPairing packages one video and one audio elementary stream into a
// segmented container.
type MuxPairing struct {
	Key       string
	Container string
	VideoKey  string
	AudioKey  string
}

// ManifestSpec describes an adaptive-streaming index over a set of mux
// pairings.
type ManifestSpec struct {
	FileName string
	Type     string
	MuxKeys  []string
}

// Profile is the complete rendition ladder for a transcode job.
type Profile struct {
	Video          []VideoRendition
	Audio          []AudioRendition
	Muxes          []MuxPairing
	Manifests      []ManifestSpec
	SegmentSeconds float64
}

// Default returns the ladder used for every model video. Deterministic and
// side-effect free; callers treat the result as read-only.
func Default() Profile {
	return Profile{
		Video: []VideoRendition{
			{Key: "video-1080p", Codec: "h264", Width: 1920, Height: 1080, BitrateBps: 5_500_000, FrameRate: 30, Profile: "high", RateControl: "vbr", CRFLevel: 21, GOPSeconds: 2},
			{Key: "video-720p", Codec: "h264", Width: 1280, Height: 720, BitrateBps: 2_500_000, FrameRate: 30, Profile: "main", RateControl: "vbr", CRFLevel: 22, GOPSeconds: 2},
			{Key: "video-360p", Codec: "h264", Width: 640, Height: 360, BitrateBps: 800_000, FrameRate: 30, Profile: "baseline", RateControl: "vbr", CRFLevel: 23, GOPSeconds: 2},
		},
		Audio: []AudioRendition{
			{Key: "audio-aac", Codec: "aac", BitrateBps: 64_000, Channels: 2, SampleRate: 48_000},
		},
		Muxes: []MuxPairing{
			{Key: "hls-1080p", Container: "ts", VideoKey: "video-1080p", AudioKey: "audio-aac"},
			{Key: "hls-720p", Container: "ts", VideoKey: "video-720p", AudioKey: "audio-aac"},
			{Key: "hls-360p", Container: "ts", VideoKey: "video-360p", AudioKey: "audio-aac"},
		},
		Manifests: []ManifestSpec{
			{FileName: "manifest.m3u8", Type: "HLS", MuxKeys: []string{"hls-1080p", "hls-720p", "hls-360p"}},
		},
		SegmentSeconds: 6,
	}
}

// Validate checks the ladder's internal consistency: every stream key a mux
// references must be defined, and every mux key a manifest references must be
// defined. Run once at startup so a bad ladder fails the process, not a job.
func (p Profile) Validate() error {
	video := make(map[string]bool, len(p.Video))
	for _, v := range p.Video {
		if v.Key == "" {
			return fmt.Errorf("renditions: video rendition with empty key")
		}
		if video[v.Key] {
			return fmt.Errorf("renditions: duplicate video rendition %q", v.Key)
		}
		video[v.Key] = true
	}

	audio := make(map[string]bool, len(p.Audio))
	for _, a := range p.Audio {
		if a.Key == "" {
			return fmt.Errorf("renditions: audio rendition with empty key")
		}
		if audio[a.Key] || video[a.Key] {
			return fmt.Errorf("renditions: duplicate rendition %q", a.Key)
		}
		audio[a.Key] = true
	}

	muxes := make(map[string]bool, len(p.Muxes))
	for _, m := range p.Muxes {
		if !video[m.VideoKey] {
			return fmt.Errorf("renditions: mux %q references undefined video stream %q", m.Key, m.VideoKey)
		}
		if !audio[m.AudioKey] {
			return fmt.Errorf("renditions: mux %q references undefined audio stream %q", m.Key, m.AudioKey)
		}
		if muxes[m.Key] {
			return fmt.Errorf("renditions: duplicate mux %q", m.Key)
		}
		muxes[m.Key] = true
	}

	if len(p.Manifests) == 0 {
		return fmt.Errorf("renditions: no manifest defined")
	}
	for _, man := range p.Manifests {
		if len(man.MuxKeys) == 0 {
			return fmt.Errorf("renditions: manifest %q references no mux streams", man.FileName)
		}
		for _, key := range man.MuxKeys {
			if !muxes[key] {
				return fmt.Errorf("renditions: manifest %q references undefined mux %q", man.FileName, key)
			}
		}
	}

	if p.SegmentSeconds <= 0 {
		return fmt.Errorf("renditions: segment duration must be positive")
	}

	return nil
}
