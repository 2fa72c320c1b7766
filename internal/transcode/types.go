// Package transcode builds and submits multi-rendition transcoding jobs to
// the external transcoding service.
package transcode

// JobRequest is the wire shape of a transcoding job submission.
type JobRequest struct {
	// RequestID is a deterministic idempotency key derived from the record
	// and source object, so a duplicate submission carries the same identity.
	RequestID string    `json:"requestId,omitempty"`
	InputURI  string    `json:"inputUri"`
	OutputURI string    `json:"outputUri"`
	Config    JobConfig `json:"config"`
}

// JobConfig carries the full elementary-stream ladder, mux/segment
// definitions, manifests and the completion-notification destination.
type JobConfig struct {
	ElementaryStreams []ElementaryStream `json:"elementaryStreams"`
	MuxStreams        []MuxStream        `json:"muxStreams"`
	Manifests         []Manifest         `json:"manifests"`
	PubsubDestination *PubsubDestination `json:"pubsubDestination,omitempty"`
}

// ElementaryStream is a single encoded video or audio stream. Exactly one of
// VideoStream or AudioStream is set.
type ElementaryStream struct {
	Key         string       `json:"key"`
	VideoStream *VideoStream `json:"videoStream,omitempty"`
	AudioStream *AudioStream `json:"audioStream,omitempty"`
}

type VideoStream struct {
	Codec           string  `json:"codec"`
	WidthPixels     int     `json:"widthPixels"`
	HeightPixels    int     `json:"heightPixels"`
	BitrateBps      int     `json:"bitrateBps"`
	FrameRate       float64 `json:"frameRate"`
	Profile         string  `json:"profile,omitempty"`
	RateControlMode string  `json:"rateControlMode,omitempty"`
	CrfLevel        int     `json:"crfLevel,omitempty"`
	GopDuration     string  `json:"gopDuration,omitempty"`
}

type AudioStream struct {
	Codec           string `json:"codec"`
	BitrateBps      int    `json:"bitrateBps"`
	ChannelCount    int    `json:"channelCount"`
	SampleRateHertz int    `json:"sampleRateHertz"`
}

// MuxStream packages elementary streams into a segmented container.
type MuxStream struct {
	Key               string           `json:"key"`
	Container         string           `json:"container"`
	ElementaryStreams []string         `json:"elementaryStreams"`
	SegmentSettings   *SegmentSettings `json:"segmentSettings,omitempty"`
}

type SegmentSettings struct {
	SegmentDuration string `json:"segmentDuration"`
}

// Manifest is the adaptive-streaming index produced over a set of mux
// streams.
type Manifest struct {
	FileName   string   `json:"fileName"`
	Type       string   `json:"type"`
	MuxStreams []string `json:"muxStreams"`
}

// PubsubDestination is the topic the transcoding service publishes the job's
// completion or failure notification to.
type PubsubDestination struct {
	Topic string `json:"topic"`
}
