package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name   string
		before map[string]interface{}
		after  map[string]interface{}
		want   Transition
	}{
		{
			name:   "video url added to untouched record",
			before: map[string]interface{}{"name": "Delta"},
			after:  map[string]interface{}{"name": "Delta", "video_url": "https://host/videos/clip1.mp4?token=abc"},
			want:   TransitionMarkInit,
		},
		{
			name:   "init state write observed",
			before: map[string]interface{}{"video_url": "https://host/videos/clip1.mp4"},
			after:  map[string]interface{}{"video_url": "https://host/videos/clip1.mp4", "encoding_state": "init"},
			want:   TransitionSubmitJob,
		},
		{
			name:   "retry reset from failed back to init",
			before: map[string]interface{}{"video_url": "u", "encoding_state": "failed"},
			after:  map[string]interface{}{"video_url": "u", "encoding_state": "init"},
			want:   TransitionSubmitJob,
		},
		{
			name:   "unrelated field edit",
			before: map[string]interface{}{"name": "Delta"},
			after:  map[string]interface{}{"name": "Delta Integrale"},
			want:   TransitionNone,
		},
		{
			name:   "video url added but encoding state already present",
			before: map[string]interface{}{"encoding_state": "complete"},
			after:  map[string]interface{}{"encoding_state": "complete", "video_url": "https://host/v/new.mp4"},
			want:   TransitionNone,
		},
		{
			name:   "processing state write is not a trigger",
			before: map[string]interface{}{"encoding_state": "init"},
			after:  map[string]interface{}{"encoding_state": "processing"},
			want:   TransitionNone,
		},
		{
			name:   "job id already recorded blocks resubmission",
			before: map[string]interface{}{"encoding_state": "init"},
			after:  map[string]interface{}{"encoding_state": "init", "transcoder_job_id": "job-123", "video_url": "u"},
			want:   TransitionNone,
		},
		{
			name:   "retry reset of already-init record resubmits",
			before: map[string]interface{}{"video_url": "u", "encoding_state": "init"},
			after:  map[string]interface{}{"video_url": "u", "encoding_state": "init"},
			want:   TransitionSubmitJob,
		},
		{
			name:   "unrelated edit observing stuck init resubmits",
			before: map[string]interface{}{"encoding_state": "init", "name": "Delta"},
			after:  map[string]interface{}{"encoding_state": "init", "name": "Delta HF"},
			want:   TransitionSubmitJob,
		},
		{
			name:   "null video url is not an upload",
			before: map[string]interface{}{},
			after:  map[string]interface{}{"video_url": nil},
			want:   TransitionNone,
		},
		{
			name:   "explicit null encoding state counts as absent",
			before: map[string]interface{}{"video_url": nil, "encoding_state": nil},
			after:  map[string]interface{}{"video_url": "https://host/videos/clip1.mp4", "encoding_state": nil},
			want:   TransitionMarkInit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.before, tt.after))
		})
	}
}
