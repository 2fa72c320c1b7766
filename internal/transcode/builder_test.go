package transcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Disfractal/cloud-reel-vault/internal/renditions"
)

func testBuilder(t *testing.T) *Builder {
	t.Helper()
	b, err := NewBuilder(renditions.Default(), BuilderConfig{
		SourceBucket:      "src-bucket",
		OutputBucket:      "out-bucket",
		NotificationTopic: "projects/dev-autospotr/topics/transcode-events",
	})
	require.NoError(t, err)
	return b
}

func TestBuildJob(t *testing.T) {
	b := testBuilder(t)

	req, err := b.BuildJob(BuildInput{RecordID: "m1", SourceObject: "clip1.mp4"})
	require.NoError(t, err)

	assert.Equal(t, "gs://src-bucket/model-videos/clip1.mp4", req.InputURI)
	assert.Equal(t, "gs://out-bucket/renditions/m1/", req.OutputURI)
	require.NotNil(t, req.Config.PubsubDestination)
	assert.Equal(t, "projects/dev-autospotr/topics/transcode-events", req.Config.PubsubDestination.Topic)

	// Ladder: three video rungs plus one audio stream.
	assert.Len(t, req.Config.ElementaryStreams, 4)
	assert.Len(t, req.Config.MuxStreams, 3)
	require.Len(t, req.Config.Manifests, 1)
	assert.Equal(t, "manifest.m3u8", req.Config.Manifests[0].FileName)

	// Each mux carries exactly one video and one audio stream, with segment
	// settings from the profile.
	defined := map[string]bool{}
	for _, es := range req.Config.ElementaryStreams {
		defined[es.Key] = true
	}
	for _, mux := range req.Config.MuxStreams {
		require.Len(t, mux.ElementaryStreams, 2)
		for _, key := range mux.ElementaryStreams {
			assert.True(t, defined[key], "mux %s references undefined stream %s", mux.Key, key)
		}
		require.NotNil(t, mux.SegmentSettings)
		assert.Equal(t, "6.0s", mux.SegmentSettings.SegmentDuration)
	}
}

func TestBuildJobDeterministic(t *testing.T) {
	b := testBuilder(t)

	first, err := b.BuildJob(BuildInput{RecordID: "m1", SourceObject: "clip1.mp4"})
	require.NoError(t, err)
	second, err := b.BuildJob(BuildInput{RecordID: "m1", SourceObject: "clip1.mp4"})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.NotEmpty(t, first.RequestID)
}

func TestBuildJobRequestIDVariesWithInput(t *testing.T) {
	b := testBuilder(t)

	a, err := b.BuildJob(BuildInput{RecordID: "m1", SourceObject: "clip1.mp4"})
	require.NoError(t, err)
	c, err := b.BuildJob(BuildInput{RecordID: "m2", SourceObject: "clip1.mp4"})
	require.NoError(t, err)
	d, err := b.BuildJob(BuildInput{RecordID: "m1", SourceObject: "clip2.mp4"})
	require.NoError(t, err)

	assert.NotEqual(t, a.RequestID, c.RequestID)
	assert.NotEqual(t, a.RequestID, d.RequestID)
	assert.NotEqual(t, a.OutputURI, c.OutputURI, "outputs are keyed by record id")
}

func TestBuildJobRejectsMissingInput(t *testing.T) {
	b := testBuilder(t)

	_, err := b.BuildJob(BuildInput{RecordID: "", SourceObject: "clip1.mp4"})
	assert.Error(t, err)

	_, err = b.BuildJob(BuildInput{RecordID: "m1", SourceObject: ""})
	assert.Error(t, err)
}

func TestNewBuilderRejectsBrokenLadder(t *testing.T) {
	p := renditions.Default()
	p.Manifests[0].MuxKeys = []string{"hls-4k"}

	_, err := NewBuilder(p, BuilderConfig{SourceBucket: "s", OutputBucket: "o"})
	assert.Error(t, err)
}

func TestNewBuilderRejectsMissingBuckets(t *testing.T) {
	_, err := NewBuilder(renditions.Default(), BuilderConfig{})
	assert.Error(t, err)
}
