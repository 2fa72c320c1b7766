package renditions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestDefaultIsDeterministic(t *testing.T) {
	assert.Equal(t, Default(), Default())
}

func TestDefaultLadderShape(t *testing.T) {
	p := Default()

	assert.Len(t, p.Video, 3)
	assert.Len(t, p.Audio, 1)
	assert.Len(t, p.Muxes, len(p.Video), "every video rung gets one mux pairing")

	// Every mux combination must appear in the adaptive manifest.
	require.Len(t, p.Manifests, 1)
	assert.Equal(t, "manifest.m3u8", p.Manifests[0].FileName)
	assert.Len(t, p.Manifests[0].MuxKeys, len(p.Muxes))
}

func TestValidateCatchesDanglingReferences(t *testing.T) {
	t.Run("mux references missing video stream", func(t *testing.T) {
		p := Default()
		p.Muxes[0].VideoKey = "video-4k"
		assert.ErrorContains(t, p.Validate(), "undefined video stream")
	})

	t.Run("mux references missing audio stream", func(t *testing.T) {
		p := Default()
		p.Muxes[1].AudioKey = "audio-opus"
		assert.ErrorContains(t, p.Validate(), "undefined audio stream")
	})

	t.Run("manifest references missing mux", func(t *testing.T) {
		p := Default()
		p.Manifests[0].MuxKeys = append([]string{}, "hls-4k")
		assert.ErrorContains(t, p.Validate(), "undefined mux")
	})

	t.Run("duplicate rendition key", func(t *testing.T) {
		p := Default()
		p.Video[1].Key = p.Video[0].Key
		assert.ErrorContains(t, p.Validate(), "duplicate")
	})

	t.Run("no manifests", func(t *testing.T) {
		p := Default()
		p.Manifests = nil
		assert.ErrorContains(t, p.Validate(), "no manifest")
	})

	t.Run("bad segment duration", func(t *testing.T) {
		p := Default()
		p.SegmentSeconds = 0
		assert.ErrorContains(t, p.Validate(), "segment duration")
	})
}
