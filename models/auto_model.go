package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EncodingState is the video encoding lifecycle state of an AutoModel.
// A model starts with no state at all; the pipeline introduces the field on
// first sight of a video URL and drives it forward from there.
type EncodingState string

const (
	EncodingStateInit       EncodingState = "init"
	EncodingStateProcessing EncodingState = "processing"
	EncodingStateComplete   EncodingState = "complete"
	EncodingStateFailed     EncodingState = "failed"
)

// Terminal reports whether no further automatic transition applies. Failed
// records only leave this state through an explicit retry.
func (s EncodingState) Terminal() bool {
	return s == EncodingStateComplete || s == EncodingStateFailed
}

// Column names of the fields the encoding pipeline owns. The pipeline only
// ever patches these, never the whole row.
const (
	FieldVideoURL         = "video_url"
	FieldEncodingState    = "encoding_state"
	FieldTranscoderJobID  = "transcoder_job_id"
	FieldEncodingAttempts = "encoding_attempts"
)

// AutoModel represents a car model row in the database. It is also the unit
// of video encoding: video_url, encoding_state, transcoder_job_id and
// encoding_attempts belong to the transcoding pipeline, everything else is
// display data the pipeline never reads or writes.
type AutoModel struct {
	ID                  uuid.UUID       `json:"id"`
	Name                string          `json:"name"`
	MakeID              uuid.UUID       `json:"make_id"`
	MakeName            string          `json:"make_name"`
	ProductionStartYear *int            `json:"production_start_year,omitempty"`
	ProductionEndYear   *int            `json:"production_end_year,omitempty"`
	VideoURL            *string         `json:"video_url,omitempty"`
	EncodingState       *EncodingState  `json:"encoding_state,omitempty"`
	TranscoderJobID     *string         `json:"transcoder_job_id,omitempty"`
	EncodingAttempts    *int            `json:"encoding_attempts,omitempty"`
	Metadata            json.RawMessage `json:"metadata,omitempty"` // Nullable JSONB
	CreatedAt           time.Time       `json:"created_at"`
	UpdatedAt           time.Time       `json:"updated_at"`
}
