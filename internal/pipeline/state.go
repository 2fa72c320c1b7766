// Package pipeline drives the video encoding lifecycle of auto_models
// records: it reacts to record-change events, submits transcoding jobs, and
// reconciles asynchronous completion notifications.
package pipeline

import (
	"github.com/Disfractal/cloud-reel-vault/models"
)

// ChangeEvent is one write to a record, delivered with a consistent
// before/after snapshot pair.
type ChangeEvent struct {
	RecordID string
	Before   map[string]interface{}
	After    map[string]interface{}
}

// Transition is the lifecycle action a change event calls for.
type Transition int

const (
	// TransitionNone: the write does not concern the encoding lifecycle.
	TransitionNone Transition = iota
	// TransitionMarkInit: a video URL appeared on a record with no encoding
	// state yet; introduce the state field.
	TransitionMarkInit
	// TransitionSubmitJob: the record sits in init with no job recorded;
	// build and submit the transcoding job.
	TransitionSubmitJob
)

// Decide maps a before/after snapshot pair onto a lifecycle transition. It is
// a pure function of the two snapshots: the named state in the after image
// plus which owned fields the write changed, nothing inferred from ad-hoc key
// diffing elsewhere.
func Decide(before, after map[string]interface{}) Transition {
	// A record that already carries a job id never re-enters submission,
	// whatever else the write touched.
	if fieldSet(after, models.FieldTranscoderJobID) {
		return TransitionNone
	}

	state, hasState := stateOf(after)

	if !hasState && fieldChanged(before, after, models.FieldVideoURL) && fieldSet(after, models.FieldVideoURL) {
		return TransitionMarkInit
	}

	// Any write that leaves the record in init without a job calls for
	// submission, whether or not this write set the state. Re-observing init
	// is how a retry reset of an already-init record (and a redelivered init
	// write) gets its job; the submission path re-reads the record and the
	// job request is keyed deterministically, so spurious triggers cannot
	// double-submit.
	if hasState && state == models.EncodingStateInit {
		return TransitionSubmitJob
	}

	return TransitionNone
}

// stateOf reads the encoding state from a snapshot.
func stateOf(snapshot map[string]interface{}) (models.EncodingState, bool) {
	v, ok := snapshot[models.FieldEncodingState]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	return models.EncodingState(s), true
}

// fieldSet reports whether the snapshot carries a non-null value for field.
func fieldSet(snapshot map[string]interface{}, field string) bool {
	v, ok := snapshot[field]
	return ok && v != nil
}

// fieldChanged reports whether the write added the field or altered its
// value. Document backends deliver removed or never-set columns as explicit
// nulls, so "added" and "changed from null" are the same case.
func fieldChanged(before, after map[string]interface{}, field string) bool {
	return before[field] != after[field]
}
