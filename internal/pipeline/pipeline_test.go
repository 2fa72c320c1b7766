package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Disfractal/cloud-reel-vault/internal/renditions"
	"github.com/Disfractal/cloud-reel-vault/internal/store"
	"github.com/Disfractal/cloud-reel-vault/internal/transcode"
	"github.com/Disfractal/cloud-reel-vault/models"
)

// fakeStore keeps records in memory and mimics the narrow-patch semantics of
// the real store.
type fakeStore struct {
	mu      sync.Mutex
	records map[string]*models.AutoModel

	patches  []map[string]interface{}
	patchErr error
}

func newFakeStore(records ...*models.AutoModel) *fakeStore {
	fs := &fakeStore{records: map[string]*models.AutoModel{}}
	for _, r := range records {
		fs.records[r.ID.String()] = r
	}
	return fs
}

func (f *fakeStore) Get(ctx context.Context, id string) (*models.AutoModel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok {
		return nil, store.ErrRecordNotFound
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeStore) apply(rec *models.AutoModel, fields map[string]interface{}) {
	if v, ok := fields[models.FieldEncodingState]; ok {
		s := models.EncodingState(v.(string))
		rec.EncodingState = &s
	}
	if v, ok := fields[models.FieldTranscoderJobID]; ok {
		id := v.(string)
		rec.TranscoderJobID = &id
	}
	if v, ok := fields[models.FieldEncodingAttempts]; ok {
		n := v.(int)
		rec.EncodingAttempts = &n
	}
}

func (f *fakeStore) Patch(ctx context.Context, id string, fields map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.patchErr != nil {
		return f.patchErr
	}
	rec, ok := f.records[id]
	if !ok {
		return store.ErrRecordNotFound
	}
	f.patches = append(f.patches, fields)
	f.apply(rec, fields)
	return nil
}

func (f *fakeStore) PatchIfJobUnset(ctx context.Context, id string, fields map[string]interface{}) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok || rec.TranscoderJobID != nil {
		return false, nil
	}
	f.patches = append(f.patches, fields)
	f.apply(rec, fields)
	return true, nil
}

func (f *fakeStore) ByJobID(ctx context.Context, jobID string) ([]models.AutoModel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.AutoModel
	for _, rec := range f.records {
		if rec.TranscoderJobID != nil && *rec.TranscoderJobID == jobID {
			out = append(out, *rec)
		}
	}
	return out, nil
}

type fakeSubmitter struct {
	mu    sync.Mutex
	calls int
	jobID string
	err   error
	last  *transcode.JobRequest
}

func (f *fakeSubmitter) SubmitJob(ctx context.Context, req *transcode.JobRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.last = req
	if f.err != nil {
		return "", f.err
	}
	return f.jobID, nil
}

type fakeTracker struct {
	submissions []string
	finished    map[string]string
}

func (f *fakeTracker) TrackSubmission(ctx context.Context, jobID, recordID, inputURI string) error {
	f.submissions = append(f.submissions, jobID)
	return nil
}

func (f *fakeTracker) MarkFinished(ctx context.Context, jobID, state string) error {
	if f.finished == nil {
		f.finished = map[string]string{}
	}
	f.finished[jobID] = state
	return nil
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func testHandler(t *testing.T, fs *fakeStore, sub *fakeSubmitter) *Handler {
	t.Helper()
	builder, err := transcode.NewBuilder(renditions.Default(), transcode.BuilderConfig{
		SourceBucket:      "src",
		OutputBucket:      "out",
		NotificationTopic: "transcode-events",
	})
	require.NoError(t, err)
	return NewHandler(fs, builder, sub, &fakeTracker{}, testLogger())
}

func modelRecord(id string) *models.AutoModel {
	return &models.AutoModel{ID: uuid.MustParse(id), Name: "Delta", MakeName: "Lancia"}
}

const m1 = "5f2e6c2a-0b1e-4b6e-9d5a-7a3f6f0c1234"

func strptr(s string) *string { return &s }

func stateptr(s models.EncodingState) *models.EncodingState { return &s }

func TestVideoUploadMarksInit(t *testing.T) {
	fs := newFakeStore(modelRecord(m1))
	sub := &fakeSubmitter{jobID: "job-123"}
	h := testHandler(t, fs, sub)

	err := h.HandleChange(context.Background(), ChangeEvent{
		RecordID: m1,
		Before:   map[string]interface{}{"name": "Delta"},
		After:    map[string]interface{}{"name": "Delta", "video_url": "https://host/videos/clip1.mp4?token=abc"},
	})
	require.NoError(t, err)

	rec, _ := fs.Get(context.Background(), m1)
	require.NotNil(t, rec.EncodingState)
	assert.Equal(t, models.EncodingStateInit, *rec.EncodingState)
	assert.Equal(t, 0, sub.calls, "no job submitted on the init transition")
	assert.Nil(t, rec.TranscoderJobID)
}

func TestInitWriteSubmitsJob(t *testing.T) {
	rec := modelRecord(m1)
	rec.VideoURL = strptr("https://host/videos/clip1.mp4?token=abc")
	rec.EncodingState = stateptr(models.EncodingStateInit)
	fs := newFakeStore(rec)
	sub := &fakeSubmitter{jobID: "job-123"}
	h := testHandler(t, fs, sub)

	err := h.HandleChange(context.Background(), ChangeEvent{
		RecordID: m1,
		Before:   map[string]interface{}{"video_url": "https://host/videos/clip1.mp4?token=abc"},
		After:    map[string]interface{}{"video_url": "https://host/videos/clip1.mp4?token=abc", "encoding_state": "init"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, sub.calls)
	require.NotNil(t, sub.last)
	assert.Equal(t, "gs://src/model-videos/clip1.mp4", sub.last.InputURI, "query string stripped, object name extracted")

	got, _ := fs.Get(context.Background(), m1)
	require.NotNil(t, got.EncodingState)
	assert.Equal(t, models.EncodingStateProcessing, *got.EncodingState)
	require.NotNil(t, got.TranscoderJobID)
	assert.Equal(t, "job-123", *got.TranscoderJobID)
}

func TestDuplicateDeliverySubmitsOnce(t *testing.T) {
	rec := modelRecord(m1)
	rec.VideoURL = strptr("https://host/videos/clip1.mp4")
	rec.EncodingState = stateptr(models.EncodingStateInit)
	fs := newFakeStore(rec)
	sub := &fakeSubmitter{jobID: "job-123"}
	h := testHandler(t, fs, sub)

	ev := ChangeEvent{
		RecordID: m1,
		Before:   map[string]interface{}{"video_url": "https://host/videos/clip1.mp4"},
		After:    map[string]interface{}{"video_url": "https://host/videos/clip1.mp4", "encoding_state": "init"},
	}

	require.NoError(t, h.HandleChange(context.Background(), ev))
	require.NoError(t, h.HandleChange(context.Background(), ev))

	assert.Equal(t, 1, sub.calls, "redelivered event must not double-submit")
}

func TestRetryResetOfStuckInitSubmitsJob(t *testing.T) {
	// A retry of a record stuck in init rewrites the same init state and the
	// resulting event shows no field change at all. The re-observed init
	// state must still produce a submission.
	rec := modelRecord(m1)
	rec.VideoURL = strptr("https://host/videos/clip1.mp4")
	rec.EncodingState = stateptr(models.EncodingStateInit)
	fs := newFakeStore(rec)
	sub := &fakeSubmitter{jobID: "job-456"}
	h := testHandler(t, fs, sub)

	err := h.HandleChange(context.Background(), ChangeEvent{
		RecordID: m1,
		Before:   map[string]interface{}{"video_url": "https://host/videos/clip1.mp4", "encoding_state": "init"},
		After:    map[string]interface{}{"video_url": "https://host/videos/clip1.mp4", "encoding_state": "init"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, sub.calls)
	got, _ := fs.Get(context.Background(), m1)
	require.NotNil(t, got.EncodingState)
	assert.Equal(t, models.EncodingStateProcessing, *got.EncodingState)
	require.NotNil(t, got.TranscoderJobID)
	assert.Equal(t, "job-456", *got.TranscoderJobID)
}

func TestDuplicateInitEventsAreIdempotent(t *testing.T) {
	fs := newFakeStore(modelRecord(m1))
	sub := &fakeSubmitter{jobID: "job-123"}
	h := testHandler(t, fs, sub)

	ev := ChangeEvent{
		RecordID: m1,
		Before:   map[string]interface{}{"name": "Delta"},
		After:    map[string]interface{}{"name": "Delta", "video_url": "https://host/videos/clip1.mp4"},
	}

	require.NoError(t, h.HandleChange(context.Background(), ev))
	require.NoError(t, h.HandleChange(context.Background(), ev))

	rec, _ := fs.Get(context.Background(), m1)
	assert.Equal(t, models.EncodingStateInit, *rec.EncodingState)
	assert.Equal(t, 0, sub.calls)
}

func TestMalformedVideoURLLeavesStateUnchanged(t *testing.T) {
	rec := modelRecord(m1)
	rec.EncodingState = stateptr(models.EncodingStateInit)
	fs := newFakeStore(rec)
	sub := &fakeSubmitter{jobID: "job-123"}
	h := testHandler(t, fs, sub)

	err := h.HandleChange(context.Background(), ChangeEvent{
		RecordID: m1,
		Before:   map[string]interface{}{},
		After:    map[string]interface{}{"video_url": "https://host/videos/", "encoding_state": "init"},
	})
	require.Error(t, err)

	got, _ := fs.Get(context.Background(), m1)
	assert.Equal(t, models.EncodingStateInit, *got.EncodingState, "state untouched so a corrected re-write can retry")
	assert.Equal(t, 0, sub.calls)
}

func TestSubmissionFailureMarksFailed(t *testing.T) {
	rec := modelRecord(m1)
	rec.VideoURL = strptr("https://host/videos/clip1.mp4")
	rec.EncodingState = stateptr(models.EncodingStateInit)
	fs := newFakeStore(rec)
	sub := &fakeSubmitter{err: errors.New("service unavailable")}
	h := testHandler(t, fs, sub)

	err := h.HandleChange(context.Background(), ChangeEvent{
		RecordID: m1,
		Before:   map[string]interface{}{"video_url": "https://host/videos/clip1.mp4"},
		After:    map[string]interface{}{"video_url": "https://host/videos/clip1.mp4", "encoding_state": "init"},
	})
	require.Error(t, err)

	got, _ := fs.Get(context.Background(), m1)
	require.NotNil(t, got.EncodingState)
	assert.Equal(t, models.EncodingStateFailed, *got.EncodingState)
	require.NotNil(t, got.EncodingAttempts)
	assert.Equal(t, 1, *got.EncodingAttempts)
	assert.Nil(t, got.TranscoderJobID)
}

func TestSubmissionFailureIncrementsAttempts(t *testing.T) {
	attempts := 2
	rec := modelRecord(m1)
	rec.VideoURL = strptr("https://host/videos/clip1.mp4")
	rec.EncodingState = stateptr(models.EncodingStateInit)
	rec.EncodingAttempts = &attempts
	fs := newFakeStore(rec)
	sub := &fakeSubmitter{err: errors.New("still down")}
	h := testHandler(t, fs, sub)

	_ = h.HandleChange(context.Background(), ChangeEvent{
		RecordID: m1,
		Before:   map[string]interface{}{"video_url": "https://host/videos/clip1.mp4", "encoding_state": "failed"},
		After:    map[string]interface{}{"video_url": "https://host/videos/clip1.mp4", "encoding_state": "init"},
	})

	got, _ := fs.Get(context.Background(), m1)
	require.NotNil(t, got.EncodingAttempts)
	assert.Equal(t, 3, *got.EncodingAttempts)
}

func TestChangeEventForDeletedRecord(t *testing.T) {
	fs := newFakeStore() // empty
	sub := &fakeSubmitter{jobID: "job-123"}
	h := testHandler(t, fs, sub)

	err := h.HandleChange(context.Background(), ChangeEvent{
		RecordID: m1,
		Before:   map[string]interface{}{"video_url": "u"},
		After:    map[string]interface{}{"video_url": "https://host/videos/clip1.mp4", "encoding_state": "init"},
	})
	require.NoError(t, err, "vanished record is not an error")
	assert.Equal(t, 0, sub.calls)
}

func TestCompletionFinalizesRecord(t *testing.T) {
	rec := modelRecord(m1)
	rec.EncodingState = stateptr(models.EncodingStateProcessing)
	rec.TranscoderJobID = strptr("job-123")
	fs := newFakeStore(rec)
	tracker := &fakeTracker{}
	r := NewReconciler(fs, tracker, testLogger())

	err := r.HandleCompletion(context.Background(), CompletionNotification{JobID: "job-123", Status: "SUCCEEDED"})
	require.NoError(t, err)

	got, _ := fs.Get(context.Background(), m1)
	require.NotNil(t, got.EncodingState)
	assert.Equal(t, models.EncodingStateComplete, *got.EncodingState)
	assert.Equal(t, "complete", tracker.finished["job-123"])
}

func TestCompletionIsIdempotent(t *testing.T) {
	rec := modelRecord(m1)
	rec.EncodingState = stateptr(models.EncodingStateProcessing)
	rec.TranscoderJobID = strptr("job-123")
	fs := newFakeStore(rec)
	r := NewReconciler(fs, &fakeTracker{}, testLogger())

	n := CompletionNotification{JobID: "job-123", Status: "SUCCEEDED"}
	require.NoError(t, r.HandleCompletion(context.Background(), n))
	firstPatches := len(fs.patches)
	require.NoError(t, r.HandleCompletion(context.Background(), n))

	got, _ := fs.Get(context.Background(), m1)
	assert.Equal(t, models.EncodingStateComplete, *got.EncodingState)
	assert.Equal(t, firstPatches, len(fs.patches), "second notification must not write again")
}

func TestCompletionNeverOverridesTerminalState(t *testing.T) {
	rec := modelRecord(m1)
	rec.EncodingState = stateptr(models.EncodingStateFailed)
	rec.TranscoderJobID = strptr("job-123")
	fs := newFakeStore(rec)
	r := NewReconciler(fs, &fakeTracker{}, testLogger())

	err := r.HandleCompletion(context.Background(), CompletionNotification{JobID: "job-123", Status: "SUCCEEDED"})
	require.NoError(t, err)

	got, _ := fs.Get(context.Background(), m1)
	assert.Equal(t, models.EncodingStateFailed, *got.EncodingState, "late contradictory notification loses to the recorded outcome")
	assert.Empty(t, fs.patches)
}

func TestCompletionWithNoMatchingRecords(t *testing.T) {
	fs := newFakeStore(modelRecord(m1))
	r := NewReconciler(fs, &fakeTracker{}, testLogger())

	err := r.HandleCompletion(context.Background(), CompletionNotification{JobID: "job-unknown", Status: "SUCCEEDED"})
	require.NoError(t, err, "zero matches must not raise an error")
	assert.Empty(t, fs.patches)
}

func TestCompletionWithFailureStatus(t *testing.T) {
	rec := modelRecord(m1)
	rec.EncodingState = stateptr(models.EncodingStateProcessing)
	rec.TranscoderJobID = strptr("job-123")
	fs := newFakeStore(rec)
	r := NewReconciler(fs, &fakeTracker{}, testLogger())

	err := r.HandleCompletion(context.Background(), CompletionNotification{JobID: "job-123", Status: "FAILED"})
	require.NoError(t, err)

	got, _ := fs.Get(context.Background(), m1)
	assert.Equal(t, models.EncodingStateFailed, *got.EncodingState)
}

func TestCompletionWithoutJobID(t *testing.T) {
	fs := newFakeStore()
	r := NewReconciler(fs, &fakeTracker{}, testLogger())
	assert.NoError(t, r.HandleCompletion(context.Background(), CompletionNotification{}))
}
