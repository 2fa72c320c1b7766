// Package store wraps the Supabase document backend. Every read and write of
// auto_makes and auto_models goes through here; writes are narrow patches,
// never whole-row overwrites.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	supa "github.com/supabase-community/supabase-go"

	"github.com/Disfractal/cloud-reel-vault/models"
)

// ErrRecordNotFound is returned when a database record is not found.
var ErrRecordNotFound = errors.New("record not found")

// withTimestamp copies the requested fields into a fresh patch and stamps
// updated_at. The caller's map is never mutated.
func withTimestamp(fields map[string]interface{}) map[string]interface{} {
	patch := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		patch[k] = v
	}
	patch["updated_at"] = time.Now()
	return patch
}

const modelsTable = "auto_models"

// ModelStore reads and writes auto_models rows.
type ModelStore struct {
	db  *supa.Client
	log *logrus.Logger
}

func NewModelStore(db *supa.Client, log *logrus.Logger) *ModelStore {
	return &ModelStore{db: db, log: log}
}

// Get fetches a single model by id.
func (s *ModelStore) Get(ctx context.Context, id string) (*models.AutoModel, error) {
	var model models.AutoModel
	_, err := s.db.From(modelsTable).
		Select("*", "", false).
		Eq("id", id).
		Single().
		ExecuteTo(&model)
	if err != nil {
		return nil, ErrRecordNotFound
	}
	return &model, nil
}

// ListByMake returns all models belonging to a make.
func (s *ModelStore) ListByMake(ctx context.Context, makeID string) ([]models.AutoModel, error) {
	var result []models.AutoModel
	body, _, err := s.db.From(modelsTable).
		Select("*", "", false).
		Eq("make_id", makeID).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to list models for make %s: %w", makeID, err)
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal models: %w", err)
	}
	return result, nil
}

// Create inserts a new model and returns the stored row.
func (s *ModelStore) Create(ctx context.Context, model models.AutoModel) (*models.AutoModel, error) {
	var created []models.AutoModel
	body, _, err := s.db.From(modelsTable).
		Insert(model, false, "", "representation", "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to insert model: %w", err)
	}
	if err := json.Unmarshal(body, &created); err != nil || len(created) == 0 {
		return nil, fmt.Errorf("no record returned after insert")
	}
	return &created[0], nil
}

// Patch applies a partial update to the given model. Only the listed fields
// are touched.
func (s *ModelStore) Patch(ctx context.Context, id string, fields map[string]interface{}) error {
	_, count, err := s.db.From(modelsTable).
		Update(withTimestamp(fields), "", "exact").
		Eq("id", id).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to patch model %s: %w", id, err)
	}
	if count == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// PatchIfJobUnset applies a partial update only while the record has no
// transcoder job associated. Returns false when the conditional write matched
// no row, which means a concurrent transition already claimed the record.
func (s *ModelStore) PatchIfJobUnset(ctx context.Context, id string, fields map[string]interface{}) (bool, error) {
	_, count, err := s.db.From(modelsTable).
		Update(withTimestamp(fields), "", "exact").
		Eq("id", id).
		Is(models.FieldTranscoderJobID, "null").
		Execute()
	if err != nil {
		return false, fmt.Errorf("failed to patch model %s: %w", id, err)
	}
	return count > 0, nil
}

// ByJobID returns every model whose transcoder_job_id equals jobID. Normally
// exactly one, but callers must tolerate zero or several.
func (s *ModelStore) ByJobID(ctx context.Context, jobID string) ([]models.AutoModel, error) {
	var result []models.AutoModel
	body, _, err := s.db.From(modelsTable).
		Select("*", "", false).
		Eq(models.FieldTranscoderJobID, jobID).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to query models by job id %s: %w", jobID, err)
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal models: %w", err)
	}
	return result, nil
}

// Delete removes a model.
func (s *ModelStore) Delete(ctx context.Context, id string) error {
	_, _, err := s.db.From(modelsTable).
		Delete("", "").
		Eq("id", id).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to delete model %s: %w", id, err)
	}
	return nil
}
