package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
	supa "github.com/supabase-community/supabase-go"

	"github.com/Disfractal/cloud-reel-vault/models"
)

const makesTable = "auto_makes"

// MakeStore reads and writes auto_makes rows.
type MakeStore struct {
	db  *supa.Client
	log *logrus.Logger
}

func NewMakeStore(db *supa.Client, log *logrus.Logger) *MakeStore {
	return &MakeStore{db: db, log: log}
}

func (s *MakeStore) List(ctx context.Context) ([]models.AutoMake, error) {
	var result []models.AutoMake
	body, _, err := s.db.From(makesTable).
		Select("*", "", false).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to list makes: %w", err)
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal makes: %w", err)
	}
	return result, nil
}

func (s *MakeStore) Get(ctx context.Context, id string) (*models.AutoMake, error) {
	var mk models.AutoMake
	_, err := s.db.From(makesTable).
		Select("*", "", false).
		Eq("id", id).
		Single().
		ExecuteTo(&mk)
	if err != nil {
		return nil, ErrRecordNotFound
	}
	return &mk, nil
}

func (s *MakeStore) Create(ctx context.Context, mk models.AutoMake) (*models.AutoMake, error) {
	var created []models.AutoMake
	body, _, err := s.db.From(makesTable).
		Insert(mk, false, "", "representation", "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to insert make: %w", err)
	}
	if err := json.Unmarshal(body, &created); err != nil || len(created) == 0 {
		return nil, fmt.Errorf("no record returned after insert")
	}
	return &created[0], nil
}

func (s *MakeStore) Patch(ctx context.Context, id string, fields map[string]interface{}) error {
	_, count, err := s.db.From(makesTable).
		Update(withTimestamp(fields), "", "exact").
		Eq("id", id).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to patch make %s: %w", id, err)
	}
	if count == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (s *MakeStore) Delete(ctx context.Context, id string) error {
	_, _, err := s.db.From(makesTable).
		Delete("", "").
		Eq("id", id).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to delete make %s: %w", id, err)
	}
	return nil
}
