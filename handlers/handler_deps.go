package handlers

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/Disfractal/cloud-reel-vault/internal/pipeline"
	"github.com/Disfractal/cloud-reel-vault/internal/store"
	"github.com/Disfractal/cloud-reel-vault/internal/worker"
)

// ChangeHandler is the slice of the encoding pipeline the HTTP layer needs.
// An interface so handler tests can run against a fake pipeline.
type ChangeHandler interface {
	HandleChange(ctx context.Context, ev pipeline.ChangeEvent) error
}

// JobLookup reads operator-facing job metadata.
type JobLookup interface {
	Get(ctx context.Context, jobID string) (map[string]string, error)
}

// ApplicationHandler holds shared dependencies for handlers.
type ApplicationHandler struct {
	Logger   *logrus.Logger
	Makes    *store.MakeStore
	Models   *store.ModelStore
	Pipeline ChangeHandler
	Queue    worker.Queue
	Jobs     JobLookup
}

// NewApplicationHandler creates an ApplicationHandler with the given dependencies.
func NewApplicationHandler(log *logrus.Logger, makes *store.MakeStore, modelStore *store.ModelStore, pl ChangeHandler, queue worker.Queue, jobs JobLookup) *ApplicationHandler {
	return &ApplicationHandler{
		Logger:   log,
		Makes:    makes,
		Models:   modelStore,
		Pipeline: pl,
		Queue:    queue,
		Jobs:     jobs,
	}
}
