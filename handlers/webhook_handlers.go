package handlers

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/Disfractal/cloud-reel-vault/internal/pipeline"
)

// modelChangePayload is the document backend's webhook body: the full row
// after the write plus the row as it was before.
type modelChangePayload struct {
	Type      string                 `json:"type"`
	Table     string                 `json:"table"`
	Record    map[string]interface{} `json:"record"`
	OldRecord map[string]interface{} `json:"old_record"`
}

// changeEventJob carries one change event through the worker pool.
type changeEventJob struct {
	handler ChangeHandler
	event   pipeline.ChangeEvent
}

func (j *changeEventJob) Execute() error {
	return j.handler.HandleChange(context.Background(), j.event)
}

func (j *changeEventJob) ID() string {
	return fmt.Sprintf("change:%s", j.event.RecordID)
}

// HandleModelChange receives record-change webhooks from the document
// backend. The event is queued and the webhook acknowledged immediately:
// pipeline errors are an operator concern, surfacing them here would only
// make the backend hammer us with redeliveries.
func (h *ApplicationHandler) HandleModelChange(c *fiber.Ctx) error {
	payload := new(modelChangePayload)
	if err := c.BodyParser(payload); err != nil {
		h.Logger.Errorf("Error parsing model change payload: %v", err)
		return c.SendStatus(fiber.StatusBadRequest)
	}

	if payload.Table != "auto_models" || payload.Type != "UPDATE" {
		return c.SendStatus(fiber.StatusNoContent)
	}

	recordID, _ := payload.Record["id"].(string)
	if recordID == "" {
		h.Logger.Warn("Model change payload without record id, ignoring")
		return c.SendStatus(fiber.StatusNoContent)
	}

	job := &changeEventJob{
		handler: h.Pipeline,
		event: pipeline.ChangeEvent{
			RecordID: recordID,
			Before:   payload.OldRecord,
			After:    payload.Record,
		},
	}
	if err := h.Queue.Submit(job); err != nil {
		h.Logger.WithError(err).Error("Failed to queue model change event")
		// Still acknowledged; the record can be re-triggered manually.
	}

	return c.SendStatus(fiber.StatusNoContent)
}
