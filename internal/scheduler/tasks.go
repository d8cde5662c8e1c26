package scheduler

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const TaskBulkEnrichment = "enrichment.bulk"

const TaskCadenceSweep = "cadence.sweep"

type BulkEnrichmentPayload struct {
	TenantID   uuid.UUID   `json:"tenantId"`
	ContactIDs []uuid.UUID `json:"contactIds"`
}

func NewBulkEnrichmentTask(payload BulkEnrichmentPayload) (*asynq.Task, error) {
	if len(payload.ContactIDs) == 0 {
		return nil, fmt.Errorf("bulk enrichment needs at least one contact")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskBulkEnrichment, data), nil
}

func ParseBulkEnrichmentPayload(task *asynq.Task) (BulkEnrichmentPayload, error) {
	var payload BulkEnrichmentPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return BulkEnrichmentPayload{}, err
	}
	if payload.TenantID == uuid.Nil {
		return BulkEnrichmentPayload{}, fmt.Errorf("bulk enrichment payload without tenant")
	}
	return payload, nil
}

func NewCadenceSweepTask() *asynq.Task {
	return asynq.NewTask(TaskCadenceSweep, nil)
}
