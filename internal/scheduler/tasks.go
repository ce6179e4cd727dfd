package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskStaleDealSweep = "deals.stale.sweep"

type StaleDealSweepPayload struct {
	// Threshold overrides the configured staleness window when non-empty
	// (duration string, e.g. "72h").
	Threshold string `json:"threshold,omitempty"`
}

func NewStaleDealSweepTask(payload StaleDealSweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStaleDealSweep, data), nil
}

func ParseStaleDealSweepPayload(task *asynq.Task) (StaleDealSweepPayload, error) {
	var payload StaleDealSweepPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return StaleDealSweepPayload{}, err
	}
	return payload, nil
}
