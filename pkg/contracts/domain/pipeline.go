package domain

import "time"

// PipelineStage identifies one step of a pipeline run.
type PipelineStage string

const (
	StageFetch     PipelineStage = "fetch"
	StageNormalize PipelineStage = "normalize"
	StagePersist   PipelineStage = "persist"
)

// StageStatus is the state a stage reports in a PipelineEvent.
type StageStatus string

const (
	StatusStarted   StageStatus = "started"
	StatusCompleted StageStatus = "completed"
	StatusFailed    StageStatus = "failed"
)

// PipelineEvent is broadcast to progress subscribers as a run moves through its stages.
type PipelineEvent struct {
	RunID     string         `json:"run_id"`
	Stage     PipelineStage  `json:"stage"`
	Status    StageStatus    `json:"status"`
	Message   string         `json:"message,omitempty"`
	Rows      int            `json:"rows,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}
