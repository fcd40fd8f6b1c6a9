package domain

import "time"

// ============================================================
// Pipeline run state
// ============================================================

// RunStatus is the lifecycle state of the analysis pipeline.
type RunStatus string

const (
	StatusIdle    RunStatus = "idle"
	StatusRunning RunStatus = "running"
	StatusSuccess RunStatus = "success"
	StatusFailed  RunStatus = "failed"
)

// Stage names the pipeline step currently executing.
type Stage string

const (
	StageNone     Stage = ""
	StageValidate Stage = "validate_documents"
	StageExtract  Stage = "extract_profile"
	StageScore    Stage = "score_products"
	StageExplain  Stage = "generate_explanations"
)

// RunState is the orchestrator's record of the current (or last) run.
// Exactly one run is current at a time; starting a new run invalidates
// whatever was in flight.
type RunState struct {
	RunID        string    `json:"run_id"`
	Stage        Stage     `json:"stage"`
	Status       RunStatus `json:"status"`
	Progress     int       `json:"progress"`
	LastError    string    `json:"last_error,omitempty"`
	LastActivity time.Time `json:"last_activity"`
}

// SessionSnapshot is what the session service hands to the snapshot
// store after every state change. Fields absent from a stored snapshot
// hydrate to their zero values.
type SessionSnapshot struct {
	Documents    []Document         `json:"documents,omitempty"`
	ManualFields *ManualFields      `json:"manual_fields,omitempty"`
	Profile      *CustomerProfile   `json:"profile,omitempty"`
	Results      []EvaluationResult `json:"results,omitempty"`
	Run          RunState           `json:"run"`
}
