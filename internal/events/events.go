package events

import "time"

type MatrixEvent struct {
	MatrixID string    `json:"matrix_id"`
	Name     string    `json:"name,omitempty"`
	ActorID  string    `json:"actor_id"`
	At       time.Time `json:"at"`
}

type ShareEvent struct {
	MatrixID string    `json:"matrix_id"`
	UserID   string    `json:"user_id"`
	ActorID  string    `json:"actor_id"`
	At       time.Time `json:"at"`
}

// ChangeEvent covers criterion, option and score edits. Action is one of
// created, updated or deleted.
type ChangeEvent struct {
	MatrixID    string    `json:"matrix_id"`
	EntityID    string    `json:"entity_id"`
	CriterionID string    `json:"criterion_id,omitempty"`
	Action      string    `json:"action"`
	ActorID     string    `json:"actor_id"`
	WeightTotal *float64  `json:"weight_total,omitempty"`
	WeightValid *bool     `json:"weight_valid,omitempty"`
	At          time.Time `json:"at"`
}

type EvaluatedEvent struct {
	MatrixID     string    `json:"matrix_id"`
	BestOptionID string    `json:"best_option_id,omitempty"`
	BestScore    float64   `json:"best_score"`
	Options      int       `json:"options"`
	WeightsValid bool      `json:"weights_valid"`
	At           time.Time `json:"at"`
}
