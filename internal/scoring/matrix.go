package scoring

import "time"

// Criterion is a weighted dimension of evaluation. Weight is a fraction; the
// criteria of a well-formed matrix sum to 1.0.
type Criterion struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Weight      float64 `json:"weight"`
	Description string  `json:"description,omitempty"`
	Active      *bool   `json:"active,omitempty"`
}

// IsActive reports whether the criterion is active. A nil flag counts as active.
func (c Criterion) IsActive() bool {
	return c.Active == nil || *c.Active
}

// Option is an alternative being evaluated. Scores maps criterion id to a raw rating.
type Option struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Scores      map[string]float64 `json:"scores"`
	Active      *bool              `json:"active,omitempty"`
}

// IsActive reports whether the option is active. A nil flag counts as active.
func (o Option) IsActive() bool {
	return o.Active == nil || *o.Active
}

// Matrix is a read-only snapshot of a decision matrix.
type Matrix struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	OwnerID     string      `json:"owner_id"`
	Criteria    []Criterion `json:"criteria"`
	Options     []Option    `json:"options"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	Active      *bool       `json:"active,omitempty"`
}
