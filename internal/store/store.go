package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by mutations that target a missing or inactive row.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a unique constraint rejects a write.
var ErrConflict = errors.New("conflict")

type User struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Active    bool      `json:"active"`
}

type Matrix struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	OwnerID     uuid.UUID `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Active      bool      `json:"active"`
}

type Criterion struct {
	ID          uuid.UUID `json:"id"`
	MatrixID    uuid.UUID `json:"matrix_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Weight      float64   `json:"weight"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Active      bool      `json:"active"`
}

type Option struct {
	ID          uuid.UUID `json:"id"`
	MatrixID    uuid.UUID `json:"matrix_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Active      bool      `json:"active"`
}

// Score is one option's raw rating against one criterion (an option_criteria row).
type Score struct {
	ID          uuid.UUID `json:"id"`
	OptionID    uuid.UUID `json:"option_id"`
	CriterionID uuid.UUID `json:"criterion_id"`
	Score       float64   `json:"score"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Active      bool      `json:"active"`
}

// Share grants a user access to a matrix they do not own (a user_matrices row).
type Share struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	MatrixID  uuid.UUID `json:"matrix_id"`
	Username  string    `json:"username,omitempty"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Stats struct {
	Users    int `json:"users"`
	Matrices int `json:"matrices"`
	Criteria int `json:"criteria"`
	Options  int `json:"options"`
	Scores   int `json:"scores"`
	Shares   int `json:"shares"`
}

// Store persists matrices and their children. Get* methods return nil, nil
// when the row does not exist or has been soft-deleted.
type Store interface {
	CreateUser(ctx context.Context, u *User) error
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	CreateMatrix(ctx context.Context, m *Matrix) error
	GetMatrix(ctx context.Context, id uuid.UUID) (*Matrix, error)
	ListMatricesForUser(ctx context.Context, userID uuid.UUID) ([]*Matrix, error)
	UpdateMatrix(ctx context.Context, m *Matrix) error
	DeleteMatrix(ctx context.Context, id uuid.UUID) error

	CreateCriterion(ctx context.Context, c *Criterion) error
	GetCriterion(ctx context.Context, id uuid.UUID) (*Criterion, error)
	ListCriteria(ctx context.Context, matrixID uuid.UUID) ([]*Criterion, error)
	UpdateCriterion(ctx context.Context, c *Criterion) error
	DeleteCriterion(ctx context.Context, id uuid.UUID) error

	CreateOption(ctx context.Context, o *Option) error
	GetOption(ctx context.Context, id uuid.UUID) (*Option, error)
	ListOptions(ctx context.Context, matrixID uuid.UUID) ([]*Option, error)
	UpdateOption(ctx context.Context, o *Option) error
	DeleteOption(ctx context.Context, id uuid.UUID) error
	// CreateOptionWithScores inserts o and its initial scores atomically. Each
	// score's OptionID is set to the new option's id.
	CreateOptionWithScores(ctx context.Context, o *Option, scores []*Score) error

	UpsertScore(ctx context.Context, s *Score) error
	ListScores(ctx context.Context, matrixID uuid.UUID) ([]*Score, error)

	ShareMatrix(ctx context.Context, s *Share) error
	UnshareMatrix(ctx context.Context, matrixID, userID uuid.UUID) error
	ListShares(ctx context.Context, matrixID uuid.UUID) ([]*Share, error)
	CanAccessMatrix(ctx context.Context, matrixID, userID uuid.UUID) (bool, error)

	GetStats(ctx context.Context) (*Stats, error)

	Migrate(ctx context.Context) error
	Close() error
}
