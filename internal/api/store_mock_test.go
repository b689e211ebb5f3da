package api

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/Tally/internal/store"
)

// mockStore is an in-memory store.Store. Slices keep insertion order the way
// the real backends order by creation.
type mockStore struct {
	mu       sync.Mutex
	users    []*store.User
	matrices []*store.Matrix
	criteria []*store.Criterion
	options  []*store.Option
	scores   []*store.Score
	shares   []*store.Share

	// failGetMatrix makes GetMatrix return an error.
	failGetMatrix bool
	// failScores makes every score write return an error.
	failScores bool
}

func newMockStore() *mockStore { return &mockStore{} }

func (m *mockStore) CreateUser(_ context.Context, u *store.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return store.ErrConflict
		}
	}
	u.ID = uuid.New()
	u.CreatedAt, u.UpdatedAt = time.Now(), time.Now()
	u.Active = true
	cp := *u
	m.users = append(m.users, &cp)
	return nil
}

func (m *mockStore) GetUser(_ context.Context, id uuid.UUID) (*store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id && u.Active {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockStore) GetUserByEmail(_ context.Context, email string) (*store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) && u.Active {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *mockStore) CreateMatrix(_ context.Context, mx *store.Matrix) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mx.ID = uuid.New()
	mx.CreatedAt, mx.UpdatedAt = time.Now(), time.Now()
	mx.Active = true
	cp := *mx
	m.matrices = append(m.matrices, &cp)
	return nil
}

func (m *mockStore) findMatrix(id uuid.UUID) *store.Matrix {
	for _, mx := range m.matrices {
		if mx.ID == id && mx.Active {
			return mx
		}
	}
	return nil
}

func (m *mockStore) GetMatrix(_ context.Context, id uuid.UUID) (*store.Matrix, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGetMatrix {
		return nil, errors.New("db down")
	}
	if mx := m.findMatrix(id); mx != nil {
		cp := *mx
		return &cp, nil
	}
	return nil, nil
}

func (m *mockStore) ListMatricesForUser(_ context.Context, userID uuid.UUID) ([]*store.Matrix, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*store.Matrix
	for _, mx := range m.matrices {
		if mx.Active && (mx.OwnerID == userID || m.sharedWith(mx.ID, userID)) {
			cp := *mx
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockStore) UpdateMatrix(_ context.Context, mx *store.Matrix) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing := m.findMatrix(mx.ID)
	if existing == nil {
		return store.ErrNotFound
	}
	existing.Name, existing.Description = mx.Name, mx.Description
	existing.UpdatedAt = time.Now()
	return nil
}

func (m *mockStore) DeleteMatrix(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	mx := m.findMatrix(id)
	if mx == nil {
		return store.ErrNotFound
	}
	mx.Active = false
	return nil
}

func (m *mockStore) CreateCriterion(_ context.Context, c *store.Criterion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = uuid.New()
	c.CreatedAt, c.UpdatedAt = time.Now(), time.Now()
	c.Active = true
	cp := *c
	m.criteria = append(m.criteria, &cp)
	return nil
}

func (m *mockStore) findCriterion(id uuid.UUID) *store.Criterion {
	for _, c := range m.criteria {
		if c.ID == id && c.Active {
			return c
		}
	}
	return nil
}

func (m *mockStore) GetCriterion(_ context.Context, id uuid.UUID) (*store.Criterion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c := m.findCriterion(id); c != nil {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (m *mockStore) ListCriteria(_ context.Context, matrixID uuid.UUID) ([]*store.Criterion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*store.Criterion
	for _, c := range m.criteria {
		if c.MatrixID == matrixID && c.Active {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockStore) UpdateCriterion(_ context.Context, c *store.Criterion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing := m.findCriterion(c.ID)
	if existing == nil {
		return store.ErrNotFound
	}
	existing.Name, existing.Description, existing.Weight = c.Name, c.Description, c.Weight
	return nil
}

func (m *mockStore) DeleteCriterion(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.findCriterion(id)
	if c == nil {
		return store.ErrNotFound
	}
	c.Active = false
	return nil
}

func (m *mockStore) CreateOption(_ context.Context, o *store.Option) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o.ID = uuid.New()
	o.CreatedAt, o.UpdatedAt = time.Now(), time.Now()
	o.Active = true
	cp := *o
	m.options = append(m.options, &cp)
	return nil
}

func (m *mockStore) findOption(id uuid.UUID) *store.Option {
	for _, o := range m.options {
		if o.ID == id && o.Active {
			return o
		}
	}
	return nil
}

func (m *mockStore) GetOption(_ context.Context, id uuid.UUID) (*store.Option, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o := m.findOption(id); o != nil {
		cp := *o
		return &cp, nil
	}
	return nil, nil
}

func (m *mockStore) ListOptions(_ context.Context, matrixID uuid.UUID) ([]*store.Option, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*store.Option
	for _, o := range m.options {
		if o.MatrixID == matrixID && o.Active {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockStore) UpdateOption(_ context.Context, o *store.Option) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing := m.findOption(o.ID)
	if existing == nil {
		return store.ErrNotFound
	}
	existing.Name, existing.Description = o.Name, o.Description
	return nil
}

func (m *mockStore) DeleteOption(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o := m.findOption(id)
	if o == nil {
		return store.ErrNotFound
	}
	o.Active = false
	return nil
}

func (m *mockStore) CreateOptionWithScores(_ context.Context, o *store.Option, scores []*store.Score) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failScores && len(scores) > 0 {
		return errors.New("score write failed")
	}
	o.ID = uuid.New()
	o.CreatedAt, o.UpdatedAt = time.Now(), time.Now()
	o.Active = true
	cp := *o
	m.options = append(m.options, &cp)
	for _, sc := range scores {
		sc.ID, sc.OptionID = uuid.New(), o.ID
		sc.CreatedAt, sc.UpdatedAt = time.Now(), time.Now()
		sc.Active = true
		scp := *sc
		m.scores = append(m.scores, &scp)
	}
	return nil
}

func (m *mockStore) UpsertScore(_ context.Context, sc *store.Score) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failScores {
		return errors.New("score write failed")
	}
	for _, existing := range m.scores {
		if existing.OptionID == sc.OptionID && existing.CriterionID == sc.CriterionID {
			existing.Score, existing.Active = sc.Score, true
			sc.ID, sc.Active = existing.ID, true
			return nil
		}
	}
	sc.ID = uuid.New()
	sc.CreatedAt, sc.UpdatedAt = time.Now(), time.Now()
	sc.Active = true
	cp := *sc
	m.scores = append(m.scores, &cp)
	return nil
}

func (m *mockStore) ListScores(_ context.Context, matrixID uuid.UUID) ([]*store.Score, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*store.Score
	for _, sc := range m.scores {
		o := m.findOption(sc.OptionID)
		c := m.findCriterion(sc.CriterionID)
		if o == nil || c == nil || o.MatrixID != matrixID || !sc.Active {
			continue
		}
		cp := *sc
		out = append(out, &cp)
	}
	return out, nil
}

func (m *mockStore) sharedWith(matrixID, userID uuid.UUID) bool {
	for _, sh := range m.shares {
		if sh.MatrixID == matrixID && sh.UserID == userID {
			return true
		}
	}
	return false
}

func (m *mockStore) ShareMatrix(_ context.Context, sh *store.Share) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.shares {
		if existing.MatrixID == sh.MatrixID && existing.UserID == sh.UserID {
			sh.ID, sh.CreatedAt = existing.ID, existing.CreatedAt
			return nil
		}
	}
	sh.ID = uuid.New()
	sh.CreatedAt = time.Now()
	cp := *sh
	m.shares = append(m.shares, &cp)
	return nil
}

func (m *mockStore) UnshareMatrix(_ context.Context, matrixID, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, sh := range m.shares {
		if sh.MatrixID == matrixID && sh.UserID == userID {
			m.shares = append(m.shares[:i], m.shares[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (m *mockStore) ListShares(_ context.Context, matrixID uuid.UUID) ([]*store.Share, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*store.Share
	for _, sh := range m.shares {
		if sh.MatrixID == matrixID {
			cp := *sh
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockStore) CanAccessMatrix(_ context.Context, matrixID, userID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mx := m.findMatrix(matrixID)
	if mx == nil {
		return false, nil
	}
	return mx.OwnerID == userID || m.sharedWith(matrixID, userID), nil
}

func (m *mockStore) GetStats(_ context.Context) (*store.Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &store.Stats{
		Users:    len(m.users),
		Matrices: len(m.matrices),
		Criteria: len(m.criteria),
		Options:  len(m.options),
		Scores:   len(m.scores),
		Shares:   len(m.shares),
	}, nil
}

func (m *mockStore) Migrate(_ context.Context) error { return nil }
func (m *mockStore) Close() error                    { return nil }
