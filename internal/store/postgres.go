package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema/postgres.sql
var postgresSchema string

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func pgErr(err error) error {
	var pe *pgconn.PgError
	if errors.As(err, &pe) && pe.Code == "23505" {
		return fmt.Errorf("%w: %s", ErrConflict, pe.ConstraintName)
	}
	return err
}

func affected(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Users ---

func (s *PostgresStore) CreateUser(ctx context.Context, u *User) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (username, email)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at, active`,
		u.Username, u.Email,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt, &u.Active)
	return pgErr(err)
}

const userColumns = `id, username, email, created_at, updated_at, active`

func (s *PostgresStore) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 AND active`, id)
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1) AND active`, email)
}

func (s *PostgresStore) getUser(ctx context.Context, query string, arg interface{}) (*User, error) {
	u := &User{}
	err := s.pool.QueryRow(ctx, query, arg).Scan(&u.ID, &u.Username, &u.Email, &u.CreatedAt, &u.UpdatedAt, &u.Active)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// --- Matrices ---

const matrixColumns = `m.id, m.name, m.description, m.owner_id, m.created_at, m.updated_at, m.active`

func scanMatrix(row pgx.Row) (*Matrix, error) {
	m := &Matrix{}
	if err := row.Scan(&m.ID, &m.Name, &m.Description, &m.OwnerID, &m.CreatedAt, &m.UpdatedAt, &m.Active); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *PostgresStore) CreateMatrix(ctx context.Context, m *Matrix) error {
	return s.pool.QueryRow(ctx, `
		INSERT INTO matrices (name, description, owner_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at, active`,
		m.Name, m.Description, m.OwnerID,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt, &m.Active)
}

func (s *PostgresStore) GetMatrix(ctx context.Context, id uuid.UUID) (*Matrix, error) {
	m, err := scanMatrix(s.pool.QueryRow(ctx, `
		SELECT `+matrixColumns+` FROM matrices m WHERE m.id = $1 AND m.active`, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return m, err
}

func (s *PostgresStore) ListMatricesForUser(ctx context.Context, userID uuid.UUID) ([]*Matrix, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+matrixColumns+`
		FROM matrices m
		WHERE m.active AND (
			m.owner_id = $1 OR EXISTS (
				SELECT 1 FROM user_matrices um
				WHERE um.matrix_id = m.id AND um.user_id = $1 AND um.active))
		ORDER BY m.updated_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Matrix
	for rows.Next() {
		m, err := scanMatrix(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdateMatrix(ctx context.Context, m *Matrix) error {
	err := s.pool.QueryRow(ctx, `
		UPDATE matrices SET name = $2, description = $3, updated_at = now()
		WHERE id = $1 AND active
		RETURNING updated_at`,
		m.ID, m.Name, m.Description,
	).Scan(&m.UpdatedAt)
	if err == pgx.ErrNoRows {
		return ErrNotFound
	}
	return err
}

func (s *PostgresStore) DeleteMatrix(ctx context.Context, id uuid.UUID) error {
	return affected(s.pool.Exec(ctx, `
		UPDATE matrices SET active = FALSE, updated_at = now()
		WHERE id = $1 AND active`, id))
}

// touchMatrix bumps a matrix's updated_at when one of its children changes.
func (s *PostgresStore) touchMatrix(ctx context.Context, matrixID uuid.UUID) error {
	if _, err := s.pool.Exec(ctx, `UPDATE matrices SET updated_at = now() WHERE id = $1`, matrixID); err != nil {
		return fmt.Errorf("touch matrix: %w", err)
	}
	return nil
}

// --- Criteria ---

const criterionColumns = `id, matrix_id, name, description, weight, created_at, updated_at, active`

func scanCriterion(row pgx.Row) (*Criterion, error) {
	c := &Criterion{}
	if err := row.Scan(&c.ID, &c.MatrixID, &c.Name, &c.Description, &c.Weight, &c.CreatedAt, &c.UpdatedAt, &c.Active); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *PostgresStore) CreateCriterion(ctx context.Context, c *Criterion) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO criteria (matrix_id, name, description, weight)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at, active`,
		c.MatrixID, c.Name, c.Description, c.Weight,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt, &c.Active)
	if err != nil {
		return err
	}
	return s.touchMatrix(ctx, c.MatrixID)
}

func (s *PostgresStore) GetCriterion(ctx context.Context, id uuid.UUID) (*Criterion, error) {
	c, err := scanCriterion(s.pool.QueryRow(ctx, `
		SELECT `+criterionColumns+` FROM criteria WHERE id = $1 AND active`, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return c, err
}

func (s *PostgresStore) ListCriteria(ctx context.Context, matrixID uuid.UUID) ([]*Criterion, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+criterionColumns+`
		FROM criteria WHERE matrix_id = $1 AND active
		ORDER BY seq ASC`, matrixID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Criterion
	for rows.Next() {
		c, err := scanCriterion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdateCriterion(ctx context.Context, c *Criterion) error {
	err := s.pool.QueryRow(ctx, `
		UPDATE criteria SET name = $2, description = $3, weight = $4, updated_at = now()
		WHERE id = $1 AND active
		RETURNING updated_at`,
		c.ID, c.Name, c.Description, c.Weight,
	).Scan(&c.UpdatedAt)
	if err == pgx.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return s.touchMatrix(ctx, c.MatrixID)
}

func (s *PostgresStore) DeleteCriterion(ctx context.Context, id uuid.UUID) error {
	var matrixID uuid.UUID
	err := s.pool.QueryRow(ctx, `
		UPDATE criteria SET active = FALSE, updated_at = now()
		WHERE id = $1 AND active
		RETURNING matrix_id`, id).Scan(&matrixID)
	if err == pgx.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return s.touchMatrix(ctx, matrixID)
}

// --- Options ---

const optionColumns = `id, matrix_id, name, description, created_at, updated_at, active`

func scanOption(row pgx.Row) (*Option, error) {
	o := &Option{}
	if err := row.Scan(&o.ID, &o.MatrixID, &o.Name, &o.Description, &o.CreatedAt, &o.UpdatedAt, &o.Active); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *PostgresStore) CreateOption(ctx context.Context, o *Option) error {
	return s.CreateOptionWithScores(ctx, o, nil)
}

func (s *PostgresStore) GetOption(ctx context.Context, id uuid.UUID) (*Option, error) {
	o, err := scanOption(s.pool.QueryRow(ctx, `
		SELECT `+optionColumns+` FROM options WHERE id = $1 AND active`, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return o, err
}

func (s *PostgresStore) ListOptions(ctx context.Context, matrixID uuid.UUID) ([]*Option, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+optionColumns+`
		FROM options WHERE matrix_id = $1 AND active
		ORDER BY seq ASC`, matrixID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Option
	for rows.Next() {
		o, err := scanOption(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdateOption(ctx context.Context, o *Option) error {
	err := s.pool.QueryRow(ctx, `
		UPDATE options SET name = $2, description = $3, updated_at = now()
		WHERE id = $1 AND active
		RETURNING updated_at`,
		o.ID, o.Name, o.Description,
	).Scan(&o.UpdatedAt)
	if err == pgx.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return s.touchMatrix(ctx, o.MatrixID)
}

func (s *PostgresStore) DeleteOption(ctx context.Context, id uuid.UUID) error {
	var matrixID uuid.UUID
	err := s.pool.QueryRow(ctx, `
		UPDATE options SET active = FALSE, updated_at = now()
		WHERE id = $1 AND active
		RETURNING matrix_id`, id).Scan(&matrixID)
	if err == pgx.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return s.touchMatrix(ctx, matrixID)
}

func (s *PostgresStore) CreateOptionWithScores(ctx context.Context, o *Option, scores []*Score) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO options (matrix_id, name, description)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at, active`,
		o.MatrixID, o.Name, o.Description,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt, &o.Active)
	if err != nil {
		return err
	}

	for _, sc := range scores {
		sc.OptionID = o.ID
		err := tx.QueryRow(ctx, `
			INSERT INTO option_criteria (option_id, criterion_id, score)
			VALUES ($1, $2, $3)
			RETURNING id, created_at, updated_at, active`,
			sc.OptionID, sc.CriterionID, sc.Score,
		).Scan(&sc.ID, &sc.CreatedAt, &sc.UpdatedAt, &sc.Active)
		if err != nil {
			return fmt.Errorf("insert score: %w", err)
		}
	}

	if _, err := tx.Exec(ctx, `UPDATE matrices SET updated_at = now() WHERE id = $1`, o.MatrixID); err != nil {
		return fmt.Errorf("touch matrix: %w", err)
	}
	return tx.Commit(ctx)
}

// --- Scores ---

func (s *PostgresStore) UpsertScore(ctx context.Context, sc *Score) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO option_criteria (option_id, criterion_id, score)
		VALUES ($1, $2, $3)
		ON CONFLICT (option_id, criterion_id)
		DO UPDATE SET score = EXCLUDED.score, active = TRUE, updated_at = now()
		RETURNING id, created_at, updated_at, active`,
		sc.OptionID, sc.CriterionID, sc.Score,
	).Scan(&sc.ID, &sc.CreatedAt, &sc.UpdatedAt, &sc.Active)
	if err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, `
		UPDATE matrices SET updated_at = now()
		WHERE id = (SELECT matrix_id FROM options WHERE id = $1)`, sc.OptionID); err != nil {
		return fmt.Errorf("touch matrix: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListScores(ctx context.Context, matrixID uuid.UUID) ([]*Score, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT oc.id, oc.option_id, oc.criterion_id, oc.score, oc.created_at, oc.updated_at, oc.active
		FROM option_criteria oc
		JOIN options o ON o.id = oc.option_id
		JOIN criteria c ON c.id = oc.criterion_id
		WHERE o.matrix_id = $1 AND oc.active AND o.active AND c.active`, matrixID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Score
	for rows.Next() {
		sc := &Score{}
		if err := rows.Scan(&sc.ID, &sc.OptionID, &sc.CriterionID, &sc.Score, &sc.CreatedAt, &sc.UpdatedAt, &sc.Active); err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// --- Sharing ---

func (s *PostgresStore) ShareMatrix(ctx context.Context, sh *Share) error {
	return s.pool.QueryRow(ctx, `
		INSERT INTO user_matrices (user_id, matrix_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, matrix_id)
		DO UPDATE SET active = TRUE, updated_at = now()
		RETURNING id, created_at`,
		sh.UserID, sh.MatrixID,
	).Scan(&sh.ID, &sh.CreatedAt)
}

func (s *PostgresStore) UnshareMatrix(ctx context.Context, matrixID, userID uuid.UUID) error {
	return affected(s.pool.Exec(ctx, `
		DELETE FROM user_matrices WHERE matrix_id = $1 AND user_id = $2`, matrixID, userID))
}

func (s *PostgresStore) ListShares(ctx context.Context, matrixID uuid.UUID) ([]*Share, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT um.id, um.user_id, um.matrix_id, u.username, u.email, um.created_at
		FROM user_matrices um
		JOIN users u ON u.id = um.user_id
		WHERE um.matrix_id = $1 AND um.active
		ORDER BY um.created_at ASC`, matrixID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Share
	for rows.Next() {
		sh := &Share{}
		if err := rows.Scan(&sh.ID, &sh.UserID, &sh.MatrixID, &sh.Username, &sh.Email, &sh.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, sh)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CanAccessMatrix(ctx context.Context, matrixID, userID uuid.UUID) (bool, error) {
	var ok bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM matrices m
			WHERE m.id = $1 AND m.active AND (
				m.owner_id = $2 OR EXISTS (
					SELECT 1 FROM user_matrices um
					WHERE um.matrix_id = m.id AND um.user_id = $2 AND um.active)))`,
		matrixID, userID,
	).Scan(&ok)
	return ok, err
}

func (s *PostgresStore) GetStats(ctx context.Context) (*Stats, error) {
	st := &Stats{}
	err := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users WHERE active),
			(SELECT COUNT(*) FROM matrices WHERE active),
			(SELECT COUNT(*) FROM criteria WHERE active),
			(SELECT COUNT(*) FROM options WHERE active),
			(SELECT COUNT(*) FROM option_criteria WHERE active),
			(SELECT COUNT(*) FROM user_matrices WHERE active)`,
	).Scan(&st.Users, &st.Matrices, &st.Criteria, &st.Options, &st.Scores, &st.Shares)
	return st, err
}
