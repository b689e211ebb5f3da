package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed schema/sqlite.sql
var sqliteSchema string

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// SQLiteStore is a single-file backend for local use and tests.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer keeps SQLite out of SQLITE_BUSY under concurrent handlers.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite pragma %q: %w", pragma, err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Fixed width so timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func now() string { return time.Now().UTC().Format(timeLayout) }

func parseTime(v string) time.Time {
	t, _ := time.Parse(timeLayout, v)
	return t
}

func sqliteErr(err error) error {
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %s", ErrConflict, err.Error())
	}
	return err
}

func rowsAffected(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) touchMatrix(ctx context.Context, matrixID uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `UPDATE matrices SET updated_at = ? WHERE id = ?`, now(), matrixID); err != nil {
		return fmt.Errorf("touch matrix: %w", err)
	}
	return nil
}

// --- Users ---

func (s *SQLiteStore) CreateUser(ctx context.Context, u *User) error {
	ts := now()
	id := uuid.New()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, created_at, updated_at, active)
		VALUES (?, ?, ?, ?, ?, 1)`,
		id, u.Username, u.Email, ts, ts)
	if err != nil {
		return sqliteErr(err)
	}
	u.ID, u.CreatedAt, u.UpdatedAt, u.Active = id, parseTime(ts), parseTime(ts), true
	return nil
}

func (s *SQLiteStore) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = ? AND active = 1`, id)
}

func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower(?) AND active = 1`, email)
}

func (s *SQLiteStore) getUser(ctx context.Context, query string, arg interface{}) (*User, error) {
	u := &User{}
	var created, updated string
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Username, &u.Email, &created, &updated, &u.Active)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u.CreatedAt, u.UpdatedAt = parseTime(created), parseTime(updated)
	return u, nil
}

// --- Matrices ---

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSQLiteMatrix(row scanner) (*Matrix, error) {
	m := &Matrix{}
	var created, updated string
	if err := row.Scan(&m.ID, &m.Name, &m.Description, &m.OwnerID, &created, &updated, &m.Active); err != nil {
		return nil, err
	}
	m.CreatedAt, m.UpdatedAt = parseTime(created), parseTime(updated)
	return m, nil
}

func (s *SQLiteStore) CreateMatrix(ctx context.Context, m *Matrix) error {
	ts := now()
	id := uuid.New()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO matrices (id, name, description, owner_id, created_at, updated_at, active)
		VALUES (?, ?, ?, ?, ?, ?, 1)`,
		id, m.Name, m.Description, m.OwnerID, ts, ts)
	if err != nil {
		return err
	}
	m.ID, m.CreatedAt, m.UpdatedAt, m.Active = id, parseTime(ts), parseTime(ts), true
	return nil
}

func (s *SQLiteStore) GetMatrix(ctx context.Context, id uuid.UUID) (*Matrix, error) {
	m, err := scanSQLiteMatrix(s.db.QueryRowContext(ctx, `
		SELECT `+matrixColumns+` FROM matrices m WHERE m.id = ? AND m.active = 1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return m, err
}

func (s *SQLiteStore) ListMatricesForUser(ctx context.Context, userID uuid.UUID) ([]*Matrix, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+matrixColumns+`
		FROM matrices m
		WHERE m.active = 1 AND (
			m.owner_id = ?1 OR EXISTS (
				SELECT 1 FROM user_matrices um
				WHERE um.matrix_id = m.id AND um.user_id = ?1 AND um.active = 1))
		ORDER BY m.updated_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Matrix
	for rows.Next() {
		m, err := scanSQLiteMatrix(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpdateMatrix(ctx context.Context, m *Matrix) error {
	ts := now()
	err := rowsAffected(s.db.ExecContext(ctx, `
		UPDATE matrices SET name = ?, description = ?, updated_at = ?
		WHERE id = ? AND active = 1`,
		m.Name, m.Description, ts, m.ID))
	if err == nil {
		m.UpdatedAt = parseTime(ts)
	}
	return err
}

func (s *SQLiteStore) DeleteMatrix(ctx context.Context, id uuid.UUID) error {
	return rowsAffected(s.db.ExecContext(ctx, `
		UPDATE matrices SET active = 0, updated_at = ?
		WHERE id = ? AND active = 1`, now(), id))
}

// --- Criteria ---

func scanSQLiteCriterion(row scanner) (*Criterion, error) {
	c := &Criterion{}
	var created, updated string
	if err := row.Scan(&c.ID, &c.MatrixID, &c.Name, &c.Description, &c.Weight, &created, &updated, &c.Active); err != nil {
		return nil, err
	}
	c.CreatedAt, c.UpdatedAt = parseTime(created), parseTime(updated)
	return c, nil
}

func (s *SQLiteStore) CreateCriterion(ctx context.Context, c *Criterion) error {
	ts := now()
	id := uuid.New()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO criteria (id, matrix_id, name, description, weight, created_at, updated_at, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, 1)`,
		id, c.MatrixID, c.Name, c.Description, c.Weight, ts, ts)
	if err != nil {
		return err
	}
	c.ID, c.CreatedAt, c.UpdatedAt, c.Active = id, parseTime(ts), parseTime(ts), true
	return s.touchMatrix(ctx, c.MatrixID)
}

func (s *SQLiteStore) GetCriterion(ctx context.Context, id uuid.UUID) (*Criterion, error) {
	c, err := scanSQLiteCriterion(s.db.QueryRowContext(ctx, `
		SELECT `+criterionColumns+` FROM criteria WHERE id = ? AND active = 1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

func (s *SQLiteStore) ListCriteria(ctx context.Context, matrixID uuid.UUID) ([]*Criterion, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+criterionColumns+`
		FROM criteria WHERE matrix_id = ? AND active = 1
		ORDER BY rowid ASC`, matrixID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Criterion
	for rows.Next() {
		c, err := scanSQLiteCriterion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpdateCriterion(ctx context.Context, c *Criterion) error {
	ts := now()
	err := rowsAffected(s.db.ExecContext(ctx, `
		UPDATE criteria SET name = ?, description = ?, weight = ?, updated_at = ?
		WHERE id = ? AND active = 1`,
		c.Name, c.Description, c.Weight, ts, c.ID))
	if err != nil {
		return err
	}
	c.UpdatedAt = parseTime(ts)
	return s.touchMatrix(ctx, c.MatrixID)
}

func (s *SQLiteStore) DeleteCriterion(ctx context.Context, id uuid.UUID) error {
	c, err := s.GetCriterion(ctx, id)
	if err != nil {
		return err
	}
	if c == nil {
		return ErrNotFound
	}
	if err := rowsAffected(s.db.ExecContext(ctx, `
		UPDATE criteria SET active = 0, updated_at = ? WHERE id = ? AND active = 1`, now(), id)); err != nil {
		return err
	}
	return s.touchMatrix(ctx, c.MatrixID)
}

// --- Options ---

func scanSQLiteOption(row scanner) (*Option, error) {
	o := &Option{}
	var created, updated string
	if err := row.Scan(&o.ID, &o.MatrixID, &o.Name, &o.Description, &created, &updated, &o.Active); err != nil {
		return nil, err
	}
	o.CreatedAt, o.UpdatedAt = parseTime(created), parseTime(updated)
	return o, nil
}

func (s *SQLiteStore) CreateOption(ctx context.Context, o *Option) error {
	return s.CreateOptionWithScores(ctx, o, nil)
}

func (s *SQLiteStore) GetOption(ctx context.Context, id uuid.UUID) (*Option, error) {
	o, err := scanSQLiteOption(s.db.QueryRowContext(ctx, `
		SELECT `+optionColumns+` FROM options WHERE id = ? AND active = 1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return o, err
}

func (s *SQLiteStore) ListOptions(ctx context.Context, matrixID uuid.UUID) ([]*Option, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+optionColumns+`
		FROM options WHERE matrix_id = ? AND active = 1
		ORDER BY rowid ASC`, matrixID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Option
	for rows.Next() {
		o, err := scanSQLiteOption(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpdateOption(ctx context.Context, o *Option) error {
	ts := now()
	err := rowsAffected(s.db.ExecContext(ctx, `
		UPDATE options SET name = ?, description = ?, updated_at = ?
		WHERE id = ? AND active = 1`,
		o.Name, o.Description, ts, o.ID))
	if err != nil {
		return err
	}
	o.UpdatedAt = parseTime(ts)
	return s.touchMatrix(ctx, o.MatrixID)
}

func (s *SQLiteStore) DeleteOption(ctx context.Context, id uuid.UUID) error {
	o, err := s.GetOption(ctx, id)
	if err != nil {
		return err
	}
	if o == nil {
		return ErrNotFound
	}
	if err := rowsAffected(s.db.ExecContext(ctx, `
		UPDATE options SET active = 0, updated_at = ? WHERE id = ? AND active = 1`, now(), id)); err != nil {
		return err
	}
	return s.touchMatrix(ctx, o.MatrixID)
}

func (s *SQLiteStore) CreateOptionWithScores(ctx context.Context, o *Option, scores []*Score) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	ts := now()
	id := uuid.New()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO options (id, matrix_id, name, description, created_at, updated_at, active)
		VALUES (?, ?, ?, ?, ?, ?, 1)`,
		id, o.MatrixID, o.Name, o.Description, ts, ts); err != nil {
		return err
	}

	for _, sc := range scores {
		scoreID := uuid.New()
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO option_criteria (id, option_id, criterion_id, score, created_at, updated_at, active)
			VALUES (?, ?, ?, ?, ?, ?, 1)`,
			scoreID, id, sc.CriterionID, sc.Score, ts, ts); err != nil {
			return fmt.Errorf("insert score: %w", err)
		}
		sc.ID, sc.OptionID, sc.CreatedAt, sc.UpdatedAt, sc.Active = scoreID, id, parseTime(ts), parseTime(ts), true
	}

	if _, err := tx.ExecContext(ctx, `UPDATE matrices SET updated_at = ? WHERE id = ?`, ts, o.MatrixID); err != nil {
		return fmt.Errorf("touch matrix: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	o.ID, o.CreatedAt, o.UpdatedAt, o.Active = id, parseTime(ts), parseTime(ts), true
	return nil
}

// --- Scores ---

func (s *SQLiteStore) UpsertScore(ctx context.Context, sc *Score) error {
	ts := now()
	var id uuid.UUID
	var created, updated string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO option_criteria (id, option_id, criterion_id, score, created_at, updated_at, active)
		VALUES (?, ?, ?, ?, ?, ?, 1)
		ON CONFLICT (option_id, criterion_id)
		DO UPDATE SET score = excluded.score, active = 1, updated_at = excluded.updated_at
		RETURNING id, created_at, updated_at`,
		uuid.New(), sc.OptionID, sc.CriterionID, sc.Score, ts, ts,
	).Scan(&id, &created, &updated)
	if err != nil {
		return err
	}
	sc.ID, sc.CreatedAt, sc.UpdatedAt, sc.Active = id, parseTime(created), parseTime(updated), true
	if _, err := s.db.ExecContext(ctx, `
		UPDATE matrices SET updated_at = ?
		WHERE id = (SELECT matrix_id FROM options WHERE id = ?)`, ts, sc.OptionID); err != nil {
		return fmt.Errorf("touch matrix: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListScores(ctx context.Context, matrixID uuid.UUID) ([]*Score, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT oc.id, oc.option_id, oc.criterion_id, oc.score, oc.created_at, oc.updated_at, oc.active
		FROM option_criteria oc
		JOIN options o ON o.id = oc.option_id
		JOIN criteria c ON c.id = oc.criterion_id
		WHERE o.matrix_id = ? AND oc.active = 1 AND o.active = 1 AND c.active = 1`, matrixID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Score
	for rows.Next() {
		sc := &Score{}
		var created, updated string
		if err := rows.Scan(&sc.ID, &sc.OptionID, &sc.CriterionID, &sc.Score, &created, &updated, &sc.Active); err != nil {
			return nil, err
		}
		sc.CreatedAt, sc.UpdatedAt = parseTime(created), parseTime(updated)
		out = append(out, sc)
	}
	return out, rows.Err()
}

// --- Sharing ---

func (s *SQLiteStore) ShareMatrix(ctx context.Context, sh *Share) error {
	ts := now()
	var id uuid.UUID
	var created string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO user_matrices (id, user_id, matrix_id, created_at, updated_at, active)
		VALUES (?, ?, ?, ?, ?, 1)
		ON CONFLICT (user_id, matrix_id)
		DO UPDATE SET active = 1, updated_at = excluded.updated_at
		RETURNING id, created_at`,
		uuid.New(), sh.UserID, sh.MatrixID, ts, ts,
	).Scan(&id, &created)
	if err != nil {
		return err
	}
	sh.ID, sh.CreatedAt = id, parseTime(created)
	return nil
}

func (s *SQLiteStore) UnshareMatrix(ctx context.Context, matrixID, userID uuid.UUID) error {
	return rowsAffected(s.db.ExecContext(ctx, `
		DELETE FROM user_matrices WHERE matrix_id = ? AND user_id = ?`, matrixID, userID))
}

func (s *SQLiteStore) ListShares(ctx context.Context, matrixID uuid.UUID) ([]*Share, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT um.id, um.user_id, um.matrix_id, u.username, u.email, um.created_at
		FROM user_matrices um
		JOIN users u ON u.id = um.user_id
		WHERE um.matrix_id = ? AND um.active = 1
		ORDER BY um.rowid ASC`, matrixID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Share
	for rows.Next() {
		sh := &Share{}
		var created string
		if err := rows.Scan(&sh.ID, &sh.UserID, &sh.MatrixID, &sh.Username, &sh.Email, &created); err != nil {
			return nil, err
		}
		sh.CreatedAt = parseTime(created)
		out = append(out, sh)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CanAccessMatrix(ctx context.Context, matrixID, userID uuid.UUID) (bool, error) {
	var ok bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM matrices m
			WHERE m.id = ?1 AND m.active = 1 AND (
				m.owner_id = ?2 OR EXISTS (
					SELECT 1 FROM user_matrices um
					WHERE um.matrix_id = m.id AND um.user_id = ?2 AND um.active = 1)))`,
		matrixID, userID,
	).Scan(&ok)
	return ok, err
}

func (s *SQLiteStore) GetStats(ctx context.Context) (*Stats, error) {
	st := &Stats{}
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM users WHERE active = 1),
			(SELECT COUNT(*) FROM matrices WHERE active = 1),
			(SELECT COUNT(*) FROM criteria WHERE active = 1),
			(SELECT COUNT(*) FROM options WHERE active = 1),
			(SELECT COUNT(*) FROM option_criteria WHERE active = 1),
			(SELECT COUNT(*) FROM user_matrices WHERE active = 1)`,
	).Scan(&st.Users, &st.Matrices, &st.Criteria, &st.Options, &st.Scores, &st.Shares)
	return st, err
}
