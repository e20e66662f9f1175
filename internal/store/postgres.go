package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS boards (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	password_hash TEXT NOT NULL DEFAULT '',
	state         JSONB,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS boards_updated_at_idx ON boards (updated_at DESC);
`

// PostgresStore keeps boards in a single table, one JSONB state per board.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the boards table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateBoard(ctx context.Context, b Board) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO boards (id, name, password_hash, state) VALUES ($1, $2, $3, $4)`,
		b.ID, b.Name, b.PasswordHash, nullableJSON(b.State),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create board: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetBoard(ctx context.Context, id string) (Board, error) {
	var b Board
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, password_hash, state, created_at, updated_at FROM boards WHERE id = $1`,
		id,
	).Scan(&b.ID, &b.Name, &b.PasswordHash, &b.State, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Board{}, ErrNotFound
		}
		return Board{}, fmt.Errorf("get board: %w", err)
	}
	return b, nil
}

func (s *PostgresStore) ListBoards(ctx context.Context) ([]Board, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, password_hash, created_at, updated_at FROM boards ORDER BY updated_at DESC, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}

	boards, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Board, error) {
		var b Board
		err := row.Scan(&b.ID, &b.Name, &b.PasswordHash, &b.CreatedAt, &b.UpdatedAt)
		return b, err
	})
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	return boards, nil
}

func (s *PostgresStore) SaveState(ctx context.Context, id, name string, state json.RawMessage) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE boards SET name = $2, state = $3, updated_at = now() WHERE id = $1`,
		id, name, nullableJSON(state),
	)
	if err != nil {
		return fmt.Errorf("save board state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteBoard(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM boards WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete board: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// nullableJSON maps an empty state to SQL NULL instead of invalid JSONB.
func nullableJSON(state json.RawMessage) any {
	if len(state) == 0 {
		return nil
	}
	return []byte(state)
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}
