// Package store persists boards. A board's pages travel as an opaque JSON
// state blob so the store stays independent of the engine types.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrNotFound  = errors.New("board not found")
	ErrDuplicate = errors.New("board already exists")
)

type Board struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	PasswordHash string          `json:"-"`
	State        json.RawMessage `json:"-"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// Protected reports whether a password is needed to obtain a token.
func (b Board) Protected() bool { return b.PasswordHash != "" }

type Store interface {
	CreateBoard(ctx context.Context, b Board) error
	GetBoard(ctx context.Context, id string) (Board, error)
	ListBoards(ctx context.Context) ([]Board, error)
	// SaveState replaces a board's name and state and bumps UpdatedAt.
	SaveState(ctx context.Context, id, name string, state json.RawMessage) error
	DeleteBoard(ctx context.Context, id string) error
}
