// internal/repo/repo.go
//
// Puzzle Repository contract.
// Responsibilities:
//   - Read access to puzzle records keyed by day and to the shared version counter.
//   - Version-checked writes: Update compares the caller's expected version and
//     bumps it atomically with the writes, inside one transaction.
//   - Admin account storage used by internal/auth.
//
// Implementations: in-memory (memory.go) and SQLite (sqlite.go).
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/orderlygame/orderly/internal/puzzle"
)

// AnyVersion skips the version comparison in Update. Used by bulk uploads.
const AnyVersion int64 = -1

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrUsernameTaken   = errors.New("username taken")
)

// Reader is the read side shared by Repository and Tx.
type Reader interface {
	// List returns every record ordered by day.
	List(ctx context.Context) ([]puzzle.Record, error)
	// Get returns the record for day or puzzle.ErrNotFound.
	Get(ctx context.Context, day int) (puzzle.Record, error)
}

// Tx is the write view handed to Update callbacks. Nothing is visible to other
// callers until the callback returns nil.
type Tx interface {
	Reader
	// Put inserts or replaces the record stored under r.Day.
	Put(ctx context.Context, r puzzle.Record) error
	// Delete removes day; deleting a missing day is not an error.
	Delete(ctx context.Context, day int) error
	// DeleteAll removes every record.
	DeleteAll(ctx context.Context) error
}

// Repository stores puzzle records and the optimistic concurrency version.
type Repository interface {
	Reader
	// Version returns the current value of the version counter.
	Version(ctx context.Context) (int64, error)
	// Update runs fn in a transaction when the stored version equals expected
	// (or expected is AnyVersion), then increments the version. A mismatch
	// returns puzzle.ErrConcurrentEdit without calling fn. The new version is
	// returned on success.
	Update(ctx context.Context, expected int64, fn func(Tx) error) (int64, error)
	Close() error
}

// Account is an admin user allowed to author puzzles.
type Account struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Accounts stores admin accounts. Usernames compare case-insensitively.
type Accounts interface {
	CreateAccount(ctx context.Context, a Account) error
	AccountByUsername(ctx context.Context, username string) (Account, error)
	AccountByID(ctx context.Context, id string) (Account, error)
}

// Store is what the server wires: puzzles plus accounts.
type Store interface {
	Repository
	Accounts
}
