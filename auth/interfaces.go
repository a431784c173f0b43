package auth

import (
	"context"
	"time"
)

type Service interface {
	Register(ctx context.Context, r registerAccountRequest) (Account, error)
	Authenticate(ctx context.Context, r validateCredentialsRequest) (Account, error)
	EndSession(ctx context.Context, id ID) (Account, error)
	Edit(ctx context.Context, id ID, p Patch) (Account, error)
	ListAll(ctx context.Context) ([]Account, error)
	GetByID(ctx context.Context, id ID) (Account, error)
}

// Repository persists accounts. Implementations hand out copies: mutating a
// returned Account never changes stored state until it is passed back to Save.
type Repository interface {
	FindByID(ctx context.Context, id ID) (Account, error)
	FindByName(ctx context.Context, username string) (Account, error)
	// Save inserts acc when its ID is empty, assigning one, and replaces the
	// stored record otherwise. It fails with ErrExistingUsername when another
	// account already holds acc.Username.
	Save(ctx context.Context, acc Account) (Account, error)
	// SetPresence changes only the presence flag of the account with id and
	// returns the stored record. It fails with ErrNotFound for an unknown id.
	SetPresence(ctx context.Context, id ID, p Presence) (Account, error)
	ListAll(ctx context.Context) ([]Account, error)
}

// TokenIssuer mints session tokens handed out at registration.
type TokenIssuer interface {
	Issue(issuedAt time.Time) (string, error)
}

// Locker serialises work on a single key across callers.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

type registerAccountRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type validateCredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
