package auth

import (
	"errors"
	"time"

	"github.com/rs/xid"
)

type Account struct {
	ID        ID
	Username  string
	Secret    string
	Token     string
	Presence  Presence
	CreatedAt time.Time
	BirthDate *time.Time
}

type ID string

// Presence is the online/offline indicator toggled by login and logout.
type Presence int

const (
	Offline Presence = iota
	Online
)

func (p Presence) String() string {
	if p == Online {
		return "ONLINE"
	}
	return "OFFLINE"
}

var (
	ErrExistingUsername   = errors.New("username in use")
	ErrNotFound           = errors.New("account not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// Patch carries the profile fields an edit should change. Nil fields are absent.
type Patch struct {
	Username  *string
	BirthDate *time.Time
}

// apply returns a copy of acc with the patch applied. A birth date on its own
// leaves the username alone; in every other case the username is written.
// An empty patch writes nothing.
func (p Patch) apply(acc Account) Account {
	switch {
	case p.BirthDate != nil && p.Username == nil:
		acc.BirthDate = copyDate(p.BirthDate)
	case p.Username != nil && p.BirthDate == nil:
		acc.Username = *p.Username
	case p.Username != nil && p.BirthDate != nil:
		acc.Username = *p.Username
		acc.BirthDate = copyDate(p.BirthDate)
	}
	return acc
}

// changesUsername reports whether the patch needs a uniqueness check against acc.
func (p Patch) changesUsername(acc Account) bool {
	if p.BirthDate != nil && p.Username == nil {
		return false
	}
	return p.Username != nil && *p.Username != acc.Username
}

func copyDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := *t
	return &d
}

func NewID() ID {
	return ID(xid.New().String())
}

//IsValidID checks if a given id is valid based on the xid library definition of a valid id
func IsValidID(id string) bool {
	if _, err := xid.FromString(id); err != nil {
		return false
	}
	return true
}
