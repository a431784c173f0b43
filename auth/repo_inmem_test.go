package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountRepository_Save(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository()

	acc, err := repo.Save(ctx, Account{Username: "alice", Token: "t1"})
	require.NoError(t, err)
	assert.True(t, IsValidID(string(acc.ID)))

	acc.Presence = Online
	updated, err := repo.Save(ctx, acc)
	require.NoError(t, err)
	assert.Equal(t, acc, updated)

	found, err := repo.FindByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, Online, found.Presence)

	_, err = repo.Save(ctx, Account{Username: "alice"})
	assert.Equal(t, ErrExistingUsername, err)

	_, err = repo.Save(ctx, Account{ID: NewID(), Username: "bob"})
	assert.Equal(t, ErrNotFound, err)
}

func TestAccountRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository()
	birth := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

	acc, err := repo.Save(ctx, Account{Username: "alice", BirthDate: &birth})
	require.NoError(t, err)

	found, _ := repo.FindByID(ctx, acc.ID)
	found.Username = "mallory"
	*found.BirthDate = birth.AddDate(5, 0, 0)
	birth = birth.AddDate(1, 0, 0)

	again, _ := repo.FindByName(ctx, "alice")
	assert.Equal(t, acc.ID, again.ID)
	assert.Equal(t, 2000, again.BirthDate.Year())
}

func TestAccountRepository_ListAllKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository()

	var want []ID
	for _, name := range []string{"c", "a", "b", "d"} {
		acc, err := repo.Save(ctx, Account{Username: name})
		require.NoError(t, err)
		want = append(want, acc.ID)
	}

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)

	var got []ID
	for _, acc := range all {
		got = append(got, acc.ID)
	}
	assert.Equal(t, want, got)
}

func TestAccountRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewAccountRepository()

	_, err := repo.FindByID(ctx, NewID())
	assert.Equal(t, ErrNotFound, err)

	_, err = repo.FindByName(ctx, "nobody")
	assert.Equal(t, ErrNotFound, err)
}
