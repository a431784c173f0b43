package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRepositoryContract exercises the behaviour every Repository must share.
func testRepositoryContract(t *testing.T, repo Repository) {
	ctx := context.Background()
	suffix := string(NewID())
	birth := time.Date(1999, 12, 31, 0, 0, 0, 0, time.UTC)
	created := time.Now().UTC().Truncate(time.Millisecond)

	acc, err := repo.Save(ctx, Account{
		Username:  "alice-" + suffix,
		Secret:    "pw",
		Token:     "token-a-" + suffix,
		CreatedAt: created,
	})
	require.NoError(t, err)
	require.True(t, IsValidID(string(acc.ID)))

	acc.Presence = Online
	acc.BirthDate = &birth
	_, err = repo.Save(ctx, acc)
	require.NoError(t, err)

	found, err := repo.FindByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, acc.Username, found.Username)
	assert.Equal(t, "pw", found.Secret)
	assert.Equal(t, acc.Token, found.Token)
	assert.Equal(t, Online, found.Presence)
	assert.True(t, created.Equal(found.CreatedAt))
	require.NotNil(t, found.BirthDate)
	assert.Equal(t, "1999-12-31", found.BirthDate.Format(dateLayout))

	byName, err := repo.FindByName(ctx, acc.Username)
	require.NoError(t, err)
	assert.Equal(t, acc.ID, byName.ID)

	_, err = repo.Save(ctx, Account{Username: acc.Username, Token: "token-b-" + suffix, CreatedAt: created})
	assert.Equal(t, ErrExistingUsername, err)

	_, err = repo.Save(ctx, Account{ID: NewID(), Username: "ghost-" + suffix, Token: "token-c-" + suffix, CreatedAt: created})
	assert.Equal(t, ErrNotFound, err)

	offline, err := repo.SetPresence(ctx, acc.ID, Offline)
	require.NoError(t, err)
	assert.Equal(t, Offline, offline.Presence)
	assert.Equal(t, acc.Username, offline.Username)
	require.NotNil(t, offline.BirthDate)
	assert.Equal(t, "1999-12-31", offline.BirthDate.Format(dateLayout))

	_, err = repo.SetPresence(ctx, NewID(), Online)
	assert.Equal(t, ErrNotFound, err)

	second, err := repo.Save(ctx, Account{Username: "bob-" + suffix, Token: "token-d-" + suffix, CreatedAt: created})
	require.NoError(t, err)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	pos := map[ID]int{}
	for i, a := range all {
		pos[a.ID] = i
	}
	assert.Less(t, pos[acc.ID], pos[second.ID])

	dated := birth
	third, err := repo.Save(ctx, Account{Username: "carol-" + suffix, Token: "token-e-" + suffix, CreatedAt: created, BirthDate: &dated})
	require.NoError(t, err)
	assert.NotSame(t, &dated, third.BirthDate)
	third.BirthDate = &dated
	updated, err := repo.Save(ctx, third)
	require.NoError(t, err)
	assert.NotSame(t, &dated, updated.BirthDate)

	_, err = repo.FindByName(ctx, "nobody-"+suffix)
	assert.Equal(t, ErrNotFound, err)
}

func TestAccountRepository_Contract(t *testing.T) {
	testRepositoryContract(t, NewAccountRepository())
}
