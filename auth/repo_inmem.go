package auth

import (
	"context"
	"sync"
)

type accountRepository struct {
	mu       sync.RWMutex
	accounts map[ID]Account
	order    []ID
}

func NewAccountRepository() Repository {
	return &accountRepository{accounts: map[ID]Account{}}
}

func (repo *accountRepository) Save(_ context.Context, acc Account) (Account, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	for id, v := range repo.accounts {
		if v.Username == acc.Username && id != acc.ID {
			return Account{}, ErrExistingUsername
		}
	}

	if acc.ID == "" {
		acc.ID = NewID()
		repo.order = append(repo.order, acc.ID)
	} else if _, ok := repo.accounts[acc.ID]; !ok {
		return Account{}, ErrNotFound
	}

	acc.BirthDate = copyDate(acc.BirthDate)
	repo.accounts[acc.ID] = acc
	return clone(acc), nil
}

func (repo *accountRepository) SetPresence(_ context.Context, id ID, p Presence) (Account, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	acc, ok := repo.accounts[id]
	if !ok {
		return Account{}, ErrNotFound
	}
	acc.Presence = p
	repo.accounts[id] = acc
	return clone(acc), nil
}

func (repo *accountRepository) FindByID(_ context.Context, id ID) (Account, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	if u, ok := repo.accounts[id]; ok {
		return clone(u), nil
	}
	return Account{}, ErrNotFound
}

func (repo *accountRepository) FindByName(_ context.Context, username string) (Account, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	for _, v := range repo.accounts {
		if v.Username == username {
			return clone(v), nil
		}
	}
	return Account{}, ErrNotFound
}

func (repo *accountRepository) ListAll(_ context.Context) ([]Account, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	accounts := make([]Account, 0, len(repo.order))
	for _, id := range repo.order {
		accounts = append(accounts, clone(repo.accounts[id]))
	}
	return accounts, nil
}

func clone(acc Account) Account {
	acc.BirthDate = copyDate(acc.BirthDate)
	return acc
}
