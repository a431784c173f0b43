package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

type service struct {
	accounts Repository
	tokens   TokenIssuer
	locks    Locker
	logger   *slog.Logger
}

func NewService(accounts Repository, tokens TokenIssuer, locks Locker, logger *slog.Logger) Service {
	if tokens == nil {
		tokens = UUIDTokenIssuer{}
	}
	if locks == nil {
		locks = NewLocalLocker()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &service{accounts: accounts, tokens: tokens, locks: locks, logger: logger}
}

func (svc *service) Register(ctx context.Context, r registerAccountRequest) (Account, error) {
	unlock, err := svc.locks.Lock(ctx, usernameKey(r.Username))
	if err != nil {
		return Account{}, err
	}
	defer unlock()

	if err := svc.verifyNotInUse(ctx, r.Username, ""); err != nil {
		return Account{}, err
	}

	now := time.Now().UTC()
	token, err := svc.tokens.Issue(now)
	if err != nil {
		return Account{}, fmt.Errorf("error issuing token: %w", err)
	}

	acc := Account{
		Username:  r.Username,
		Secret:    r.Password,
		Token:     token,
		Presence:  Offline,
		CreatedAt: now,
	}

	acc, err = svc.accounts.Save(ctx, acc)
	if err != nil {
		return Account{}, fmt.Errorf("error saving account: %w", err)
	}
	svc.logger.DebugContext(ctx, "account created", slog.String("id", string(acc.ID)), slog.String("username", acc.Username))

	// the offline record is already durable; a failure here leaves it that way
	acc, err = svc.setPresence(ctx, acc.ID, Online)
	if err != nil {
		svc.logger.ErrorContext(ctx, "account created but not marked online", slog.String("username", r.Username), slog.Any("error", err))
		return Account{}, fmt.Errorf("error marking account online: %w", err)
	}

	return acc, nil
}

func (svc *service) Authenticate(ctx context.Context, r validateCredentialsRequest) (Account, error) {
	acc, err := svc.accounts.FindByName(ctx, r.Username)
	if err != nil {
		return Account{}, err
	}

	if acc.Secret != r.Password {
		return Account{}, ErrInvalidCredentials
	}

	return svc.setPresence(ctx, acc.ID, Online)
}

func (svc *service) EndSession(ctx context.Context, id ID) (Account, error) {
	return svc.setPresence(ctx, id, Offline)
}

// setPresence writes only the presence flag, under the account's lock so it
// never interleaves with an edit of the same account.
func (svc *service) setPresence(ctx context.Context, id ID, p Presence) (Account, error) {
	unlock, err := svc.locks.Lock(ctx, accountKey(id))
	if err != nil {
		return Account{}, err
	}
	defer unlock()

	return svc.accounts.SetPresence(ctx, id, p)
}

func (svc *service) Edit(ctx context.Context, id ID, p Patch) (Account, error) {
	if p.Username != nil {
		unlock, err := svc.locks.Lock(ctx, usernameKey(*p.Username))
		if err != nil {
			return Account{}, err
		}
		defer unlock()
	}

	unlock, err := svc.locks.Lock(ctx, accountKey(id))
	if err != nil {
		return Account{}, err
	}
	defer unlock()

	acc, err := svc.accounts.FindByID(ctx, id)
	if err != nil {
		return Account{}, err
	}

	if p.changesUsername(acc) {
		if err := svc.verifyNotInUse(ctx, *p.Username, acc.ID); err != nil {
			return Account{}, err
		}
	}

	return svc.accounts.Save(ctx, p.apply(acc))
}

func (svc *service) ListAll(ctx context.Context) ([]Account, error) {
	return svc.accounts.ListAll(ctx)
}

func (svc *service) GetByID(ctx context.Context, id ID) (Account, error) {
	return svc.accounts.FindByID(ctx, id)
}

// verifyNotInUse fails when username belongs to an account other than self.
func (svc *service) verifyNotInUse(ctx context.Context, username string, self ID) error {
	acc, err := svc.accounts.FindByName(ctx, username)
	switch {
	case errors.Is(err, ErrNotFound):
		return nil
	case err != nil:
		return err
	case acc.ID != self:
		return ErrExistingUsername
	}
	return nil
}

func usernameKey(username string) string {
	return "username:" + username
}

func accountKey(id ID) string {
	return "account:" + string(id)
}
