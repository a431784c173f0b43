package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/jimiolaniyan/identity/migrations"
)

const uniqueViolation = "23505"

type postgresAccountRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresAccountRepository(pool *pgxpool.Pool) Repository {
	return &postgresAccountRepository{pool: pool}
}

// Migrate applies the embedded schema to the database behind pool.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("error running migrations: %w", err)
	}
	return nil
}

const selectAccount = `SELECT id, username, secret, token, presence, created_at, birth_date FROM accounts`

func (r *postgresAccountRepository) FindByID(ctx context.Context, id ID) (Account, error) {
	return r.findOne(ctx, selectAccount+` WHERE id = $1`, string(id))
}

func (r *postgresAccountRepository) FindByName(ctx context.Context, username string) (Account, error) {
	return r.findOne(ctx, selectAccount+` WHERE username = $1`, username)
}

func (r *postgresAccountRepository) findOne(ctx context.Context, query string, arg string) (Account, error) {
	acc, err := scanAccount(r.pool.QueryRow(ctx, query, arg))
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, ErrNotFound
	}
	return acc, err
}

func (r *postgresAccountRepository) Save(ctx context.Context, acc Account) (Account, error) {
	if acc.ID == "" {
		acc.ID = NewID()
		_, err := r.pool.Exec(ctx,
			`INSERT INTO accounts (id, username, secret, token, presence, created_at, birth_date)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			string(acc.ID), acc.Username, acc.Secret, acc.Token, int16(acc.Presence), acc.CreatedAt, acc.BirthDate)
		if err != nil {
			return Account{}, postgresWriteError(err)
		}
		return clone(acc), nil
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE accounts SET username = $2, presence = $3, birth_date = $4 WHERE id = $1`,
		string(acc.ID), acc.Username, int16(acc.Presence), acc.BirthDate)
	if err != nil {
		return Account{}, postgresWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return Account{}, ErrNotFound
	}
	return clone(acc), nil
}

func (r *postgresAccountRepository) SetPresence(ctx context.Context, id ID, p Presence) (Account, error) {
	acc, err := scanAccount(r.pool.QueryRow(ctx,
		`UPDATE accounts SET presence = $2 WHERE id = $1
		 RETURNING id, username, secret, token, presence, created_at, birth_date`,
		string(id), int16(p)))
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, ErrNotFound
	}
	return acc, err
}

func (r *postgresAccountRepository) ListAll(ctx context.Context) ([]Account, error) {
	rows, err := r.pool.Query(ctx, selectAccount+` ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := []Account{}
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return accounts, nil
}

func scanAccount(row pgx.Row) (Account, error) {
	var (
		acc      Account
		id       string
		presence int16
		birth    *time.Time
	)
	if err := row.Scan(&id, &acc.Username, &acc.Secret, &acc.Token, &presence, &acc.CreatedAt, &birth); err != nil {
		return Account{}, err
	}
	acc.ID = ID(id)
	acc.Presence = Presence(presence)
	acc.CreatedAt = acc.CreatedAt.UTC()
	acc.BirthDate = birth
	return acc, nil
}

func postgresWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrExistingUsername
	}
	return err
}
