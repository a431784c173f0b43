package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoAccountRepository struct {
	collection *mongo.Collection
}

type dbAccount struct {
	ID        ID         `bson:"_id"`
	Username  string     `bson:"username"`
	Secret    string     `bson:"secret"`
	Token     string     `bson:"token"`
	Presence  Presence   `bson:"presence"`
	CreatedAt time.Time  `bson:"created_at"`
	BirthDate *time.Time `bson:"birth_date,omitempty"`
}

// NewMongoAccountRepository returns a Repository backed by c. It creates the
// unique username and token indexes if they do not exist yet.
func NewMongoAccountRepository(ctx context.Context, c *mongo.Collection) (Repository, error) {
	_, err := c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "token", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return nil, fmt.Errorf("error creating account indexes: %w", err)
	}
	return &mongoAccountRepository{collection: c}, nil
}

func (m *mongoAccountRepository) FindByName(ctx context.Context, username string) (Account, error) {
	return m.findAccountBy(ctx, "username", username)
}

func (m *mongoAccountRepository) FindByID(ctx context.Context, id ID) (Account, error) {
	return m.findAccountBy(ctx, "_id", string(id))
}

func (m *mongoAccountRepository) findAccountBy(ctx context.Context, key string, val string) (Account, error) {
	var a dbAccount
	err := m.collection.FindOne(ctx, bson.M{key: val}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Account{}, ErrNotFound
	}
	if err != nil {
		return Account{}, err
	}
	return accountFromDBAccount(a), nil
}

func (m *mongoAccountRepository) Save(ctx context.Context, acc Account) (Account, error) {
	if acc.ID == "" {
		acc.ID = NewID()
		_, err := m.collection.InsertOne(ctx, dbAccountFromAccount(acc))
		if err != nil {
			return Account{}, mongoWriteError(err)
		}
		return clone(acc), nil
	}

	res, err := m.collection.ReplaceOne(ctx, bson.M{"_id": acc.ID}, dbAccountFromAccount(acc))
	if err != nil {
		return Account{}, mongoWriteError(err)
	}
	if res.MatchedCount == 0 {
		return Account{}, ErrNotFound
	}
	return clone(acc), nil
}

func (m *mongoAccountRepository) SetPresence(ctx context.Context, id ID, p Presence) (Account, error) {
	var a dbAccount
	err := m.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"presence": p}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Account{}, ErrNotFound
	}
	if err != nil {
		return Account{}, err
	}
	return accountFromDBAccount(a), nil
}

// ListAll returns accounts by id. xids sort by creation time, which keeps
// insertion order.
func (m *mongoAccountRepository) ListAll(ctx context.Context) ([]Account, error) {
	cur, err := m.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	accounts := []Account{}
	for cur.Next(ctx) {
		var a dbAccount
		if err := cur.Decode(&a); err != nil {
			return nil, err
		}
		accounts = append(accounts, accountFromDBAccount(a))
	}
	return accounts, cur.Err()
}

func mongoWriteError(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return ErrExistingUsername
	}
	return err
}

func dbAccountFromAccount(a Account) dbAccount {
	return dbAccount{a.ID, a.Username, a.Secret, a.Token, a.Presence, a.CreatedAt, copyDate(a.BirthDate)}
}

func accountFromDBAccount(a dbAccount) Account {
	return Account{a.ID, a.Username, a.Secret, a.Token, a.Presence, a.CreatedAt.UTC(), copyDate(a.BirthDate)}
}
