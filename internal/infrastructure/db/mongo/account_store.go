package mongo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/99minutos/account-service/internal/core/domain"
	"github.com/99minutos/account-service/internal/core/ports"
)

const (
	usersCollection = "users"
	emailIndex      = "email_1"
	usernameIndex   = "username_1"
)

var _ ports.AccountStore = (*AccountStore)(nil)

type AccountStore struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func NewAccountStore(db *mongo.Database, timeout time.Duration) *AccountStore {
	return newAccountStore(db.Collection(usersCollection), timeout)
}

func newAccountStore(coll *mongo.Collection, timeout time.Duration) *AccountStore {
	return &AccountStore{coll: coll, timeout: timeout}
}

type mongoUser struct {
	ID           string `bson:"_id"`
	Name         string `bson:"name"`
	Username     string `bson:"username"`
	Email        string `bson:"email"`
	PasswordHash string `bson:"password_hash"`
}

func toDocument(u *domain.User) mongoUser {
	return mongoUser{
		ID:           u.ID,
		Name:         u.Name,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
	}
}

func (m mongoUser) toDomain() *domain.User {
	return &domain.User{
		ID:           m.ID,
		Name:         m.Name,
		Username:     m.Username,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
	}
}

// keys maps lookup fields to document keys.
var keys = map[domain.LookupField]string{
	domain.FieldID:       "_id",
	domain.FieldEmail:    "email",
	domain.FieldUsername: "username",
}

func (s *AccountStore) Insert(ctx context.Context, user *domain.User) error {
	if err := user.Validate(); err != nil {
		return err
	}
	if user.ID == "" {
		return fmt.Errorf("%w: id is required", domain.ErrInvalidRecord)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := s.coll.InsertOne(ctx, toDocument(user)); err != nil {
		return mapWriteError("insert user", err)
	}
	return nil
}

func (s *AccountStore) FindBy(ctx context.Context, field domain.LookupField, value string) ([]*domain.User, error) {
	key, ok := keys[field]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidField, field)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	cur, err := s.coll.Find(ctx, bson.M{key: value})
	if err != nil {
		return nil, fmt.Errorf("find users by %s: %w", field, err)
	}
	defer cur.Close(ctx)

	var docs []mongoUser
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}

	users := make([]*domain.User, 0, len(docs))
	for _, d := range docs {
		users = append(users, d.toDomain())
	}
	return users, nil
}

func (s *AccountStore) Update(ctx context.Context, id string, user *domain.User) error {
	if err := user.Validate(); err != nil {
		return err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"name":          user.Name,
		"username":      user.Username,
		"email":         user.Email,
		"password_hash": user.PasswordHash,
	}}
	if _, err := s.coll.UpdateOne(ctx, bson.M{"_id": id}, update); err != nil {
		return mapWriteError("update user", err)
	}
	return nil
}

func (s *AccountStore) DeleteByID(ctx context.Context, id string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

func (s *AccountStore) Ping(ctx context.Context) error {
	return s.coll.Database().Client().Ping(ctx, nil)
}

func (s *AccountStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// mapWriteError resolves duplicate key errors to the in-use error of the
// offending unique index.
func mapWriteError(op string, err error) error {
	if mongo.IsDuplicateKeyError(err) {
		msg := err.Error()
		switch {
		case strings.Contains(msg, emailIndex):
			return domain.ErrEmailInUse
		case strings.Contains(msg, usernameIndex):
			return domain.ErrUsernameInUse
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
