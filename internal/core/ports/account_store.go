package ports

import (
	"context"

	"github.com/99minutos/account-service/internal/core/domain"
)

// AccountStore defines durable CRUD over user records.
//
// Insert and Update return domain.ErrInvalidRecord for malformed records and
// domain.ErrEmailInUse / domain.ErrUsernameInUse when a uniqueness constraint
// rejects the write. Any other error is an infrastructure failure.
type AccountStore interface {
	Insert(ctx context.Context, user *domain.User) error
	// FindBy returns every record whose field equals value; an empty slice
	// means no match.
	FindBy(ctx context.Context, field domain.LookupField, value string) ([]*domain.User, error)
	// Update replaces the fields of the record with the given id. Unknown ids
	// are a no-op.
	Update(ctx context.Context, id string, user *domain.User) error
	// DeleteByID removes the record with the given id. Unknown ids are a no-op.
	DeleteByID(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}
