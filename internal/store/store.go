// Package store provides the document store the portal keeps its records in.
//
// Filters are expressed in the Mongo query language (bson.M documents with
// operator keys such as $ne, $gt and $regex). The mongo implementation hands
// filters to the server verbatim; the memory implementation evaluates the
// same language in-process, so both back ends answer a structural query the
// same way.
package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"

	"userportal/api/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate key")
)

type ListOptions struct {
	Skip  int64
	Limit int64
	// SortNewestFirst orders by creation time, newest record first.
	SortNewestFirst bool
}

type UserStore interface {
	Insert(ctx context.Context, user models.User) (models.User, error)
	FindOne(ctx context.Context, filter bson.M) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
	Find(ctx context.Context, filter bson.M, opts ListOptions) ([]models.User, error)
	Count(ctx context.Context, filter bson.M) (int64, error)
	CountGroupBy(ctx context.Context, filter bson.M, field string) (map[string]int64, error)
	UpdateByID(ctx context.Context, id string, update bson.M) (models.User, error)
}

type FlagStore interface {
	Insert(ctx context.Context, flag models.Flag) (models.Flag, error)
	Find(ctx context.Context, filter bson.M) ([]models.Flag, error)
	FindByID(ctx context.Context, id string) (models.Flag, error)
}

// Pinger is implemented by back ends that can report connectivity for the
// health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}
