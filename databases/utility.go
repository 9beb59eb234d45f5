package databases

import (
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/clinic-api/models"
)

type mongoPaginate struct {
	limit int64
	page  int64
}

func newMongoPaginate(limit, page int) *mongoPaginate {
	return &mongoPaginate{
		limit: int64(limit),
		page:  int64(page),
	}
}

func (mp *mongoPaginate) getPaginatedOpts() *options.FindOptions {
	l := mp.limit
	skip := mp.page*mp.limit - mp.limit
	fOpt := options.FindOptions{Limit: &l, Skip: &skip}

	return &fOpt
}

// PaginatedOpts returns find options for a 1-based page of the given size. A
// non-positive limit disables pagination.
func PaginatedOpts(limit, page int) *options.FindOptions {
	if limit <= 0 {
		return options.Find()
	}
	if page <= 0 {
		page = 1
	}
	return newMongoPaginate(limit, page).getPaginatedOpts()
}

// noDocuments turns the driver's empty-result error into models.ErrNotFound
func noDocuments(err error, what string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.NotFoundf("%s", what)
	}
	return err
}
