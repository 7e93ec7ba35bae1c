package todos

import (
	"context"

	"github.com/taibuivan/taskora/pkg/pagination"
)

type Repository interface {
	Create(context context.Context, todo *Todo) error
	FindByID(context context.Context, id int64) (*Todo, error)
	ListByOwner(context context.Context, ownerID int64, params pagination.Params) ([]*Todo, int, error)
	Update(context context.Context, todo *Todo) error
	Delete(context context.Context, id int64) error
}
