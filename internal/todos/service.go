package todos

import (
	"context"

	"github.com/taibuivan/taskora/internal/platform/apperr"
	"github.com/taibuivan/taskora/internal/platform/dberr"
	"github.com/taibuivan/taskora/pkg/pagination"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type CreateInput struct {
	Title       string
	Description string
}

func (service *Service) Create(context context.Context, ownerID int64, input CreateInput) (*Todo, error) {
	todo := &Todo{
		OwnerID:     ownerID,
		Title:       input.Title,
		Description: input.Description,
	}
	if err := service.repo.Create(context, todo); err != nil {
		return nil, err
	}
	return todo, nil
}

func (service *Service) List(context context.Context, ownerID int64, params pagination.Params) ([]*Todo, pagination.Meta, error) {
	items, total, err := service.repo.ListByOwner(context, ownerID, params)
	if err != nil {
		return nil, pagination.Meta{}, err
	}
	return items, pagination.NewMeta(params.Page, params.Limit, total), nil
}

// Get returns the todo only when it belongs to the caller. A foreign todo is
// reported as NotFound, not Forbidden, so its existence stays hidden.
func (service *Service) Get(context context.Context, ownerID, id int64) (*Todo, error) {
	todo, err := service.repo.FindByID(context, id)
	if err != nil {
		return nil, err
	}
	if todo.OwnerID != ownerID {
		return nil, apperr.NotFound("Todo")
	}
	return todo, nil
}

func (service *Service) Update(context context.Context, ownerID, id int64, patch Patch) (*Todo, error) {
	todo, err := service.Get(context, ownerID, id)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		todo.Title = *patch.Title
	}
	if patch.Description != nil {
		todo.Description = *patch.Description
	}
	if patch.Completed != nil {
		todo.Completed = *patch.Completed
	}

	if err := service.repo.Update(context, todo); err != nil {
		if dberr.IsNotFound(err) {
			return nil, apperr.NotFound("Todo")
		}
		return nil, err
	}
	return todo, nil
}

func (service *Service) Delete(context context.Context, ownerID, id int64) error {
	if _, err := service.Get(context, ownerID, id); err != nil {
		return err
	}
	return service.repo.Delete(context, id)
}
