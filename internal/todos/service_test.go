package todos

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/taskora/internal/platform/apperr"
	"github.com/taibuivan/taskora/internal/platform/dberr"
	"github.com/taibuivan/taskora/pkg/pagination"
)

type memoryRepo struct {
	nextID int64
	items  map[int64]*Todo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{nextID: 1, items: map[int64]*Todo{}}
}

func (repo *memoryRepo) Create(_ context.Context, todo *Todo) error {
	todo.ID = repo.nextID
	repo.nextID++
	clone := *todo
	repo.items[todo.ID] = &clone
	return nil
}

func (repo *memoryRepo) FindByID(_ context.Context, id int64) (*Todo, error) {
	todo, ok := repo.items[id]
	if !ok {
		return nil, dberr.ErrNotFound
	}
	clone := *todo
	return &clone, nil
}

func (repo *memoryRepo) ListByOwner(_ context.Context, ownerID int64, params pagination.Params) ([]*Todo, int, error) {
	var owned []*Todo
	for _, todo := range repo.items {
		if todo.OwnerID == ownerID {
			clone := *todo
			owned = append(owned, &clone)
		}
	}
	total := len(owned)
	offset := params.Offset()
	if offset > total {
		return nil, total, nil
	}
	end := offset + params.Limit
	if end > total {
		end = total
	}
	return owned[offset:end], total, nil
}

func (repo *memoryRepo) Update(_ context.Context, todo *Todo) error {
	if _, ok := repo.items[todo.ID]; !ok {
		return dberr.ErrNotFound
	}
	clone := *todo
	repo.items[todo.ID] = &clone
	return nil
}

func (repo *memoryRepo) Delete(_ context.Context, id int64) error {
	if _, ok := repo.items[id]; !ok {
		return dberr.ErrNotFound
	}
	delete(repo.items, id)
	return nil
}

func TestService_CreateAndGet(t *testing.T) {
	service := NewService(newMemoryRepo())

	todo, err := service.Create(context.Background(), 1, CreateInput{Title: "Buy milk", Description: "2L"})
	require.NoError(t, err)
	assert.NotZero(t, todo.ID)
	assert.False(t, todo.Completed)

	found, err := service.Get(context.Background(), 1, todo.ID)
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", found.Title)
}

func TestService_OwnershipIsolation(t *testing.T) {
	service := NewService(newMemoryRepo())

	todo, err := service.Create(context.Background(), 1, CreateInput{Title: "Private"})
	require.NoError(t, err)

	// Another owner sees NotFound, never Forbidden
	_, err = service.Get(context.Background(), 2, todo.ID)
	require.Error(t, err)
	assert.Equal(t, 404, apperr.As(err).HTTPStatus)

	_, err = service.Update(context.Background(), 2, todo.ID, Patch{})
	require.Error(t, err)
	assert.Equal(t, 404, apperr.As(err).HTTPStatus)

	err = service.Delete(context.Background(), 2, todo.ID)
	require.Error(t, err)
	assert.Equal(t, 404, apperr.As(err).HTTPStatus)
}

func TestService_Update(t *testing.T) {
	service := NewService(newMemoryRepo())

	todo, err := service.Create(context.Background(), 1, CreateInput{Title: "Draft", Description: "v1"})
	require.NoError(t, err)

	completed := true
	title := "Final"
	updated, err := service.Update(context.Background(), 1, todo.ID, Patch{Title: &title, Completed: &completed})
	require.NoError(t, err)
	assert.Equal(t, "Final", updated.Title)
	assert.Equal(t, "v1", updated.Description)
	assert.True(t, updated.Completed)

	// Empty patch changes nothing
	same, err := service.Update(context.Background(), 1, todo.ID, Patch{})
	require.NoError(t, err)
	assert.Equal(t, *updated, *same)
}

func TestService_List(t *testing.T) {
	service := NewService(newMemoryRepo())

	for i := 0; i < 3; i++ {
		_, err := service.Create(context.Background(), 1, CreateInput{Title: "item"})
		require.NoError(t, err)
	}
	_, err := service.Create(context.Background(), 2, CreateInput{Title: "foreign"})
	require.NoError(t, err)

	items, meta, err := service.List(context.Background(), 1, pagination.Params{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, 3, meta.Total)
	assert.Equal(t, 2, meta.TotalPages)
}

func TestService_Delete(t *testing.T) {
	service := NewService(newMemoryRepo())

	todo, err := service.Create(context.Background(), 1, CreateInput{Title: "Gone"})
	require.NoError(t, err)

	require.NoError(t, service.Delete(context.Background(), 1, todo.ID))

	_, err = service.Get(context.Background(), 1, todo.ID)
	require.Error(t, err)
	assert.True(t, dberr.IsNotFound(err) || apperr.As(err).HTTPStatus == 404)
}
