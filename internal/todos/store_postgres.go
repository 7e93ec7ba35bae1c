package todos

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/taskora/internal/platform/dberr"
	"github.com/taibuivan/taskora/pkg/pagination"
)

type PostgresRepository struct {
	db *pgxpool.Pool
}

func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (repository *PostgresRepository) Create(context context.Context, todo *Todo) error {
	const query = `
		INSERT INTO todos.item (ownerid, title, description, completed, createdat, updatedat)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	now := time.Now()
	todo.CreatedAt = now
	todo.UpdatedAt = now

	err := repository.db.QueryRow(context, query,
		todo.OwnerID,
		todo.Title,
		todo.Description,
		todo.Completed,
		todo.CreatedAt,
		todo.UpdatedAt,
	).Scan(&todo.ID)

	if err != nil {
		return dberr.Wrap(err)
	}
	return nil
}

func (repository *PostgresRepository) FindByID(context context.Context, id int64) (*Todo, error) {
	const query = `
		SELECT id, ownerid, title, description, completed, createdat, updatedat
		FROM todos.item
		WHERE id = $1`

	todo := &Todo{}
	err := repository.db.QueryRow(context, query, id).Scan(
		&todo.ID,
		&todo.OwnerID,
		&todo.Title,
		&todo.Description,
		&todo.Completed,
		&todo.CreatedAt,
		&todo.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err)
	}
	return todo, nil
}

func (repository *PostgresRepository) ListByOwner(context context.Context, ownerID int64, params pagination.Params) ([]*Todo, int, error) {
	const countQuery = `SELECT COUNT(*) FROM todos.item WHERE ownerid = $1`
	const listQuery = `
		SELECT id, ownerid, title, description, completed, createdat, updatedat
		FROM todos.item
		WHERE ownerid = $1
		ORDER BY createdat DESC, id DESC
		LIMIT $2 OFFSET $3`

	var total int
	if err := repository.db.QueryRow(context, countQuery, ownerID).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err)
	}

	rows, err := repository.db.Query(context, listQuery, ownerID, params.Limit, params.Offset())
	if err != nil {
		return nil, 0, dberr.Wrap(err)
	}
	defer rows.Close()

	items := make([]*Todo, 0)
	for rows.Next() {
		todo := &Todo{}
		if err := rows.Scan(
			&todo.ID,
			&todo.OwnerID,
			&todo.Title,
			&todo.Description,
			&todo.Completed,
			&todo.CreatedAt,
			&todo.UpdatedAt,
		); err != nil {
			return nil, 0, dberr.Wrap(err)
		}
		items = append(items, todo)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err)
	}

	return items, total, nil
}

func (repository *PostgresRepository) Update(context context.Context, todo *Todo) error {
	const query = `
		UPDATE todos.item
		SET title = $2, description = $3, completed = $4, updatedat = $5
		WHERE id = $1`

	todo.UpdatedAt = time.Now()
	tag, err := repository.db.Exec(context, query,
		todo.ID,
		todo.Title,
		todo.Description,
		todo.Completed,
		todo.UpdatedAt,
	)
	if err != nil {
		return dberr.Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}

func (repository *PostgresRepository) Delete(context context.Context, id int64) error {
	tag, err := repository.db.Exec(context, `DELETE FROM todos.item WHERE id = $1`, id)
	if err != nil {
		return dberr.Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}
	return nil
}
