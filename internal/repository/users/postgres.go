package users

import (
	"context"

	"github.com/mtm-tools/mtm-server/internal/model"
	"github.com/mtm-tools/mtm-server/internal/storage"
)

const userColumns = "id, login, password, name, role, created_at, updated_at"

// PostgresRepository implements Repository over pgx.
type PostgresRepository struct {
	db storage.DBTX
}

func NewPostgresRepository(db storage.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) scanUser(row interface{ Scan(dest ...any) error }) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(&u.ID, &u.Login, &u.Password, &u.Name, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *PostgresRepository) Create(ctx context.Context, login, passwordHash string) (*model.User, error) {
	const op = "repository.users.Create"

	query := `INSERT INTO users (login, password)
	          VALUES ($1, $2)
	          RETURNING ` + userColumns

	u, err := r.scanUser(r.db.QueryRow(ctx, query, login, passwordHash))
	if err != nil {
		return nil, storage.MapError(op, err)
	}
	return u, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id int64) (*model.User, error) {
	const op = "repository.users.Get"

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := r.scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, storage.MapError(op, err)
	}
	return u, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	const op = "repository.users.FindByID"

	u, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	linkRows, err := r.db.Query(ctx,
		`SELECT id, user_id, link, description, transition, created_at, updated_at
		 FROM links WHERE user_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, storage.MapError(op, err)
	}
	defer linkRows.Close()

	for linkRows.Next() {
		var l model.Link
		if err := linkRows.Scan(&l.ID, &l.UserID, &l.Link, &l.Description, &l.Transition, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, storage.MapError(op, err)
		}
		u.Links = append(u.Links, l)
	}
	if err := linkRows.Err(); err != nil {
		return nil, storage.MapError(op, err)
	}

	companyRows, err := r.db.Query(ctx,
		`SELECT id, user_id, name, uri, description, created_at, updated_at
		 FROM companies WHERE user_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, storage.MapError(op, err)
	}
	defer companyRows.Close()

	for companyRows.Next() {
		var c model.Company
		if err := companyRows.Scan(&c.ID, &c.UserID, &c.Name, &c.URI, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, storage.MapError(op, err)
		}
		u.Companies = append(u.Companies, c)
	}
	if err := companyRows.Err(); err != nil {
		return nil, storage.MapError(op, err)
	}

	return u, nil
}

func (r *PostgresRepository) FindByLogin(ctx context.Context, login string) (*model.User, error) {
	const op = "repository.users.FindByLogin"

	query := `SELECT ` + userColumns + ` FROM users WHERE login = $1`

	u, err := r.scanUser(r.db.QueryRow(ctx, query, login))
	if err != nil {
		return nil, storage.MapError(op, err)
	}
	return u, nil
}

func (r *PostgresRepository) List(ctx context.Context, q storage.ListQuery) ([]model.User, error) {
	const op = "repository.users.List"

	tail, args := storage.BuildListFilter(q, []string{"login", "name", "role"})

	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users`+tail, args...)
	if err != nil {
		return nil, storage.MapError(op, err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Login, &u.Password, &u.Name, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, storage.MapError(op, err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, storage.MapError(op, err)
	}
	return users, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id int64, patch map[string]any) (int64, error) {
	const op = "repository.users.Update"

	query, args, ok := storage.BuildUpdate("users", patch, id, true)
	if !ok {
		return 0, nil
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, storage.MapError(op, err)
	}
	return tag.RowsAffected(), nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id int64) (int64, error) {
	const op = "repository.users.Delete"

	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return 0, storage.MapError(op, err)
	}
	return tag.RowsAffected(), nil
}
