package links

import (
	"context"

	"github.com/mtm-tools/mtm-server/internal/model"
	"github.com/mtm-tools/mtm-server/internal/storage"
)

const linkColumns = "id, user_id, link, description, transition, created_at, updated_at"

// PostgresRepository implements Repository over pgx.
type PostgresRepository struct {
	db storage.DBTX
}

func NewPostgresRepository(db storage.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanLink(row interface{ Scan(dest ...any) error }) (*model.Link, error) {
	l := &model.Link{}
	err := row.Scan(&l.ID, &l.UserID, &l.Link, &l.Description, &l.Transition, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (r *PostgresRepository) Create(ctx context.Context, p CreateParams) (*model.Link, error) {
	const op = "repository.links.Create"

	query := `INSERT INTO links (user_id, link, description)
	          VALUES ($1, $2, $3)
	          RETURNING ` + linkColumns

	l, err := scanLink(r.db.QueryRow(ctx, query, p.UserID, p.Link, p.Description))
	if err != nil {
		return nil, storage.MapError(op, err)
	}
	return l, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id int64) (*model.Link, error) {
	const op = "repository.links.FindByID"

	l, err := scanLink(r.db.QueryRow(ctx, `SELECT `+linkColumns+` FROM links WHERE id = $1`, id))
	if err != nil {
		return nil, storage.MapError(op, err)
	}

	owner := &model.User{}
	err = r.db.QueryRow(ctx,
		`SELECT id, login, name, role, created_at, updated_at FROM users WHERE id = $1`,
		l.UserID,
	).Scan(&owner.ID, &owner.Login, &owner.Name, &owner.Role, &owner.CreatedAt, &owner.UpdatedAt)
	if err != nil {
		return nil, storage.MapError(op, err)
	}
	l.User = owner

	rows, err := r.db.Query(ctx,
		`SELECT c.id, c.user_id, c.name, c.uri, c.description, c.created_at, c.updated_at
		 FROM companies c
		 JOIN company_links cl ON cl.company_id = c.id
		 WHERE cl.link_id = $1
		 ORDER BY c.id`, id)
	if err != nil {
		return nil, storage.MapError(op, err)
	}
	defer rows.Close()

	for rows.Next() {
		var c model.Company
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.URI, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, storage.MapError(op, err)
		}
		l.Companies = append(l.Companies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storage.MapError(op, err)
	}

	return l, nil
}

func (r *PostgresRepository) List(ctx context.Context, q storage.ListQuery) ([]model.Link, error) {
	const op = "repository.links.List"

	tail, args := storage.BuildListFilter(q, []string{"link", "description"})

	query := `SELECT l.id, l.user_id, l.link, l.description, l.transition, l.created_at, l.updated_at,
	                 u.id, u.login, u.name, u.role, u.created_at, u.updated_at
	          FROM (SELECT ` + linkColumns + ` FROM links` + tail + `) l
	          JOIN users u ON u.id = l.user_id
	          ORDER BY l.id`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, storage.MapError(op, err)
	}
	defer rows.Close()

	links := []model.Link{}
	for rows.Next() {
		var l model.Link
		owner := &model.User{}
		err := rows.Scan(
			&l.ID, &l.UserID, &l.Link, &l.Description, &l.Transition, &l.CreatedAt, &l.UpdatedAt,
			&owner.ID, &owner.Login, &owner.Name, &owner.Role, &owner.CreatedAt, &owner.UpdatedAt,
		)
		if err != nil {
			return nil, storage.MapError(op, err)
		}
		l.User = owner
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, storage.MapError(op, err)
	}
	return links, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id int64, patch map[string]any) (int64, error) {
	const op = "repository.links.Update"

	query, args, ok := storage.BuildUpdate("links", patch, id, true)
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
	const op = "repository.links.Delete"

	tag, err := r.db.Exec(ctx, `DELETE FROM links WHERE id = $1`, id)
	if err != nil {
		return 0, storage.MapError(op, err)
	}
	return tag.RowsAffected(), nil
}
