package companies

import (
	"context"

	"github.com/mtm-tools/mtm-server/internal/model"
	"github.com/mtm-tools/mtm-server/internal/storage"
)

const companyColumns = "id, user_id, name, uri, description, created_at, updated_at"

// PostgresRepository implements Repository over pgx.
type PostgresRepository struct {
	db storage.DBTX
}

func NewPostgresRepository(db storage.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanCompany(row interface{ Scan(dest ...any) error }) (*model.Company, error) {
	c := &model.Company{}
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.URI, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *PostgresRepository) Create(ctx context.Context, p CreateParams) (*model.Company, error) {
	const op = "repository.companies.Create"

	query := `INSERT INTO companies (user_id, name, uri, description)
	          VALUES ($1, $2, $3, $4)
	          RETURNING ` + companyColumns

	c, err := scanCompany(r.db.QueryRow(ctx, query, p.UserID, p.Name, p.URI, p.Description))
	if err != nil {
		return nil, storage.MapError(op, err)
	}
	return c, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id int64) (*model.Company, error) {
	const op = "repository.companies.FindByID"

	c, err := scanCompany(r.db.QueryRow(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = $1`, id))
	if err != nil {
		return nil, storage.MapError(op, err)
	}

	owner := &model.User{}
	err = r.db.QueryRow(ctx,
		`SELECT id, login, name, role, created_at, updated_at FROM users WHERE id = $1`,
		c.UserID,
	).Scan(&owner.ID, &owner.Login, &owner.Name, &owner.Role, &owner.CreatedAt, &owner.UpdatedAt)
	if err != nil {
		return nil, storage.MapError(op, err)
	}
	c.User = owner

	rows, err := r.db.Query(ctx,
		`SELECT l.id, l.user_id, l.link, l.description, l.transition, l.created_at, l.updated_at
		 FROM links l
		 JOIN company_links cl ON cl.link_id = l.id
		 WHERE cl.company_id = $1
		 ORDER BY l.id`, id)
	if err != nil {
		return nil, storage.MapError(op, err)
	}
	defer rows.Close()

	for rows.Next() {
		var l model.Link
		if err := rows.Scan(&l.ID, &l.UserID, &l.Link, &l.Description, &l.Transition, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, storage.MapError(op, err)
		}
		c.Links = append(c.Links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, storage.MapError(op, err)
	}

	return c, nil
}

func (r *PostgresRepository) List(ctx context.Context, q storage.ListQuery) ([]model.Company, error) {
	const op = "repository.companies.List"

	tail, args := storage.BuildListFilter(q, []string{"name", "uri", "description"})

	query := `SELECT c.id, c.user_id, c.name, c.uri, c.description, c.created_at, c.updated_at,
	                 u.id, u.login, u.name, u.role, u.created_at, u.updated_at
	          FROM (SELECT ` + companyColumns + ` FROM companies` + tail + `) c
	          JOIN users u ON u.id = c.user_id
	          ORDER BY c.id`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, storage.MapError(op, err)
	}
	defer rows.Close()

	companies := []model.Company{}
	for rows.Next() {
		var c model.Company
		owner := &model.User{}
		err := rows.Scan(
			&c.ID, &c.UserID, &c.Name, &c.URI, &c.Description, &c.CreatedAt, &c.UpdatedAt,
			&owner.ID, &owner.Login, &owner.Name, &owner.Role, &owner.CreatedAt, &owner.UpdatedAt,
		)
		if err != nil {
			return nil, storage.MapError(op, err)
		}
		c.User = owner
		companies = append(companies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storage.MapError(op, err)
	}
	if len(companies) == 0 {
		return companies, nil
	}

	// Attached links are loaded in one batch over the page's ids.
	ids := make([]int64, len(companies))
	byID := make(map[int64]*model.Company, len(companies))
	for i := range companies {
		ids[i] = companies[i].ID
		byID[companies[i].ID] = &companies[i]
	}

	linkRows, err := r.db.Query(ctx,
		`SELECT cl.company_id, l.id, l.user_id, l.link, l.description, l.transition, l.created_at, l.updated_at
		 FROM links l
		 JOIN company_links cl ON cl.link_id = l.id
		 WHERE cl.company_id = ANY($1)
		 ORDER BY l.id`, ids)
	if err != nil {
		return nil, storage.MapError(op, err)
	}
	defer linkRows.Close()

	for linkRows.Next() {
		var companyID int64
		var l model.Link
		if err := linkRows.Scan(&companyID, &l.ID, &l.UserID, &l.Link, &l.Description, &l.Transition, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, storage.MapError(op, err)
		}
		byID[companyID].Links = append(byID[companyID].Links, l)
	}
	if err := linkRows.Err(); err != nil {
		return nil, storage.MapError(op, err)
	}
	return companies, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id int64, patch map[string]any) (int64, error) {
	const op = "repository.companies.Update"

	query, args, ok := storage.BuildUpdate("companies", patch, id, true)
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
	const op = "repository.companies.Delete"

	tag, err := r.db.Exec(ctx, `DELETE FROM companies WHERE id = $1`, id)
	if err != nil {
		return 0, storage.MapError(op, err)
	}
	return tag.RowsAffected(), nil
}

func (r *PostgresRepository) Exists(ctx context.Context, id int64) (bool, error) {
	const op = "repository.companies.Exists"

	var found bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM companies WHERE id = $1)`, id).Scan(&found)
	if err != nil {
		return false, storage.MapError(op, err)
	}
	return found, nil
}

func (r *PostgresRepository) ReplaceLinks(ctx context.Context, companyID int64, linkIDs []int64) error {
	const op = "repository.companies.ReplaceLinks"

	if _, err := r.db.Exec(ctx, `DELETE FROM company_links WHERE company_id = $1`, companyID); err != nil {
		return storage.MapError(op, err)
	}
	if len(linkIDs) == 0 {
		return nil
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO company_links (company_id, link_id)
		 SELECT $1, id FROM links WHERE id = ANY($2)`,
		companyID, linkIDs)
	if err != nil {
		return storage.MapError(op, err)
	}
	return nil
}
