package mails

import (
	"context"

	"github.com/mtm-tools/mtm-server/internal/model"
	"github.com/mtm-tools/mtm-server/internal/storage"
)

const mailColumns = "id, user_id, mail, code, source, geo, name, sex, age, status"

// PostgresRepository implements Repository over pgx.
type PostgresRepository struct {
	db storage.DBTX
}

func NewPostgresRepository(db storage.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanMail(row interface{ Scan(dest ...any) error }) (*model.Mail, error) {
	m := &model.Mail{}
	err := row.Scan(&m.ID, &m.UserID, &m.Mail, &m.Code, &m.Source, &m.Geo, &m.Name, &m.Sex, &m.Age, &m.Status)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *PostgresRepository) Create(ctx context.Context, p CreateParams) (*model.Mail, error) {
	const op = "repository.mails.Create"

	query := `INSERT INTO mails (user_id, mail, code, source, geo, name, sex, age, status)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING ` + mailColumns

	m, err := scanMail(r.db.QueryRow(ctx, query,
		p.UserID, p.Mail, p.Code, p.Source, p.Geo, p.Name, p.Sex, p.Age, p.Status))
	if err != nil {
		return nil, storage.MapError(op, err)
	}
	return m, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id int64) (*model.Mail, error) {
	const op = "repository.mails.FindByID"

	m, err := scanMail(r.db.QueryRow(ctx, `SELECT `+mailColumns+` FROM mails WHERE id = $1`, id))
	if err != nil {
		return nil, storage.MapError(op, err)
	}

	owner := &model.User{}
	err = r.db.QueryRow(ctx,
		`SELECT id, login, name, role, created_at, updated_at FROM users WHERE id = $1`,
		m.UserID,
	).Scan(&owner.ID, &owner.Login, &owner.Name, &owner.Role, &owner.CreatedAt, &owner.UpdatedAt)
	if err != nil {
		return nil, storage.MapError(op, err)
	}
	m.User = owner

	return m, nil
}

func (r *PostgresRepository) List(ctx context.Context, q storage.ListQuery) ([]model.Mail, error) {
	const op = "repository.mails.List"

	tail, args := storage.BuildListFilter(q, []string{"mail", "code", "source", "geo", "name", "sex"})

	query := `SELECT m.id, m.user_id, m.mail, m.code, m.source, m.geo, m.name, m.sex, m.age, m.status,
	                 u.id, u.login, u.name, u.role, u.created_at, u.updated_at
	          FROM (SELECT ` + mailColumns + ` FROM mails` + tail + `) m
	          JOIN users u ON u.id = m.user_id
	          ORDER BY m.id`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, storage.MapError(op, err)
	}
	defer rows.Close()

	mailsOut := []model.Mail{}
	for rows.Next() {
		var m model.Mail
		owner := &model.User{}
		err := rows.Scan(
			&m.ID, &m.UserID, &m.Mail, &m.Code, &m.Source, &m.Geo, &m.Name, &m.Sex, &m.Age, &m.Status,
			&owner.ID, &owner.Login, &owner.Name, &owner.Role, &owner.CreatedAt, &owner.UpdatedAt,
		)
		if err != nil {
			return nil, storage.MapError(op, err)
		}
		m.User = owner
		mailsOut = append(mailsOut, m)
	}
	if err := rows.Err(); err != nil {
		return nil, storage.MapError(op, err)
	}
	return mailsOut, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id int64, patch map[string]any) (int64, error) {
	const op = "repository.mails.Update"

	query, args, ok := storage.BuildUpdate("mails", patch, id, false)
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
	const op = "repository.mails.Delete"

	tag, err := r.db.Exec(ctx, `DELETE FROM mails WHERE id = $1`, id)
	if err != nil {
		return 0, storage.MapError(op, err)
	}
	return tag.RowsAffected(), nil
}
