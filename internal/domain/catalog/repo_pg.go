package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hms/hms/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const serviceCols = `id, code, name, description, unit_price, billing_model, parameters, active, created_at, updated_at`

func (r *repoPG) scanService(row pgx.Row) (*BillableService, error) {
	var s BillableService
	err := row.Scan(&s.ID, &s.Code, &s.Name, &s.Description, &s.UnitPrice,
		&s.BillingModel, &s.Parameters, &s.Active, &s.CreatedAt, &s.UpdatedAt)
	return &s, err
}

func (r *repoPG) Create(ctx context.Context, s *BillableService) error {
	s.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO service (id, code, name, description, unit_price, billing_model, parameters, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		s.ID, s.Code, s.Name, s.Description, s.UnitPrice, s.BillingModel, s.Parameters, s.Active)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*BillableService, error) {
	return r.scanService(r.conn(ctx).QueryRow(ctx, `SELECT `+serviceCols+` FROM service WHERE id = $1`, id))
}

func (r *repoPG) GetByCode(ctx context.Context, code string) (*BillableService, error) {
	return r.scanService(r.conn(ctx).QueryRow(ctx, `SELECT `+serviceCols+` FROM service WHERE code = $1`, code))
}

func (r *repoPG) Update(ctx context.Context, s *BillableService) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE service SET code=$2, name=$3, description=$4, unit_price=$5,
			billing_model=$6, parameters=$7, active=$8, updated_at=NOW()
		WHERE id = $1`,
		s.ID, s.Code, s.Name, s.Description, s.UnitPrice, s.BillingModel, s.Parameters, s.Active)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM service WHERE id = $1`, id)
	return err
}

func (r *repoPG) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*BillableService, int, error) {
	where := ""
	if activeOnly {
		where = " WHERE active"
	}
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM service`+where).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+serviceCols+` FROM service`+where+` ORDER BY code LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*BillableService
	for rows.Next() {
		s, err := r.scanService(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, s)
	}
	return items, total, nil
}

var serviceSearchColumns = map[string]string{
	"code":  "code",
	"model": "billing_model",
}

func (r *repoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*BillableService, int, error) {
	where := ""
	var args []interface{}
	for key, value := range params {
		col, ok := serviceSearchColumns[key]
		if !ok {
			// name matches by substring, everything else exactly
			if key != "name" {
				continue
			}
			args = append(args, "%"+value+"%")
			if where == "" {
				where = fmt.Sprintf(" WHERE name ILIKE $%d", len(args))
			} else {
				where += fmt.Sprintf(" AND name ILIKE $%d", len(args))
			}
			continue
		}
		args = append(args, value)
		if where == "" {
			where = fmt.Sprintf(" WHERE %s = $%d", col, len(args))
		} else {
			where += fmt.Sprintf(" AND %s = $%d", col, len(args))
		}
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM service`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM service%s ORDER BY code LIMIT $%d OFFSET $%d`,
		serviceCols, where, len(args)+1, len(args)+2)
	rows, err := r.conn(ctx).Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*BillableService
	for rows.Next() {
		s, err := r.scanService(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, s)
	}
	return items, total, nil
}
