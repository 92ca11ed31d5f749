package admission

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

const admissionCols = `id, patient_id, ward, bed, daily_rate, admitted_at, discharged_at, status, note, created_at, updated_at`

func (r *repoPG) scanAdmission(row pgx.Row) (*Admission, error) {
	var a Admission
	err := row.Scan(&a.ID, &a.PatientID, &a.Ward, &a.Bed, &a.DailyRate,
		&a.AdmittedAt, &a.DischargedAt, &a.Status, &a.Note, &a.CreatedAt, &a.UpdatedAt)
	return &a, err
}

func (r *repoPG) Create(ctx context.Context, a *Admission) error {
	a.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO admission (id, patient_id, ward, bed, daily_rate, admitted_at, discharged_at, status, note)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		a.ID, a.PatientID, a.Ward, a.Bed, a.DailyRate, a.AdmittedAt, a.DischargedAt, a.Status, a.Note)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Admission, error) {
	return r.scanAdmission(r.conn(ctx).QueryRow(ctx, `SELECT `+admissionCols+` FROM admission WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, a *Admission) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE admission SET ward=$2, bed=$3, daily_rate=$4, admitted_at=$5,
			discharged_at=$6, status=$7, note=$8, updated_at=NOW()
		WHERE id = $1`,
		a.ID, a.Ward, a.Bed, a.DailyRate, a.AdmittedAt, a.DischargedAt, a.Status, a.Note)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM admission WHERE id = $1`, id)
	return err
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Admission, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM admission WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+admissionCols+` FROM admission WHERE patient_id = $1 ORDER BY admitted_at DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Admission
	for rows.Next() {
		a, err := r.scanAdmission(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, nil
}

var admissionSearchColumns = map[string]string{
	"patient": "patient_id",
	"ward":    "ward",
	"status":  "status",
}

func (r *repoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Admission, int, error) {
	where := ""
	var args []interface{}
	for key, value := range params {
		col, ok := admissionSearchColumns[key]
		if !ok {
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
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM admission`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM admission%s ORDER BY admitted_at DESC LIMIT $%d OFFSET $%d`,
		admissionCols, where, len(args)+1, len(args)+2)
	rows, err := r.conn(ctx).Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Admission
	for rows.Next() {
		a, err := r.scanAdmission(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, nil
}
