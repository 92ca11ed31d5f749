package billing

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

type billRepoPG struct{ pool *pgxpool.Pool }

func NewBillRepoPG(pool *pgxpool.Pool) BillRepository { return &billRepoPG{pool: pool} }

func (r *billRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const billCols = `id, patient_id, admission_id, status, total, currency, note, created_at, updated_at`

func (r *billRepoPG) scanBill(row pgx.Row) (*Bill, error) {
	var b Bill
	err := row.Scan(&b.ID, &b.PatientID, &b.AdmissionID, &b.Status, &b.Total,
		&b.Currency, &b.Note, &b.CreatedAt, &b.UpdatedAt)
	return &b, err
}

// inTx runs fn inside the transaction already on the context when there is
// one, otherwise in a fresh transaction on the pool.
func (r *billRepoPG) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if db.TxFromContext(ctx) != nil {
		return fn(ctx)
	}
	return db.RunInTx(ctx, r.pool, fn)
}

func (r *billRepoPG) create(ctx context.Context, b *Bill) error {
	b.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO bill (id, patient_id, admission_id, status, total, currency, note)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		b.ID, b.PatientID, b.AdmissionID, b.Status, b.Total, b.Currency, b.Note)
	return err
}

// CreateWithItems persists the bill and its items in one transaction so a
// failed item insert never leaves a bill row whose total disagrees with
// the items actually stored.
func (r *billRepoPG) CreateWithItems(ctx context.Context, b *Bill, items []*BillItem) error {
	return r.inTx(ctx, func(ctx context.Context) error {
		if err := r.create(ctx, b); err != nil {
			return err
		}
		for _, it := range items {
			it.BillID = b.ID
			if err := r.addItem(ctx, it); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *billRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Bill, error) {
	return r.scanBill(r.conn(ctx).QueryRow(ctx, `SELECT `+billCols+` FROM bill WHERE id = $1`, id))
}

func (r *billRepoPG) Update(ctx context.Context, b *Bill) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE bill SET status=$2, total=$3, currency=$4, note=$5, updated_at=NOW()
		WHERE id = $1`,
		b.ID, b.Status, b.Total, b.Currency, b.Note)
	return err
}

func (r *billRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	return r.inTx(ctx, func(ctx context.Context) error {
		if _, err := r.conn(ctx).Exec(ctx, `DELETE FROM bill_item WHERE bill_id = $1`, id); err != nil {
			return err
		}
		_, err := r.conn(ctx).Exec(ctx, `DELETE FROM bill WHERE id = $1`, id)
		return err
	})
}

func (r *billRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Bill, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM bill WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+billCols+` FROM bill WHERE patient_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Bill
	for rows.Next() {
		b, err := r.scanBill(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, b)
	}
	return items, total, nil
}

// billSearchColumns whitelists the search params bills can be filtered by.
var billSearchColumns = map[string]string{
	"patient":   "patient_id",
	"admission": "admission_id",
	"status":    "status",
}

func (r *billRepoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Bill, int, error) {
	where := ""
	var args []interface{}
	for key, value := range params {
		col, ok := billSearchColumns[key]
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
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM bill`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM bill%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		billCols, where, len(args)+1, len(args)+2)
	rows, err := r.conn(ctx).Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Bill
	for rows.Next() {
		b, err := r.scanBill(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, b)
	}
	return items, total, nil
}

func (r *billRepoPG) addItem(ctx context.Context, item *BillItem) error {
	item.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO bill_item (id, bill_id, sequence, service_id, service_name,
			billing_model, unit_price, quantity, subtotal, description)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		item.ID, item.BillID, item.Sequence, item.ServiceID, item.ServiceName,
		item.BillingModel, item.UnitPrice, item.Quantity, item.Subtotal, item.Description)
	return err
}

func (r *billRepoPG) GetItems(ctx context.Context, billID uuid.UUID) ([]*BillItem, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, bill_id, sequence, service_id, service_name,
			billing_model, unit_price, quantity, subtotal, description
		FROM bill_item WHERE bill_id = $1 ORDER BY sequence`, billID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*BillItem
	for rows.Next() {
		var it BillItem
		if err := rows.Scan(&it.ID, &it.BillID, &it.Sequence, &it.ServiceID, &it.ServiceName,
			&it.BillingModel, &it.UnitPrice, &it.Quantity, &it.Subtotal, &it.Description); err != nil {
			return nil, err
		}
		items = append(items, &it)
	}
	return items, rows.Err()
}
