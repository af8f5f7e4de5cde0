package visit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct {
	pool *pgxpool.Pool
}

// NewPGRepo stores visits in the patient_visit table. row_no is the row
// locator and never shifts.
func NewPGRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func (r *repoPG) conn() querier {
	return r.pool
}

const visitCols = `row_no, id, registration_number, visit_date, full_name, guardian,
	address, age, complaint, therapy, notes, served_at`

// served_at is stamped the first time therapy becomes non-empty and cleared
// when it is emptied again.
const servedAtExpr = `CASE WHEN btrim($9) = '' THEN NULL ELSE COALESCE(served_at, NOW()) END`

func (r *repoPG) List(ctx context.Context) ([]*Visit, error) {
	rows, err := r.conn().Query(ctx, `SELECT `+visitCols+` FROM patient_visit ORDER BY row_no`)
	if err != nil {
		return nil, fmt.Errorf("list visits: %w", err)
	}
	defer rows.Close()

	var visits []*Visit
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, err
		}
		visits = append(visits, v)
	}
	return visits, rows.Err()
}

func (r *repoPG) Append(ctx context.Context, v *Visit) error {
	id := uuid.New()
	var row int64
	var servedAt *time.Time
	err := r.conn().QueryRow(ctx, `
		INSERT INTO patient_visit (
			id, registration_number, visit_date, full_name, guardian,
			address, age, complaint, therapy, notes, served_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,
			CASE WHEN btrim($9) = '' THEN NULL ELSE NOW() END)
		RETURNING row_no, served_at`,
		id, v.RegistrationNumber, v.VisitDate, v.FullName, v.Guardian,
		v.Address, v.Age, v.Complaint, v.Therapy, v.Notes,
	).Scan(&row, &servedAt)
	if err != nil {
		return fmt.Errorf("insert visit: %w", err)
	}
	v.Row = int(row)
	v.ID = id.String()
	v.ServedAt = servedAt
	return nil
}

func (r *repoPG) Update(ctx context.Context, v *Visit) error {
	var servedAt *time.Time
	err := r.conn().QueryRow(ctx, `
		UPDATE patient_visit SET
			registration_number=$2, visit_date=$3, full_name=$4, guardian=$5,
			address=$6, age=$7, complaint=$8, therapy=$9, notes=$10,
			served_at=`+servedAtExpr+`, updated_at=NOW()
		WHERE row_no = $1
		RETURNING served_at`,
		v.Row, v.RegistrationNumber, v.VisitDate, v.FullName, v.Guardian,
		v.Address, v.Age, v.Complaint, v.Therapy, v.Notes,
	).Scan(&servedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update visit %d: %w", v.Row, err)
	}
	v.ServedAt = servedAt
	return nil
}

func (r *repoPG) Delete(ctx context.Context, row int) error {
	tag, err := r.conn().Exec(ctx, `DELETE FROM patient_visit WHERE row_no = $1`, row)
	if err != nil {
		return fmt.Errorf("delete visit %d: %w", row, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanVisit(row pgx.Row) (*Visit, error) {
	var v Visit
	var rowNo int64
	var id uuid.UUID
	err := row.Scan(&rowNo, &id,
		&v.RegistrationNumber, &v.VisitDate, &v.FullName, &v.Guardian,
		&v.Address, &v.Age, &v.Complaint, &v.Therapy, &v.Notes, &v.ServedAt)
	if err != nil {
		return nil, fmt.Errorf("scan visit: %w", err)
	}
	v.Row = int(rowNo)
	v.ID = id.String()
	return &v, nil
}
