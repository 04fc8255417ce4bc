package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"eden/internal/apperr"
)

// PostingRow is a raw postings row as an administrator sees it, deleted rows included.
type PostingRow struct {
	ID            uint       `db:"id" json:"id"`
	OwnerID       uint       `db:"owner_id" json:"owner_id"`
	Kind          string     `db:"kind" json:"kind"`
	Status        string     `db:"status" json:"status"`
	Title         string     `db:"title" json:"title"`
	Description   string     `db:"description" json:"description"`
	HourlyRate    *float64   `db:"hourly_rate" json:"hourly_rate,omitempty"`
	PriceCentavos *int64     `db:"price_centavos" json:"price_centavos,omitempty"`
	Subcategory   *string    `db:"subcategory" json:"subcategory,omitempty"`
	ParentJobID   *uint      `db:"parent_job_id" json:"parent_job_id,omitempty"`
	ImagePath     string     `db:"image_path" json:"image_path"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
	RemovedAt     *time.Time `db:"removed_at" json:"removed_at,omitempty"`
}

const postingColumns = `id, owner_id, kind, status, title, description, hourly_rate, price_centavos,
	subcategory, parent_job_id, image_path, created_at, updated_at, removed_at`

// Audit runs direct SQL reads for administrators, bypassing every moderation filter.
type Audit struct {
	db *sqlx.DB
}

// NewAudit wraps the pool gorm already owns; driverName only selects the placeholder style.
func NewAudit(sqlDB *sql.DB, driverName string) *Audit {
	return &Audit{db: sqlx.NewDb(sqlDB, driverName)}
}

func (a *Audit) Posting(ctx context.Context, id uint) (*PostingRow, error) {
	var row PostingRow
	q := a.db.Rebind(`SELECT ` + postingColumns + ` FROM postings WHERE id = ?`)
	if err := a.db.GetContext(ctx, &row, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("store.AuditPosting", "posting %d not found", id)
		}
		return nil, fmt.Errorf("audit posting %d: %w", id, err)
	}
	return &row, nil
}

func (a *Audit) Postings(ctx context.Context, includeDeleted bool) ([]PostingRow, error) {
	q := `SELECT ` + postingColumns + ` FROM postings`
	var args []any
	if !includeDeleted {
		q += ` WHERE status <> ?`
		args = append(args, "deleted")
	}
	q += ` ORDER BY created_at DESC, id DESC`

	rows := []PostingRow{}
	if err := a.db.SelectContext(ctx, &rows, a.db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("audit postings: %w", err)
	}
	return rows, nil
}
