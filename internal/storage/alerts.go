package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ErrNotConfigured indicates the storage pool was not initialised.
var ErrNotConfigured = errors.New("storage: pool not configured")

const (
	insertAlertSQL = `INSERT INTO alerts (
        alert_id,
        signature,
        mint,
        amount,
        text,
        tx_url,
        posted_id
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7
    )
    ON CONFLICT (alert_id) DO NOTHING
    RETURNING id, created_at;`

	listRecentAlertsSQL = `SELECT
        id,
        alert_id,
        signature,
        mint,
        amount,
        text,
        tx_url,
        posted_id,
        created_at
    FROM alerts
    ORDER BY created_at DESC
    LIMIT $1;`

	deleteAlertsBeforeSQL = `DELETE FROM alerts WHERE created_at < $1;`
)

// AlertRecord captures an emitted alert for auditing.
type AlertRecord struct {
	ID        int64
	AlertID   string
	Signature string
	Mint      string
	Amount    decimal.Decimal
	Text      string
	TxURL     string
	PostedID  *string
	CreatedAt time.Time
}

// AlertStore defines operations for alert auditing.
type AlertStore interface {
	InsertAlert(ctx context.Context, alert AlertRecord) (AlertRecord, error)
	ListRecentAlerts(ctx context.Context, limit int) ([]AlertRecord, error)
	DeleteAlertsBefore(ctx context.Context, olderThan time.Time) error
}

// Store persists emitted alerts to PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// InsertAlert records an emitted alert. Replays of the same alert id are
// no-ops.
func (s *Store) InsertAlert(ctx context.Context, alert AlertRecord) (AlertRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return AlertRecord{}, err
	}

	var posted interface{}
	if alert.PostedID != nil {
		posted = *alert.PostedID
	}

	row := pool.QueryRow(ctx, insertAlertSQL,
		alert.AlertID,
		alert.Signature,
		alert.Mint,
		alert.Amount.String(),
		alert.Text,
		alert.TxURL,
		posted,
	)

	return scanInsertedAlert(row, alert)
}

func scanInsertedAlert(row pgx.Row, alert AlertRecord) (AlertRecord, error) {
	if err := row.Scan(&alert.ID, &alert.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// ON CONFLICT DO NOTHING returns no row when the alert id
			// was already audited.
			return alert, nil
		}
		return AlertRecord{}, fmt.Errorf("insert alert: %w", err)
	}
	return alert, nil
}

// ListRecentAlerts returns the newest alerts up to limit.
func (s *Store) ListRecentAlerts(ctx context.Context, limit int) ([]AlertRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := pool.Query(ctx, listRecentAlertsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()

	var alerts []AlertRecord
	for rows.Next() {
		var (
			rec    AlertRecord
			amount string
			posted *string
		)
		if err := rows.Scan(&rec.ID, &rec.AlertID, &rec.Signature, &rec.Mint, &amount, &rec.Text, &rec.TxURL, &posted, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan alert row: %w", err)
		}
		if rec.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("parse alert amount: %w", err)
		}
		rec.PostedID = posted
		alerts = append(alerts, rec)
	}
	return alerts, rows.Err()
}

// DeleteAlertsBefore prunes audit rows older than the cutoff.
func (s *Store) DeleteAlertsBefore(ctx context.Context, olderThan time.Time) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	if _, err := pool.Exec(ctx, deleteAlertsBeforeSQL, olderThan); err != nil {
		return fmt.Errorf("delete alerts: %w", err)
	}
	return nil
}

var _ AlertStore = (*Store)(nil)
