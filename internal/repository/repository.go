package repository

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/finsight/finance-service/internal/models"
	"github.com/shopspring/decimal"
)

// ErrAlertNotFound is returned when a resolve targets a nonexistent alert.
var ErrAlertNotFound = errors.New("alert not found")

const dayFormat = "2006-01-02"

// Repository provides database operations
type Repository struct {
	db *sql.DB
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// FetchDailyDebitSpend aggregates debit transactions against expense
// accounts into per-user per-day spend totals.
func (r *Repository) FetchDailyDebitSpend() ([]models.DailySpend, error) {
	query := `
		SELECT t.user_id, t.trans_date::date AS day, SUM(t.amount) AS spend
		FROM finance.transactions t
		JOIN finance.accounts a ON t.account_id = a.account_id
		WHERE a.account_type = 'Expense' AND t.trans_type = 'Debit'
		GROUP BY t.user_id, t.trans_date::date
		ORDER BY t.user_id, day`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch daily spend: %w", err)
	}
	defer rows.Close()

	var spends []models.DailySpend
	for rows.Next() {
		var (
			s   models.DailySpend
			day time.Time
			raw string
		)
		if err := rows.Scan(&s.UserID, &day, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan daily spend: %w", err)
		}
		s.Day = day.Format(dayFormat)
		if s.Spend, err = parseDecimal(raw); err != nil {
			return nil, fmt.Errorf("invalid spend total for user %d on %s: %w", s.UserID, s.Day, err)
		}
		spends = append(spends, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read daily spend: %w", err)
	}
	return spends, nil
}

// SaveNewAlerts inserts an alert for every entry that does not already have
// an unresolved alert for the same (user, day). The whole loop runs in one
// transaction so a failed run commits nothing and a retry re-detects
// cleanly. Concurrent runs are serialized by the partial unique index on
// (user_id, day) for unresolved rows. Returns the number of alerts created.
func (r *Repository) SaveNewAlerts(alerts []models.Alert) (int, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	checkQuery := `
		SELECT EXISTS (
			SELECT 1 FROM finance.fraud_alerts
			WHERE user_id = $1 AND details->>'day' = $2 AND NOT is_resolved
		)`
	insertQuery := `
		INSERT INTO finance.fraud_alerts (user_id, alert_type, details, created_at, is_resolved)
		VALUES ($1, $2, $3, $4, false)`

	created := 0
	for _, a := range alerts {
		var exists bool
		if err := tx.QueryRow(checkQuery, a.UserID, a.Details.Day).Scan(&exists); err != nil {
			return 0, fmt.Errorf("failed to check existing alert: %w", err)
		}
		if exists {
			continue
		}
		details, err := json.Marshal(a.Details)
		if err != nil {
			return 0, fmt.Errorf("failed to encode alert details: %w", err)
		}
		if _, err := tx.Exec(insertQuery, a.UserID, a.AlertType, details, a.CreatedAt); err != nil {
			return 0, fmt.Errorf("failed to insert alert: %w", err)
		}
		created++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit alerts: %w", err)
	}
	return created, nil
}

// FetchUnresolvedAlerts returns all unresolved alerts joined with the
// user's display name, newest first.
func (r *Repository) FetchUnresolvedAlerts() ([]models.AlertView, error) {
	query := `
		SELECT fa.alert_id, fa.user_id, u.username, fa.details
		FROM finance.fraud_alerts fa
		JOIN finance.users u ON u.user_id = fa.user_id
		WHERE NOT fa.is_resolved
		ORDER BY fa.created_at DESC`
	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unresolved alerts: %w", err)
	}
	defer rows.Close()

	var views []models.AlertView
	for rows.Next() {
		var (
			v   models.AlertView
			raw []byte
		)
		if err := rows.Scan(&v.AlertID, &v.UserID, &v.UserName, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		var details models.AlertDetails
		if err := json.Unmarshal(raw, &details); err != nil {
			return nil, fmt.Errorf("invalid details payload for alert %d: %w", v.AlertID, err)
		}
		v.Day = details.Day
		v.Spend = details.Spend
		v.Average = details.Average
		v.ZScore = details.ZScore
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read unresolved alerts: %w", err)
	}
	return views, nil
}

// ResolveAlert marks an alert resolved. Resolving an already-resolved alert
// still matches one row and is a no-op; only an unknown id is an error.
func (r *Repository) ResolveAlert(alertID int64) error {
	res, err := r.db.Exec(`UPDATE finance.fraud_alerts SET is_resolved = true WHERE alert_id = $1`, alertID)
	if err != nil {
		return fmt.Errorf("failed to resolve alert %d: %w", alertID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to resolve alert %d: %w", alertID, err)
	}
	if affected == 0 {
		return ErrAlertNotFound
	}
	return nil
}

// FetchTransactionsForUserDay returns every transaction for a user on one
// calendar day, oldest first.
func (r *Repository) FetchTransactionsForUserDay(userID int64, day string) ([]models.TransactionDetail, error) {
	query := `
		SELECT trans_id, description, amount, trans_type, trans_date
		FROM finance.transactions
		WHERE user_id = $1 AND trans_date::date = $2
		ORDER BY trans_date ASC`
	rows, err := r.db.Query(query, userID, day)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transactions for user %d on %s: %w", userID, day, err)
	}
	defer rows.Close()

	var details []models.TransactionDetail
	for rows.Next() {
		var (
			d   models.TransactionDetail
			raw string
		)
		if err := rows.Scan(&d.ID, &d.Description, &raw, &d.Type, &d.Time); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		if d.Amount, err = parseDecimal(raw); err != nil {
			return nil, fmt.Errorf("invalid amount for transaction %d: %w", d.ID, err)
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transactions: %w", err)
	}
	return details, nil
}

// FetchMonthlyExpenseHistory returns up to limit most recent completed
// months of aggregate expense, ordered ascending. The current in-progress
// month is excluded.
func (r *Repository) FetchMonthlyExpenseHistory(limit int) ([]models.MonthlyExpensePoint, error) {
	query := `
		SELECT month_start, month_expense FROM (
			SELECT month_start, month_expense
			FROM finance.v_monthly_expense
			WHERE month_start < date_trunc('month', CURRENT_DATE)
			ORDER BY month_start DESC
			LIMIT $1
		) m
		ORDER BY month_start ASC`
	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch monthly expense history: %w", err)
	}
	defer rows.Close()

	var points []models.MonthlyExpensePoint
	for rows.Next() {
		var (
			p   models.MonthlyExpensePoint
			raw string
		)
		if err := rows.Scan(&p.MonthStart, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan monthly expense: %w", err)
		}
		if p.TotalExpense, err = parseDecimal(raw); err != nil {
			return nil, fmt.Errorf("invalid expense total for month %s: %w", p.MonthStart.Format(dayFormat), err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read monthly expense history: %w", err)
	}
	return points, nil
}

// InsertAuditLog records an action in the audit side channel.
func (r *Repository) InsertAuditLog(userID int64, action string) error {
	_, err := r.db.Exec(`INSERT INTO finance.audit_log (user_id, action) VALUES ($1, $2)`, userID, action)
	if err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}
	return nil
}

// parseDecimal converts a numeric aggregate returned by the driver as text.
// String-to-number coercion of query results is centralized here.
func parseDecimal(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("failed to parse numeric value %q: %w", raw, err)
	}
	return d, nil
}
