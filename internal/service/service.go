package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/finsight/finance-service/internal/anomaly"
	"github.com/finsight/finance-service/internal/forecast"
	"github.com/finsight/finance-service/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ErrInvalidArgument is returned for malformed or missing identifiers.
var ErrInvalidArgument = errors.New("invalid argument")

// historyMonths is how many completed months feed the forecast fit.
const historyMonths = 12

const dayFormat = "2006-01-02"

// Store is the external data source the service reads from and writes
// alerts to. Store failures abort the whole run and surface to the caller.
type Store interface {
	FetchDailyDebitSpend() ([]models.DailySpend, error)
	SaveNewAlerts(alerts []models.Alert) (int, error)
	FetchUnresolvedAlerts() ([]models.AlertView, error)
	ResolveAlert(alertID int64) error
	FetchTransactionsForUserDay(userID int64, day string) ([]models.TransactionDetail, error)
	FetchMonthlyExpenseHistory(limit int) ([]models.MonthlyExpensePoint, error)
	InsertAuditLog(userID int64, action string) error
}

// Notifier is the optional side channel told about new alerts. Failures
// are logged, never propagated.
type Notifier interface {
	NotifyNewAlerts(count int) error
}

// Service handles business logic
type Service struct {
	store    Store
	log      *logrus.Logger
	notifier Notifier
}

// NewService initializes a new service. notifier may be nil.
func NewService(store Store, log *logrus.Logger, notifier Notifier) *Service {
	return &Service{store: store, log: log, notifier: notifier}
}

// RunAnomalyDetection recomputes every user's spending baseline, flags
// anomalous days and persists alerts for the ones not already covered by
// an unresolved alert. Returns the number of alerts created.
func (s *Service) RunAnomalyDetection() (int, error) {
	spends, err := s.store.FetchDailyDebitSpend()
	if err != nil {
		return 0, err
	}

	anomalies := anomaly.Detect(spends)

	alerts := make([]models.Alert, 0, len(anomalies))
	for _, a := range anomalies {
		alerts = append(alerts, models.Alert{
			UserID:    a.UserID,
			AlertType: models.AlertTypeZScore,
			Details: models.AlertDetails{
				Day:     a.Day,
				Spend:   a.Spend,
				Average: decimal.NewFromFloat(a.Mean).Round(2),
				ZScore:  a.ZScore,
			},
			// created_at carries the anomalous day, not the run time,
			// so the alert keeps its temporal meaning.
			CreatedAt: a.Day,
		})
	}

	created, err := s.store.SaveNewAlerts(alerts)
	if err != nil {
		return 0, err
	}

	s.log.Infof("Anomaly detection complete: %d days flagged, %d new alerts", len(anomalies), created)

	if created > 0 && s.notifier != nil {
		if err := s.notifier.NotifyNewAlerts(created); err != nil {
			s.log.Errorf("Failed to send alert notification: %v", err)
		}
	}
	return created, nil
}

// ListUnresolvedAlerts returns the review queue, newest first.
func (s *Service) ListUnresolvedAlerts() ([]models.AlertView, error) {
	return s.store.FetchUnresolvedAlerts()
}

// ResolveAlert marks an alert resolved and records the action in the audit
// log. The caller is trusted to have authorized the actor already.
// Resolution is terminal and idempotent in effect.
func (s *Service) ResolveAlert(alertID, actorID int64) error {
	if err := s.store.ResolveAlert(alertID); err != nil {
		return err
	}

	// A failed audit write must not undo the resolve.
	if err := s.store.InsertAuditLog(actorID, fmt.Sprintf("Resolved fraud alert ID: %d.", alertID)); err != nil {
		s.log.Errorf("Failed to write audit log for alert %d: %v", alertID, err)
	}

	s.log.Infof("Alert %d resolved by user %d", alertID, actorID)
	return nil
}

// AlertTransactionDetail returns every transaction behind a flagged day's
// total, oldest first, so a reviewer can see what produced it.
func (s *Service) AlertTransactionDetail(userID int64, day string) ([]models.TransactionDetail, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidArgument)
	}
	if _, err := time.Parse(dayFormat, day); err != nil {
		return nil, fmt.Errorf("%w: day must be formatted YYYY-MM-DD", ErrInvalidArgument)
	}
	return s.store.FetchTransactionsForUserDay(userID, day)
}

// ExpenseForecast fits a line to the recent monthly expense history and
// projects the next three months.
func (s *Service) ExpenseForecast() (*models.ForecastResult, error) {
	history, err := s.store.FetchMonthlyExpenseHistory(historyMonths)
	if err != nil {
		return nil, err
	}
	return forecast.Compute(history), nil
}
