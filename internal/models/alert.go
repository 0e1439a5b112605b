package models

import "github.com/shopspring/decimal"

// AlertTypeZScore is the alert_type stored for z-score spending anomalies.
const AlertTypeZScore = "z_score_anomaly"

// AlertDetails is the JSON payload stored in an alert's details column.
type AlertDetails struct {
	Day     string          `json:"day"`
	Spend   decimal.Decimal `json:"spend"`
	Average decimal.Decimal `json:"average"`
	ZScore  float64         `json:"z_score"`
}

// Alert represents a fraud alert in the system. Alerts are created by the
// detector, resolved exactly once, and never deleted or re-opened.
type Alert struct {
	ID         int64        `json:"alert_id"`
	UserID     int64        `json:"user_id"`
	AlertType  string       `json:"alert_type"`
	Details    AlertDetails `json:"details"`
	CreatedAt  string       `json:"created_at"` // the anomalous day, not the run time
	IsResolved bool         `json:"is_resolved"`
}

// AlertView is an unresolved alert joined with the user's display name,
// as served to the review queue.
type AlertView struct {
	AlertID  int64           `json:"alert_id"`
	UserID   int64           `json:"user_id"`
	UserName string          `json:"user_name"`
	Day      string          `json:"day"`
	Spend    decimal.Decimal `json:"spend"`
	Average  decimal.Decimal `json:"average"`
	ZScore   float64         `json:"z_score"`
}
