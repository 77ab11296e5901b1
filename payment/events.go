package payment

import (
	"time"
)

const EventOutcome = "payment.outcome"

// OutcomeEvent is published for every reconciled attempt.
type OutcomeEvent struct {
	Type      string    `json:"type"`
	AttemptID string    `json:"attempt_id"`
	OrderID   string    `json:"order_id"`
	UserID    string    `json:"user_id"`
	Reported  Outcome   `json:"reported"`
	Outcome   Outcome   `json:"outcome"`
	Verified  bool      `json:"verified"`
	Durable   bool      `json:"durable"`
	Timestamp time.Time `json:"timestamp"`
}
