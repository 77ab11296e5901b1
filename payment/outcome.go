package payment

import (
	"fmt"
	"strings"

	"github.com/yashrajoria/bms-storefront/apperrors"
)

// Outcome is the terminal callback the Snap widget reported for an attempt.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomePending Outcome = "pending"
	OutcomeError   Outcome = "error"
	OutcomeClose   Outcome = "close"
)

// ParseOutcome accepts the four widget callbacks, with or without the "on" prefix.
func ParseOutcome(s string) (Outcome, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "on")
	switch o := Outcome(s); o {
	case OutcomeSuccess, OutcomePending, OutcomeError, OutcomeClose:
		return o, nil
	}
	return "", apperrors.ErrBadRequest.WithMessage(fmt.Sprintf("unknown payment outcome %q", s))
}

// Result is what the widget hands back alongside the outcome. The transaction
// fields are informational; the ledger only acts on Outcome.
type Result struct {
	Outcome           Outcome `json:"outcome" binding:"required"`
	TransactionID     string  `json:"transaction_id,omitempty"`
	TransactionStatus string  `json:"transaction_status,omitempty"`
	StatusMessage     string  `json:"status_message,omitempty"`
}

// Notice levels, named after the alert icons the storefront shows.
const (
	LevelSuccess = "success"
	LevelInfo    = "info"
	LevelWarning = "warning"
	LevelError   = "error"
)

// Notice is the user-visible message for an outcome.
type Notice struct {
	Level   string         `json:"level"`
	Title   string         `json:"title"`
	Text    string         `json:"text"`
	Outcome Outcome        `json:"outcome,omitempty"`
	Kind    apperrors.Kind `json:"kind,omitempty"`
}

// NoticeFor returns the notice shown for an outcome.
func NoticeFor(o Outcome) Notice {
	switch o {
	case OutcomeSuccess:
		return Notice{Level: LevelSuccess, Title: "Sukses", Text: "Pembayaran berhasil.", Outcome: o}
	case OutcomePending:
		return Notice{Level: LevelInfo, Title: "Perhatian", Text: "Menunggu pembayaran.", Outcome: o}
	case OutcomeError:
		return Notice{Level: LevelError, Title: "Gagal", Text: "Pembayaran gagal!", Outcome: o, Kind: apperrors.KindPaymentOutcome}
	default:
		return Notice{Level: LevelWarning, Title: "Hati-hati", Text: "Kamu menutup pop-up tanpa menyelesaikan pembayaran.", Outcome: OutcomeClose}
	}
}

// ErrorNotice turns err into a notice, keeping the message of application errors.
func ErrorNotice(err error) Notice {
	appErr := apperrors.From(err)
	return Notice{Level: LevelError, Title: "Gagal", Text: appErr.Message, Kind: appErr.Kind}
}
