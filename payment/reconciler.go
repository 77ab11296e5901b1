package payment

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/yashrajoria/bms-storefront/apperrors"
	"github.com/yashrajoria/bms-storefront/ledger"
	"github.com/yashrajoria/bms-storefront/logger"
	awspkg "github.com/yashrajoria/bms-storefront/pkg/aws"
)

// MetricsRecorder is the slice of the CloudWatch client the reconciler uses.
type MetricsRecorder interface {
	RecordCount(ctx context.Context, metricName string, dimensions map[string]string) error
}

var outcomeMetrics = map[Outcome]string{
	OutcomeSuccess: awspkg.MetricPaymentSuccess,
	OutcomePending: awspkg.MetricPaymentPending,
	OutcomeError:   awspkg.MetricPaymentFailed,
	OutcomeClose:   awspkg.MetricPaymentClosed,
}

// Reconciler applies widget outcomes to a user's unpaid-order ledger. Only a
// success removes the entry; every other outcome keeps it so the user can pay later.
type Reconciler struct {
	verifier Verifier
	events   awspkg.SNSPublisher
	topicARN string
	metrics  MetricsRecorder
	log      *zap.Logger
	now      func() time.Time
}

// NewReconciler wires the optional collaborators. Any of verifier, events and
// metrics may be nil.
func NewReconciler(verifier Verifier, events awspkg.SNSPublisher, topicARN string, metrics MetricsRecorder, log *zap.Logger) *Reconciler {
	return &Reconciler{
		verifier: verifier,
		events:   events,
		topicARN: topicARN,
		metrics:  metrics,
		log:      logger.OrNop(log),
		now:      time.Now,
	}
}

// Apply reconciles the outcome res reported for attempt a against led.
func (r *Reconciler) Apply(ctx context.Context, led *ledger.Ledger, a Attempt, res Result) Notice {
	log := logger.WithRequest(ctx, r.log).With(
		zap.String("attempt_id", a.ID),
		zap.String("order_id", a.OrderID.String()),
		zap.String("reported", string(res.Outcome)),
	)

	outcome, verified := r.confirm(ctx, log, a, res.Outcome)

	switch outcome {
	case OutcomeSuccess:
		led.Remove(ctx, a.OrderID)
		log.Info("Payment succeeded, unpaid order cleared")
	case OutcomeError:
		log.Warn("Payment failed, unpaid order kept",
			zap.Error(apperrors.ErrPaymentOutcome.WithMessage(res.StatusMessage)))
	default:
		log.Info("Payment not completed, unpaid order kept", zap.String("outcome", string(outcome)))
	}

	r.record(ctx, log, outcomeMetrics[outcome], map[string]string{"outcome": string(outcome)})
	r.recordLedger(ctx, log, led)
	r.publish(ctx, log, OutcomeEvent{
		Type:      EventOutcome,
		AttemptID: a.ID,
		OrderID:   a.OrderID.String(),
		UserID:    a.UserID,
		Reported:  res.Outcome,
		Outcome:   outcome,
		Verified:  verified,
		Durable:   led.Durable(),
		Timestamp: r.now().UTC(),
	})

	return NoticeFor(outcome)
}

// confirm checks a reported success with the provider. A provider that says
// otherwise downgrades it to pending; an unreachable provider leaves it as reported.
func (r *Reconciler) confirm(ctx context.Context, log *zap.Logger, a Attempt, reported Outcome) (Outcome, bool) {
	if reported != OutcomeSuccess || r.verifier == nil {
		return reported, false
	}
	actual, err := r.verifier.Verify(ctx, a.OrderID)
	if err != nil {
		log.Warn("Payment verification unavailable, trusting widget", zap.Error(err))
		return reported, false
	}
	if actual != OutcomeSuccess {
		log.Warn("Provider does not confirm payment yet", zap.String("provider_outcome", string(actual)))
		return OutcomePending, true
	}
	return OutcomeSuccess, true
}

func (r *Reconciler) record(ctx context.Context, log *zap.Logger, metricName string, dimensions map[string]string) {
	if r.metrics == nil {
		return
	}
	if err := r.metrics.RecordCount(ctx, metricName, dimensions); err != nil {
		log.Warn("Failed to record payment metric", zap.String("metric", metricName), zap.Error(err))
	}
}

// recordLedger counts a ledger change that only survived in memory.
func (r *Reconciler) recordLedger(ctx context.Context, log *zap.Logger, led *ledger.Ledger) {
	if !led.Durable() {
		r.record(ctx, log, awspkg.MetricLedgerWriteLost, nil)
	}
}

func (r *Reconciler) publish(ctx context.Context, log *zap.Logger, event OutcomeEvent) {
	if r.events == nil || r.topicARN == "" {
		return
	}
	payload, _ := json.Marshal(event)
	if err := r.events.Publish(ctx, r.topicARN, payload); err != nil {
		log.Error("Failed to publish payment event", zap.Error(err))
		return
	}
	log.Debug("Payment event published", zap.String("outcome", string(event.Outcome)))
}
