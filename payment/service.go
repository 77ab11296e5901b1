package payment

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/yashrajoria/bms-storefront/apperrors"
	"github.com/yashrajoria/bms-storefront/ledger"
	"github.com/yashrajoria/bms-storefront/logger"
	"github.com/yashrajoria/bms-storefront/models"
	awspkg "github.com/yashrajoria/bms-storefront/pkg/aws"
)

// ErrPaymentDataNotFound is returned when the ledger has no token for an order.
var ErrPaymentDataNotFound = apperrors.ErrNotFound.WithMessage("payment data not found")

// OrderCreator places orders on the store API.
type OrderCreator interface {
	CreateOrder(ctx context.Context, token string, req models.CreateOrderRequest) (*models.CreatedOrder, error)
}

// Widget runs the hosted payment page for a snap token and reports how it ended.
type Widget interface {
	Pay(ctx context.Context, snapToken string) (Result, error)
}

type CheckoutRequest struct {
	Address string `json:"address" validate:"required"`
	Notes   string `json:"notes" validate:"required"`
	City    string `json:"city" validate:"required"`
}

type CheckoutResult struct {
	OrderID    models.ID       `json:"order_id"`
	SnapToken  string          `json:"snap_token"`
	OtherCosts decimal.Decimal `json:"other_costs"`
	Attempt    Attempt         `json:"attempt"`
	Durable    bool            `json:"durable"`
}

// Completion is the reconciled answer to a widget outcome.
type Completion struct {
	Attempt Attempt              `json:"attempt"`
	Notice  Notice               `json:"notice"`
	Unpaid  []models.UnpaidOrder `json:"unpaid_orders"`
	Durable bool                 `json:"durable"`
}

// Service ties order creation, the unpaid-order ledger and widget outcomes together.
type Service struct {
	orders     OrderCreator
	ledgers    *ledger.Opener
	attempts   AttemptStore
	reconciler *Reconciler
	validate   *validator.Validate
	log        *zap.Logger
	now        func() time.Time
}

func NewService(orders OrderCreator, ledgers *ledger.Opener, attempts AttemptStore, reconciler *Reconciler, log *zap.Logger) *Service {
	return &Service{
		orders:     orders,
		ledgers:    ledgers,
		attempts:   attempts,
		reconciler: reconciler,
		validate:   validator.New(),
		log:        logger.OrNop(log),
		now:        time.Now,
	}
}

// Quote returns the non-item costs charged for delivery to city.
func Quote(city string) (shipping, serviceFee, otherCosts decimal.Decimal) {
	return models.ShippingCost(city), models.ServiceFee, models.OtherCosts(city)
}

// Checkout places the order, records its snap token and opens the first payment attempt.
func (s *Service) Checkout(ctx context.Context, userID, token string, req CheckoutRequest) (*CheckoutResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, apperrors.ErrBadRequest.WithMessage("Mohon lengkapi semua data sebelum mengirim.").Wrap(err)
	}

	otherCosts := models.OtherCosts(req.City)
	created, err := s.orders.CreateOrder(ctx, token, models.CreateOrderRequest{
		Address:    req.Address,
		Notes:      req.Notes,
		OtherCosts: otherCosts.IntPart(),
	})
	if err != nil {
		return nil, err
	}

	led, err := s.ledgers.Open(ctx, userID)
	if err != nil {
		return nil, err
	}
	orderID := created.Identifier()
	if _, err := led.Upsert(ctx, models.UnpaidOrder{OrderID: orderID, SnapToken: created.SnapToken}); err != nil {
		return nil, err
	}

	attempt, err := s.begin(ctx, userID, orderID, created.SnapToken)
	if err != nil {
		return nil, err
	}

	log := logger.WithRequest(ctx, s.log)
	log.Info("Order placed",
		zap.String("user_id", userID),
		zap.String("order_id", orderID.String()),
		zap.String("other_costs", otherCosts.String()),
	)
	s.reconciler.record(ctx, log, awspkg.MetricOrdersCreated, nil)
	s.reconciler.recordLedger(ctx, log, led)

	return &CheckoutResult{
		OrderID:    orderID,
		SnapToken:  created.SnapToken,
		OtherCosts: otherCosts,
		Attempt:    attempt,
		Durable:    led.Durable(),
	}, nil
}

// Begin opens a new attempt for an order already in the user's ledger.
func (s *Service) Begin(ctx context.Context, userID string, orderID models.ID) (Attempt, error) {
	led, err := s.ledgers.Open(ctx, userID)
	if err != nil {
		return Attempt{}, err
	}
	entry, ok := led.Find(orderID)
	if !ok {
		return Attempt{}, ErrPaymentDataNotFound
	}
	return s.begin(ctx, userID, entry.OrderID, entry.SnapToken)
}

func (s *Service) begin(ctx context.Context, userID string, orderID models.ID, snapToken string) (Attempt, error) {
	a := Attempt{
		ID:        uuid.NewString(),
		UserID:    userID,
		OrderID:   orderID,
		SnapToken: snapToken,
		CreatedAt: s.now().UTC(),
	}
	if err := s.attempts.Begin(ctx, a); err != nil {
		return Attempt{}, apperrors.ErrInternal.WithMessage("could not start payment").Wrap(err)
	}
	return a, nil
}

// Complete accepts the first outcome reported for an attempt and reconciles it.
func (s *Service) Complete(ctx context.Context, userID, attemptID string, res Result) (*Completion, error) {
	outcome, err := ParseOutcome(string(res.Outcome))
	if err != nil {
		return nil, err
	}
	res.Outcome = outcome

	a, err := s.attempts.Get(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if a.UserID != userID {
		return nil, ErrAttemptNotFound
	}

	a, err = s.attempts.Resolve(ctx, attemptID, res.Outcome)
	if err != nil {
		return nil, err
	}

	led, err := s.ledgers.Open(ctx, userID)
	if err != nil {
		return nil, err
	}
	notice := s.reconciler.Apply(ctx, led, a, res)

	return &Completion{
		Attempt: a,
		Notice:  notice,
		Unpaid:  led.Orders(),
		Durable: led.Durable(),
	}, nil
}

// Run pays orderID through w and reconciles the result. It blocks until the
// widget reports.
func (s *Service) Run(ctx context.Context, userID string, orderID models.ID, w Widget) (*Completion, error) {
	a, err := s.Begin(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	res, err := w.Pay(ctx, a.SnapToken)
	if err != nil {
		return nil, err
	}
	return s.Complete(ctx, userID, a.ID, res)
}
