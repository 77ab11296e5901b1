package payment

import (
	"context"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"

	"github.com/yashrajoria/bms-storefront/apperrors"
	"github.com/yashrajoria/bms-storefront/models"
)

// Verifier asks the payment provider what actually happened to an order.
type Verifier interface {
	Verify(ctx context.Context, orderID models.ID) (Outcome, error)
}

// MidtransVerifier checks transaction status through the Midtrans Core API.
type MidtransVerifier struct {
	client coreapi.Client
}

func NewMidtransVerifier(serverKey, environment string) *MidtransVerifier {
	env := midtrans.Sandbox
	if environment == "production" {
		env = midtrans.Production
	}
	v := &MidtransVerifier{}
	v.client.New(serverKey, env)
	return v
}

func (v *MidtransVerifier) Verify(ctx context.Context, orderID models.ID) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	resp, merr := v.client.CheckTransaction(orderID.String())
	if merr != nil {
		return "", apperrors.ErrFetch.WithMessage("payment status check failed").Wrap(merr)
	}
	return OutcomeFromStatus(resp.TransactionStatus, resp.FraudStatus), nil
}

// OutcomeFromStatus maps a Midtrans transaction_status (and fraud_status) onto
// the widget outcomes.
func OutcomeFromStatus(transactionStatus, fraudStatus string) Outcome {
	switch transactionStatus {
	case "capture":
		if fraudStatus == "challenge" {
			return OutcomePending
		}
		return OutcomeSuccess
	case "settlement":
		return OutcomeSuccess
	case "pending":
		return OutcomePending
	case "deny", "cancel", "expire", "failure":
		return OutcomeError
	}
	return OutcomePending
}
