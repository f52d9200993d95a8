package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/iliyamo/bistro-boss-server/internal/metrics"
	"github.com/iliyamo/bistro-boss-server/internal/model"
	"github.com/iliyamo/bistro-boss-server/internal/payment"
	q "github.com/iliyamo/bistro-boss-server/internal/queue"
	"github.com/iliyamo/bistro-boss-server/internal/repository"
)

// PaymentStore is the payments collection as the reconciler sees it.
type PaymentStore interface {
	Insert(ctx context.Context, p model.Payment) (repository.InsertResult, error)
	FindByTransactionID(ctx context.Context, txID string) (*model.Payment, error)
	MarkSuccess(ctx context.Context, txID string) (bool, error)
}

// CartStore removes settled cart lines.
type CartStore interface {
	DeleteMany(ctx context.Context, ids []string) (repository.CartDeletion, error)
}

// CardProcessor is satisfied by *payment.StripeProcessor.
type CardProcessor interface {
	CreateIntent(ctx context.Context, amount int64, currency string) (payment.Intent, error)
	IntentStatus(ctx context.Context, id string) (string, error)
}

// RedirectGateway is satisfied by *payment.SSLCommerz.
type RedirectGateway interface {
	Initiate(ctx context.Context, co payment.Checkout) (string, error)
	Validate(ctx context.Context, valID string) (payment.Validation, error)
}

const (
	cardCurrency    = "usd"
	gatewayCurrency = "BDT"
	intentSucceeded = "succeeded"
)

// ReconcilerDeps bundles the collaborators of a PaymentReconciler.
type ReconcilerDeps struct {
	Payments PaymentStore
	Carts    CartStore
	Card     CardProcessor
	Gateway  RedirectGateway
	Events   EventPublisher
	Log      *zap.Logger

	// VerifyIntents makes RecordPayment check the intent with the card
	// processor before accepting a card payment.
	VerifyIntents bool
}

// PaymentReconciler drives both payment flows and keeps the payments and
// carts collections consistent with what the providers report.
type PaymentReconciler struct {
	d       ReconcilerDeps
	newTxID func() string
	now     func() time.Time
}

func NewPaymentReconciler(d ReconcilerDeps) *PaymentReconciler {
	if d.Events == nil {
		d.Events = NopPublisher{}
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return &PaymentReconciler{
		d:       d,
		newTxID: func() string { return primitive.NewObjectID().Hex() },
		now:     time.Now,
	}
}

// MinorUnits converts a decimal price to cents, truncating.  The epsilon
// absorbs binary representation error so 19.99 becomes 1999, not 1998.
func MinorUnits(price float64) int64 {
	return int64(price*100 + 1e-9)
}

// CreateIntent opens a card payment intent for price dollars and returns the
// client secret the browser confirms the card with.
func (r *PaymentReconciler) CreateIntent(ctx context.Context, price float64) (string, error) {
	if !(price > 0) || math.IsInf(price, 0) {
		return "", fmt.Errorf("%w: price must be positive", ErrInvalidInput)
	}
	intent, err := r.d.Card.CreateIntent(ctx, MinorUnits(price), cardCurrency)
	if err != nil {
		metrics.Payments.WithLabelValues(model.MethodCard, "intent_failed").Inc()
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	metrics.Payments.WithLabelValues(model.MethodCard, "intent_created").Inc()
	return intent.ClientSecret, nil
}

// RecordResult mirrors what the front-end expects after a card payment.
type RecordResult struct {
	PaymentResult repository.InsertResult `json:"paymentResult"`
	DeleteResult  repository.CartDeletion `json:"deleteResult"`
	Partial       bool                    `json:"partial,omitempty"`
}

// RecordPayment stores a completed card payment and removes the carts it
// settles.  When some carts could not be removed the result is flagged
// Partial and the missing ids are listed; the payment itself stays recorded.
func (r *PaymentReconciler) RecordPayment(ctx context.Context, p model.Payment) (RecordResult, error) {
	p.Email = strings.TrimSpace(p.Email)
	if p.Email == "" {
		return RecordResult{}, fmt.Errorf("%w: email required", ErrInvalidInput)
	}
	if r.d.VerifyIntents && p.TransactionID != "" {
		status, err := r.d.Card.IntentStatus(ctx, p.TransactionID)
		if err != nil {
			return RecordResult{}, fmt.Errorf("%w: %v", ErrUpstream, err)
		}
		if status != intentSucceeded {
			metrics.Payments.WithLabelValues(model.MethodCard, "not_settled").Inc()
			return RecordResult{}, fmt.Errorf("%w: intent %s is %s", ErrPaymentNotSettled, p.TransactionID, status)
		}
	}
	p.ID = primitive.NilObjectID

	ins, err := r.d.Payments.Insert(ctx, p)
	if err != nil {
		return RecordResult{}, fmt.Errorf("insert payment: %w", err)
	}
	out := RecordResult{PaymentResult: ins}
	out.DeleteResult, out.Partial = r.clearCarts(ctx, p.TransactionID, p.CartIDs)

	r.publish(ctx, p, model.MethodCard, cardCurrency)
	metrics.Payments.WithLabelValues(model.MethodCard, "recorded").Inc()
	return out, nil
}

// GatewayStart is returned to the browser, which follows GatewayURL.
type GatewayStart struct {
	InsertData repository.InsertResult `json:"insertData"`
	GatewayURL string                  `json:"gatewayUrl"`
}

// InitiateGatewayPayment persists a pending payment under a fresh
// transaction id and opens a gateway session for it.  The record is written
// first so a callback can never arrive for an unknown transaction; if the
// gateway then fails the pending record remains and ErrUpstream is returned.
func (r *PaymentReconciler) InitiateGatewayPayment(ctx context.Context, p model.Payment) (GatewayStart, error) {
	p.Email = strings.TrimSpace(p.Email)
	if p.Email == "" || !(p.Price > 0) {
		return GatewayStart{}, fmt.Errorf("%w: email and a positive price are required", ErrInvalidInput)
	}
	p.ID = primitive.NilObjectID
	p.TransactionID = r.newTxID()
	p.Status = model.PaymentPending

	ins, err := r.d.Payments.Insert(ctx, p)
	if err != nil {
		return GatewayStart{}, fmt.Errorf("insert pending payment: %w", err)
	}

	u, err := r.d.Gateway.Initiate(ctx, payment.Checkout{TransactionID: p.TransactionID, Amount: p.Price, Email: p.Email})
	if err != nil {
		metrics.Payments.WithLabelValues(model.MethodGateway, "initiate_failed").Inc()
		r.d.Log.Warn("gateway initiation failed; payment left pending",
			zap.String("transactionId", p.TransactionID), zap.Error(err))
		return GatewayStart{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	metrics.Payments.WithLabelValues(model.MethodGateway, "initiated").Inc()
	return GatewayStart{InsertData: ins, GatewayURL: u}, nil
}

// GatewayOutcome describes a successful validation.
type GatewayOutcome struct {
	TransactionID  string                  `json:"transactionId"`
	AlreadySettled bool                    `json:"alreadySettled,omitempty"`
	DeleteResult   repository.CartDeletion `json:"deleteResult"`
	Partial        bool                    `json:"partial,omitempty"`
}

// ValidateGatewayPayment confirms valID with the gateway and, when valid,
// settles the matching payment and clears its carts.  Only the caller that
// actually moves the record to Success clears carts; a repeated validation
// of a settled payment reports AlreadySettled and changes nothing.
func (r *PaymentReconciler) ValidateGatewayPayment(ctx context.Context, valID string) (GatewayOutcome, error) {
	valID = strings.TrimSpace(valID)
	if valID == "" {
		return GatewayOutcome{}, fmt.Errorf("%w: val_id required", ErrInvalidInput)
	}
	v, err := r.d.Gateway.Validate(ctx, valID)
	if err != nil {
		return GatewayOutcome{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if v.Status != payment.StatusValid {
		metrics.Payments.WithLabelValues(model.MethodGateway, "invalid").Inc()
		r.d.Log.Info("gateway rejected payment", zap.String("valId", valID), zap.String("status", v.Status))
		return GatewayOutcome{}, ErrInvalidPayment
	}

	p, err := r.d.Payments.FindByTransactionID(ctx, v.TransactionID)
	if errors.Is(err, repository.ErrNotFound) {
		r.d.Log.Error("validated transaction without payment record", zap.String("transactionId", v.TransactionID))
		return GatewayOutcome{}, fmt.Errorf("%w: %s", ErrConsistencyFault, v.TransactionID)
	}
	if err != nil {
		return GatewayOutcome{}, fmt.Errorf("find payment: %w", err)
	}

	out := GatewayOutcome{TransactionID: p.TransactionID}
	moved, err := r.d.Payments.MarkSuccess(ctx, p.TransactionID)
	if err != nil {
		return GatewayOutcome{}, fmt.Errorf("mark payment success: %w", err)
	}
	if !moved {
		out.AlreadySettled = true
		return out, nil
	}
	out.DeleteResult, out.Partial = r.clearCarts(ctx, p.TransactionID, p.CartIDs)

	r.publish(ctx, *p, model.MethodGateway, gatewayCurrency)
	metrics.Payments.WithLabelValues(model.MethodGateway, "settled").Inc()
	return out, nil
}

// clearCarts deletes ids and reports whether anything was left behind.  A
// store error is logged and reported as every id missing: the payment is
// already durable, so the caller must not see a plain failure.
func (r *PaymentReconciler) clearCarts(ctx context.Context, txID string, ids []string) (repository.CartDeletion, bool) {
	if len(ids) == 0 {
		return repository.CartDeletion{Acknowledged: true}, false
	}
	del, err := r.d.Carts.DeleteMany(ctx, ids)
	if err != nil {
		r.d.Log.Error("cart clean-up failed", zap.String("transactionId", txID), zap.Strings("cartIds", ids), zap.Error(err))
		return repository.CartDeletion{Missing: append([]string(nil), ids...)}, true
	}
	if len(del.Missing) > 0 {
		r.d.Log.Warn("cart clean-up incomplete", zap.String("transactionId", txID), zap.Strings("missingCartIds", del.Missing))
		return del, true
	}
	return del, false
}

func (r *PaymentReconciler) publish(ctx context.Context, p model.Payment, method, currency string) {
	ev := q.PaymentCompletedEvent{
		TransactionID: p.TransactionID,
		Email:         p.Email,
		Amount:        p.Price,
		AmountCents:   MinorUnits(p.Price),
		Currency:      currency,
		Method:        method,
		CartIDs:       p.CartIDs,
		MenuItemIDs:   p.MenuItemIDs,
		CompletedAt:   r.now().UTC(),
	}
	if err := r.d.Events.PublishPaymentCompleted(ctx, ev); err != nil {
		r.d.Log.Warn("payment event not published", zap.String("transactionId", p.TransactionID), zap.Error(err))
	}
}
