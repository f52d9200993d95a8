package handler

import (
    "context"
    "errors"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/bistro-boss-server/internal/middleware"
    "github.com/iliyamo/bistro-boss-server/internal/model"
    "github.com/iliyamo/bistro-boss-server/internal/service"
)

// Reconciler is implemented by *service.PaymentReconciler.
type Reconciler interface {
    CreateIntent(ctx context.Context, price float64) (string, error)
    RecordPayment(ctx context.Context, p model.Payment) (service.RecordResult, error)
    InitiateGatewayPayment(ctx context.Context, p model.Payment) (service.GatewayStart, error)
    ValidateGatewayPayment(ctx context.Context, valID string) (service.GatewayOutcome, error)
}

// PaymentHistory is implemented by *repository.PaymentRepo.
type PaymentHistory interface {
    ListByEmail(ctx context.Context, email string) ([]model.Payment, error)
}

// PaymentHandler exposes both payment flows and the customer's history.
type PaymentHandler struct {
    Payments   PaymentHistory
    Reconciler Reconciler
    HistoryURL string // browser destination after a validated gateway payment
}

func NewPaymentHandler(p PaymentHistory, r Reconciler, historyURL string) *PaymentHandler {
    return &PaymentHandler{Payments: p, Reconciler: r, HistoryURL: historyURL}
}

type paymentReq struct {
    Email         string      `json:"email" validate:"required,email"`
    Price         interface{} `json:"price" validate:"required"`
    TransactionID string      `json:"transactionId"`
    Date          string      `json:"date"`
    CartIDs       []string    `json:"cartIds"`
    MenuItemIDs   []string    `json:"menuItemIds"`
    Status        string      `json:"status"`
}

func (r paymentReq) payment() (model.Payment, error) {
    p, err := price(r.Price)
    if err != nil {
        return model.Payment{}, service.ErrInvalidInput
    }
    return model.Payment{
        Email:         r.Email,
        Price:         p,
        TransactionID: r.TransactionID,
        Date:          r.Date,
        CartIDs:       nonNil(r.CartIDs),
        MenuItemIDs:   nonNil(r.MenuItemIDs),
        Status:        r.Status,
    }, nil
}

func nonNil(s []string) []string {
    if s == nil {
        return []string{}
    }
    return s
}

// History handles GET /payments/:email.  Callers may only read their own.
func (h *PaymentHandler) History(c echo.Context) error {
    email := c.Param("email")
    if email != middleware.CurrentEmail(c) {
        return c.JSON(http.StatusForbidden, echo.Map{"message": "Forbidden Access"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()
    list, err := h.Payments.ListByEmail(ctx, email)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, list)
}

// CreateIntent handles POST /create-payment-intent.
func (h *PaymentHandler) CreateIntent(c echo.Context) error {
    var req struct {
        Price interface{} `json:"price"`
    }
    if err := c.Bind(&req); err != nil {
        return writeError(c, err)
    }
    p, err := price(req.Price)
    if err != nil {
        return writeError(c, service.ErrInvalidInput)
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
    defer cancel()
    secret, err := h.Reconciler.CreateIntent(ctx, p)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"clientSecret": secret})
}

// Record handles POST /payments for completed card payments.
func (h *PaymentHandler) Record(c echo.Context) error {
    var req paymentReq
    if err := bindValid(c, &req); err != nil {
        return writeError(c, err)
    }
    p, err := req.payment()
    if err != nil {
        return writeError(c, err)
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
    defer cancel()
    res, err := h.Reconciler.RecordPayment(ctx, p)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, res)
}

// InitiateGateway handles POST /ssl-commerz-payments.
func (h *PaymentHandler) InitiateGateway(c echo.Context) error {
    var req paymentReq
    if err := bindValid(c, &req); err != nil {
        return writeError(c, err)
    }
    p, err := req.payment()
    if err != nil {
        return writeError(c, err)
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
    defer cancel()
    start, err := h.Reconciler.InitiateGatewayPayment(ctx, p)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, start)
}

// GatewaySuccess handles the browser callback POST /success-payment
// (form-encoded, carries val_id).  Only val_id is read from the callback;
// everything else comes from the gateway's validation answer.
func (h *PaymentHandler) GatewaySuccess(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
    defer cancel()
    if _, err := h.Reconciler.ValidateGatewayPayment(ctx, c.FormValue("val_id")); err != nil {
        return writeError(c, err)
    }
    return c.Redirect(http.StatusFound, h.HistoryURL)
}

// GatewayIPN handles the server-to-server notification POST
// /ipn-success-payment.  It runs the same validation and answers JSON.
func (h *PaymentHandler) GatewayIPN(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
    defer cancel()
    out, err := h.Reconciler.ValidateGatewayPayment(ctx, c.FormValue("val_id"))
    if errors.Is(err, service.ErrInvalidPayment) {
        return c.JSON(http.StatusOK, echo.Map{"message": "Invalid payment"})
    }
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "status":         model.PaymentSuccess,
        "transactionId":  out.TransactionID,
        "alreadySettled": out.AlreadySettled,
    })
}
