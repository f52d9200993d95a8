package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"

    "github.com/iliyamo/bistro-boss-server/internal/metrics"
    "github.com/iliyamo/bistro-boss-server/internal/repository"
)

// LedgerWriter is satisfied by *repository.LedgerRepo.
type LedgerWriter interface {
    Record(ctx context.Context, e repository.LedgerEntry) (bool, error)
}

// LedgerConsumer mirrors payment.completed events into the ledger.
type LedgerConsumer struct {
    URL    string
    Ledger LedgerWriter
    Log    *zap.Logger
}

// Run connects to RabbitMQ, declares the durable queue and consumes until
// ctx is cancelled, reconnecting with exponential backoff (capped at 30s)
// whenever the broker goes away.  Messages that cannot be decoded are
// rejected without requeue; ledger write failures are requeued.
func (lc *LedgerConsumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        if ctx.Err() != nil {
            return ctx.Err()
        }
        conn, err := amqp.Dial(lc.URL)
        if err != nil {
            lc.Log.Warn("ledger-consumer: dial failed", zap.Error(err), zap.Duration("retry_in", backoff))
            if !sleepCtx(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        err = lc.consume(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        lc.Log.Warn("ledger-consumer: consume loop ended; reconnecting", zap.Error(err))
        if !sleepCtx(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func (lc *LedgerConsumer) consume(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        lc.Log.Warn("ledger-consumer: set QoS failed", zap.Error(err))
    }
    if _, err := ch.QueueDeclare(PaymentCompletedQueue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(PaymentCompletedQueue, "bistro-ledger", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            err := lc.Handle(ctx, d.Body)
            switch {
            case err == nil:
                _ = d.Ack(false)
            case errors.Is(err, errMalformed):
                lc.Log.Error("ledger-consumer: dropping malformed message", zap.Error(err))
                _ = d.Nack(false, false)
            default:
                lc.Log.Error("ledger-consumer: ledger write failed", zap.Error(err))
                _ = d.Nack(false, !d.Redelivered) // one retry, then drop
            }
        }
    }
}

var errMalformed = errors.New("malformed payment event")

// Handle decodes one event body and writes it to the ledger.
func (lc *LedgerConsumer) Handle(ctx context.Context, body []byte) error {
    var ev PaymentCompletedEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        metrics.LedgerEvents.WithLabelValues("failed").Inc()
        return fmt.Errorf("%w: %v", errMalformed, err)
    }
    if ev.TransactionID == "" {
        metrics.LedgerEvents.WithLabelValues("failed").Inc()
        return fmt.Errorf("%w: missing transaction id", errMalformed)
    }
    completed := ev.CompletedAt
    if completed.IsZero() {
        completed = time.Now().UTC()
    }

    ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
    defer cancel()
    inserted, err := lc.Ledger.Record(ctx, repository.LedgerEntry{
        TransactionID: ev.TransactionID,
        Email:         ev.Email,
        AmountCents:   ev.AmountCents,
        Currency:      ev.Currency,
        Method:        ev.Method,
        ItemCount:     len(ev.MenuItemIDs),
        CompletedAt:   completed,
    })
    if err != nil {
        metrics.LedgerEvents.WithLabelValues("failed").Inc()
        return err
    }
    if inserted {
        metrics.LedgerEvents.WithLabelValues("recorded").Inc()
    } else {
        metrics.LedgerEvents.WithLabelValues("duplicate").Inc()
        lc.Log.Debug("ledger-consumer: duplicate event", zap.String("transactionId", ev.TransactionID))
    }
    return nil
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}
