package store

import (
    "context"
    "time"

    "github.com/google/uuid"
    "github.com/jackc/pgx/v5/pgxpool"
    "github.com/shopspring/decimal"
)

const (
    OutcomeQuoted      = "quoted"
    OutcomeUnavailable = "unavailable"
)

// Quote is one priced (or failed) rate lookup. Rows are audit only and are
// never read back to answer a rate request.
type Quote struct {
    ID                uuid.UUID
    RequestID         string
    ServiceCode       string
    DestinationPostal string
    Weight            float64
    Height            float64
    Width             float64
    Length            float64
    Amount            *decimal.Decimal
    Outcome           string
    CreatedAt         time.Time
}

type QuoteLog struct {
    db *pgxpool.Pool
}

func NewQuoteLog(db *pgxpool.Pool) *QuoteLog {
    return &QuoteLog{db: db}
}

func (l *QuoteLog) Record(ctx context.Context, q Quote) error {
    if q.ID == uuid.Nil {
        q.ID = uuid.New()
    }
    if q.CreatedAt.IsZero() {
        q.CreatedAt = time.Now().UTC()
    }
    var amount *string
    if q.Amount != nil {
        s := q.Amount.StringFixed(2)
        amount = &s
    }
    _, err := l.db.Exec(ctx, `
        INSERT INTO rate_quotes (
            id, request_id, service_code, destination_postal,
            weight, height, width, length, amount, outcome, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::text::numeric, $10, $11)
    `,
        q.ID,
        q.RequestID,
        q.ServiceCode,
        q.DestinationPostal,
        q.Weight,
        q.Height,
        q.Width,
        q.Length,
        amount,
        q.Outcome,
        q.CreatedAt,
    )
    return err
}
