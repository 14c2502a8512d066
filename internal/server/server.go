package server

import (
    "context"
    "encoding/json"
    "errors"
    "log/slog"
    "net/http"
    "strings"
    "time"

    "github.com/go-chi/chi/v5"
    "github.com/go-chi/chi/v5/middleware"
    "github.com/google/uuid"
    "github.com/shopspring/decimal"

    "upsrates/internal/carrier"
    "upsrates/internal/commerce"
    "upsrates/internal/config"
    "upsrates/internal/rate"
    "upsrates/internal/store"
)

// QuoteRecorder keeps an audit trail of quotes. It may be nil.
type QuoteRecorder interface {
    Record(ctx context.Context, q store.Quote) error
}

// maxBodyBytes caps every decoded request body.
const maxBodyBytes = 1 << 20

type Server struct {
    engine      *rate.Engine
    flags       config.ServiceFlags
    quotes      QuoteRecorder
    log         *slog.Logger
    ratesBudget time.Duration
}

func New(engine *rate.Engine, flags config.ServiceFlags, quotes QuoteRecorder, logger *slog.Logger) http.Handler {
    return NewWithBudget(engine, flags, quotes, logger, 0)
}

// NewWithBudget bounds POST /rates to ratesBudget. Services not quoted
// before the deadline are reported as rate_unavailable failures. A zero
// budget leaves the request context as is.
func NewWithBudget(engine *rate.Engine, flags config.ServiceFlags, quotes QuoteRecorder, logger *slog.Logger, ratesBudget time.Duration) http.Handler {
    if logger == nil {
        logger = slog.Default()
    }
    s := &Server{
        engine:      engine,
        flags:       flags,
        quotes:      quotes,
        log:         logger.With("module", "http"),
        ratesBudget: ratesBudget,
    }
    r := chi.NewRouter()
    r.Use(requestIDMiddleware)
    r.Use(middleware.Logger)
    r.Get("/healthz", s.handleHealth)
    r.Get("/methods", s.handleListMethods)
    r.Post("/rates", s.handleRates)
    r.Post("/rates/match", s.handleMatch)
    r.Post("/rates/quote", s.handleQuote)
    return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
    w.WriteHeader(http.StatusOK)
    w.Write([]byte("ok"))
}

// Methods
type MethodResponse struct {
    Name        string `json:"name"`
    Handle      string `json:"handle"`
    Type        string `json:"type"`
    ServiceCode string `json:"service_code"`
    Enabled     bool   `json:"enabled"`
}

func (s *Server) handleListMethods(w http.ResponseWriter, r *http.Request) {
    methods := rate.EnabledMethods(s.flags, s.engine)
    res := make([]MethodResponse, 0, len(methods))
    for _, m := range methods {
        res = append(res, MethodResponse{
            Name:        m.Name(),
            Handle:      m.Handle(),
            Type:        m.Type(),
            ServiceCode: m.Service().String(),
            Enabled:     m.IsEnabled(),
        })
    }
    writeJSON(w, http.StatusOK, res)
}

// Rates
type RateRequest struct {
    ServiceCode string         `json:"service_code"`
    Order       commerce.Order `json:"order"`
}

type MatchResponse struct {
    ServiceCode string         `json:"service_code"`
    Matched     bool           `json:"matched"`
    Options     map[string]any `json:"options"`
}

type QuoteResponse struct {
    QuoteID     string          `json:"quote_id"`
    ServiceCode string          `json:"service_code"`
    Service     string          `json:"service"`
    Amount      decimal.Decimal `json:"amount"`
}

type RateFailure struct {
    ServiceCode string `json:"service_code"`
    Code        string `json:"code"`
}

type RatesResponse struct {
    Rates    []QuoteResponse `json:"rates"`
    Failures []RateFailure   `json:"failures"`
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
    req, code, ok := s.decodeRateRequest(w, r)
    if !ok {
        return
    }
    rule := rate.NewRule(code, s.engine)
    matched := rule.MatchOrder(r.Context(), req.Order)
    writeJSON(w, http.StatusOK, MatchResponse{
        ServiceCode: code.String(),
        Matched:     matched,
        Options:     rule.Options(),
    })
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
    req, code, ok := s.decodeRateRequest(w, r)
    if !ok {
        return
    }
    rule := rate.NewRule(code, s.engine)
    if !rule.MatchOrder(r.Context(), req.Order) {
        writeErrorJSON(w, http.StatusConflict, "not_matched", "order is not eligible for "+code.Name())
        return
    }
    quote, err := s.price(r.Context(), rule, code)
    if err != nil {
        status, errCode := errorStatus(err)
        writeErrorJSON(w, status, errCode, err.Error())
        return
    }
    writeJSON(w, http.StatusOK, quote)
}

// handleRates quotes every enabled method the order matches. Methods that
// fail pricing, or that the deadline cut short, are reported alongside the
// successful quotes.
func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
    var req RateRequest
    if !decodeJSON(w, r, &req) {
        return
    }
    ctx := r.Context()
    if s.ratesBudget > 0 {
        var cancel context.CancelFunc
        ctx, cancel = context.WithTimeout(ctx, s.ratesBudget)
        defer cancel()
    }
    res := RatesResponse{Rates: []QuoteResponse{}, Failures: []RateFailure{}}
    for _, code := range rate.ListEnabledServices(s.flags) {
        m := rate.NewMethod(code, s.engine)
        for _, rule := range m.Rules() {
            if !rule.IsEnabled() {
                continue
            }
            if ctx.Err() != nil {
                res.Failures = append(res.Failures, RateFailure{ServiceCode: code.String(), Code: "rate_unavailable"})
                continue
            }
            if !rule.MatchOrder(ctx, req.Order) {
                // validation cut off by the deadline is not a real miss
                if ctx.Err() != nil {
                    res.Failures = append(res.Failures, RateFailure{ServiceCode: code.String(), Code: "rate_unavailable"})
                }
                continue
            }
            quote, err := s.price(ctx, rule, code)
            if err != nil {
                _, errCode := errorStatus(err)
                res.Failures = append(res.Failures, RateFailure{ServiceCode: code.String(), Code: errCode})
                continue
            }
            res.Rates = append(res.Rates, quote)
        }
    }
    writeJSON(w, http.StatusOK, res)
}

func (s *Server) decodeRateRequest(w http.ResponseWriter, r *http.Request) (RateRequest, carrier.ServiceCode, bool) {
    var req RateRequest
    if !decodeJSON(w, r, &req) {
        return req, "", false
    }
    code := carrier.ServiceCode(strings.TrimSpace(req.ServiceCode))
    if !code.Known() {
        writeErrorJSON(w, http.StatusBadRequest, "invalid_service", "unknown service_code")
        return req, "", false
    }
    if !s.enabled(code) {
        writeErrorJSON(w, http.StatusNotFound, "service_not_enabled", code.Name()+" is not enabled")
        return req, "", false
    }
    return req, code, true
}

// decodeJSON reads at most maxBodyBytes of the request body into v and
// writes the error response itself when that fails.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
    r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
    if err := json.NewDecoder(r.Body).Decode(v); err != nil {
        var tooLarge *http.MaxBytesError
        if errors.As(err, &tooLarge) {
            writeErrorJSON(w, http.StatusRequestEntityTooLarge, "request_too_large", "request body too large")
            return false
        }
        writeErrorJSON(w, http.StatusBadRequest, "invalid_json", "invalid json")
        return false
    }
    return true
}

func (s *Server) enabled(code carrier.ServiceCode) bool {
    for _, c := range rate.ListEnabledServices(s.flags) {
        if c == code {
            return true
        }
    }
    return false
}

func (s *Server) price(ctx context.Context, rule rate.ShippingRule, code carrier.ServiceCode) (QuoteResponse, error) {
    amount, err := rule.BaseRate(ctx)
    q := store.Quote{
        ID:          uuid.New(),
        RequestID:   requestIDFromContext(ctx),
        ServiceCode: code.String(),
        Outcome:     store.OutcomeQuoted,
        CreatedAt:   time.Now().UTC(),
    }
    opts := rule.Options()
    q.DestinationPostal, _ = opts["postal_code"].(string)
    q.Weight, _ = opts["weight"].(float64)
    q.Height, _ = opts["height"].(float64)
    q.Width, _ = opts["width"].(float64)
    q.Length, _ = opts["length"].(float64)
    if err != nil {
        q.Outcome = store.OutcomeUnavailable
    } else {
        q.Amount = &amount
    }
    s.record(ctx, q)
    if err != nil {
        return QuoteResponse{}, err
    }
    return QuoteResponse{
        QuoteID:     q.ID.String(),
        ServiceCode: code.String(),
        Service:     code.Name(),
        Amount:      amount,
    }, nil
}

func (s *Server) record(ctx context.Context, q store.Quote) {
    if s.quotes == nil {
        return
    }
    // the audit row outlives a request deadline that has already fired
    if err := s.quotes.Record(context.WithoutCancel(ctx), q); err != nil {
        s.log.WarnContext(ctx, "failed to record quote", "quote_id", q.ID.String(), "error", err.Error())
    }
}

func errorStatus(err error) (int, string) {
    switch {
    case errors.Is(err, rate.ErrConfiguration):
        return http.StatusInternalServerError, "configuration_error"
    case errors.Is(err, rate.ErrNotMatched):
        return http.StatusConflict, "not_matched"
    case errors.Is(err, rate.ErrRateUnavailable):
        return http.StatusServiceUnavailable, "rate_unavailable"
    default:
        return http.StatusInternalServerError, "internal_error"
    }
}

func writeJSON(w http.ResponseWriter, status int, v any) {
    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(status)
    _ = json.NewEncoder(w).Encode(v)
}

// writeErrorJSON writes a standardized JSON error response:
// {"error": {"code": string, "message": string}}
func writeErrorJSON(w http.ResponseWriter, status int, code string, message string) {
    writeJSON(w, status, map[string]any{
        "error": map[string]string{
            "code":    code,
            "message": message,
        },
    })
}

type requestIDKey struct{}

// requestIDMiddleware ensures X-Request-ID is set on the response.
// If provided in the request header, it is propagated; otherwise a UUID is generated.
func requestIDMiddleware(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        rid := strings.TrimSpace(r.Header.Get("X-Request-ID"))
        if rid == "" {
            rid = uuid.New().String()
        }
        w.Header().Set("X-Request-ID", rid)
        ctx := context.WithValue(r.Context(), requestIDKey{}, rid)
        next.ServeHTTP(w, r.WithContext(ctx))
    })
}

func requestIDFromContext(ctx context.Context) string {
    rid, _ := ctx.Value(requestIDKey{}).(string)
    return rid
}
