package carrier

import (
    "bytes"
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "log/slog"
    "net/http"
    "strings"
    "time"
)

// Client is the UPS API surface the rate engine consumes.
type Client interface {
    ValidateAddress(ctx context.Context, creds Credentials, addr Address) ([]AddressCandidate, error)
    Rate(ctx context.Context, creds Credentials, shipment Shipment) (RateResponse, error)
}

// StatusError is returned when UPS answers with a non-2xx status.
type StatusError struct {
    StatusCode int
    Body       string
}

func (e *StatusError) Error() string {
    return fmt.Sprintf("ups: unexpected status %d: %s", e.StatusCode, e.Body)
}

// HTTPClient talks to the UPS JSON endpoints. Every call is bounded by
// the http.Client timeout and retried once on a transient failure.
type HTTPClient struct {
    baseURL string
    http    *http.Client
    log     *slog.Logger
    backoff time.Duration
}

func NewHTTPClient(baseURL string, timeout time.Duration, logger *slog.Logger) *HTTPClient {
    if logger == nil {
        logger = slog.Default()
    }
    return &HTTPClient{
        baseURL: strings.TrimRight(baseURL, "/"),
        http:    &http.Client{Timeout: timeout},
        log:     logger.With("module", "carrier"),
        backoff: 200 * time.Millisecond,
    }
}

type addressValidationRequest struct {
    Address Address `json:"Address"`
}

type addressValidationResponse struct {
    Candidates []AddressCandidate `json:"Candidates"`
}

type rateRequest struct {
    Shipment Shipment `json:"Shipment"`
}

func (c *HTTPClient) ValidateAddress(ctx context.Context, creds Credentials, addr Address) ([]AddressCandidate, error) {
    var res addressValidationResponse
    if err := c.post(ctx, "/addressvalidation", creds, addressValidationRequest{Address: addr}, &res); err != nil {
        return nil, err
    }
    return res.Candidates, nil
}

func (c *HTTPClient) Rate(ctx context.Context, creds Credentials, shipment Shipment) (RateResponse, error) {
    var res RateResponse
    if err := c.post(ctx, "/rating", creds, rateRequest{Shipment: shipment}, &res); err != nil {
        return RateResponse{}, err
    }
    return res, nil
}

func (c *HTTPClient) post(ctx context.Context, path string, creds Credentials, in, out any) error {
    body, err := json.Marshal(in)
    if err != nil {
        return fmt.Errorf("ups: marshal request: %w", err)
    }
    err = c.send(ctx, path, creds, body, out)
    if !IsRetryable(err) {
        return err
    }
    c.log.WarnContext(ctx, "retrying ups call", "path", path, "error", err.Error())
    select {
    case <-ctx.Done():
        return err
    case <-time.After(c.backoff):
    }
    return c.send(ctx, path, creds, body, out)
}

func (c *HTTPClient) send(ctx context.Context, path string, creds Credentials, body []byte, out any) error {
    req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
    if err != nil {
        return fmt.Errorf("ups: build request: %w", err)
    }
    req.Header.Set("Content-Type", "application/json")
    req.Header.Set("Accept", "application/json")
    req.Header.Set("AccessLicenseNumber", creds.AccessKey)
    req.Header.Set("Username", creds.User)
    req.Header.Set("Password", creds.Password)

    resp, err := c.http.Do(req)
    if err != nil {
        return fmt.Errorf("ups: call %s: %w", path, err)
    }
    defer resp.Body.Close()

    if resp.StatusCode < 200 || resp.StatusCode > 299 {
        snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
        return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
    }
    if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
        if errors.Is(err, io.EOF) {
            return nil
        }
        return fmt.Errorf("ups: decode %s response: %w", path, err)
    }
    return nil
}
