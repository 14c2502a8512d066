package carrier

import (
    "context"
    "errors"
    "net"
    "net/http"
    "syscall"
)

// IsRetryable reports whether err is a transient failure worth one more try.
// UPS 5xx and throttling retry; 4xx (bad credentials, bad request) never do.
func IsRetryable(err error) bool {
    if err == nil {
        return false
    }
    if errors.Is(err, context.Canceled) {
        return false
    }
    return isRetryableStatus(err) || isRetryableNetworkError(err) || isRetryableSystemError(err)
}

func isRetryableStatus(err error) bool {
    var statusErr *StatusError
    if !errors.As(err, &statusErr) {
        return false
    }
    if statusErr.StatusCode == http.StatusTooManyRequests {
        return true
    }
    return statusErr.StatusCode >= 500 && statusErr.StatusCode < 600
}

func isRetryableNetworkError(err error) bool {
    var netErr net.Error
    if errors.As(err, &netErr) {
        return netErr.Timeout()
    }
    return false
}

func isRetryableSystemError(err error) bool {
    return errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET)
}
