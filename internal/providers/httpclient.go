package providers

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	dserrors "github.com/systmms/secretsadapter/internal/errors"
	"github.com/systmms/secretsadapter/internal/logging"
)

const (
	httpRetryCount   = 2
	httpRetryWait    = 200 * time.Millisecond
	httpRetryMaxWait = 2 * time.Second
	maxErrorBodySize = 512
)

// httpClientOptions configures the REST clients shared by the HTTP-based adapters.
type httpClientOptions struct {
	BaseURL            string
	Timeout            time.Duration
	CACert             string
	InsecureSkipVerify bool

	// Logger receives resty's diagnostics at debug level
	Logger *logging.Logger

	// Secrets are redacted from diagnostics and error bodies
	Secrets []string
}

// newRestClient creates a resty client rooted at BaseURL. Idempotent reads are
// retried on transient failures; writes are sent once.
func newRestClient(opts httpClientOptions) (*resty.Client, error) {
	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}

	// Configure custom CA if provided
	if opts.CACert != "" {
		caCert, err := os.ReadFile(opts.CACert)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA certificate: %w", err)
		}

		caCertPool := x509.NewCertPool()
		if !caCertPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("failed to parse CA certificate")
		}
		tlsConfig.RootCAs = caCertPool
	}

	// Configure insecure skip verify if needed
	if opts.InsecureSkipVerify {
		tlsConfig.InsecureSkipVerify = true
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(timeoutOrDefault(opts.Timeout)).
		SetTLSClientConfig(tlsConfig).
		SetHeader("Accept", "application/json").
		SetRetryCount(httpRetryCount).
		SetRetryWaitTime(httpRetryWait).
		SetRetryMaxWaitTime(httpRetryMaxWait).
		AddRetryCondition(retryIdempotent).
		SetLogger(newRestyLogger(opts.Logger, opts.Secrets))

	return client, nil
}

// restyLogger sends resty's warnings and errors to the adapter logger at debug
// level. Request URLs and bodies can carry secrets, so every line is redacted.
type restyLogger struct {
	logger  *logging.Logger
	secrets []string
}

func newRestyLogger(logger *logging.Logger, secrets []string) *restyLogger {
	if logger == nil {
		logger = logging.Discard()
	}
	return &restyLogger{logger: logger, secrets: secrets}
}

func (l *restyLogger) Errorf(format string, v ...interface{}) { l.log(format, v...) }
func (l *restyLogger) Warnf(format string, v ...interface{})  { l.log(format, v...) }
func (l *restyLogger) Debugf(format string, v ...interface{}) { l.log(format, v...) }

func (l *restyLogger) log(format string, v ...interface{}) {
	msg := strings.TrimSpace(fmt.Sprintf(format, v...))
	l.logger.Debug("http: %s", logging.Redact(msg, l.secrets))
}

// retryIdempotent retries GET requests that failed transiently.
func retryIdempotent(resp *resty.Response, err error) bool {
	if resp == nil || resp.Request == nil || resp.Request.Method != http.MethodGet {
		return false
	}
	if err != nil {
		return dserrors.IsRetryable(err)
	}
	switch resp.StatusCode() {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// errorBody returns a bounded copy of an error response body for diagnostics, with
// secrets and the request's bearer token redacted.
func errorBody(resp *resty.Response, secrets ...string) string {
	if resp.Request != nil {
		secrets = append(secrets, resp.Request.Token)
	}
	body := logging.Redact(strings.TrimSpace(resp.String()), secrets)
	if len(body) > maxErrorBodySize {
		body = body[:maxErrorBodySize] + "..."
	}
	if body == "" {
		body = http.StatusText(resp.StatusCode())
	}
	return body
}
