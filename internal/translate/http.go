package translate

import (
	"crypto/tls"
	"fmt"
	"io"
	"net/http"

	"github.com/kelriclink/VideoTranSrt/internal/logging"
)

// non-2xx response from a remote backend
type statusError struct {
	StatusCode int
	Body       string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, truncateString(e.Body, 200))
}

// http client shared by a backend. The per-attempt timeout is applied by
// the caller through the request context, so the client itself has none.
func newHTTPClient(opts Options, logger *logging.Logger) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.InsecureSkipVerify {
		logging.OrNop(logger).Warnw("tls certificate verification disabled for translator",
			"base_url", opts.BaseURL)
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}
	return &http.Client{Transport: transport}
}

// reads the body and turns non-2xx responses into a statusError
func readResponse(resp *http.Response) ([]byte, error) {
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &statusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
