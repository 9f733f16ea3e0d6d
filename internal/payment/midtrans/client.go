package midtrans

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type Config struct {
	ServerKey      string
	SnapURL        string
	APIURL         string
	SessionTimeout time.Duration
	StatusTimeout  time.Duration
	CACertPath     string
}

type Client struct {
	cfg  Config
	http *http.Client
}

// APIError is returned when the gateway answers with an error status, either
// as the HTTP code or as status_code inside a 200 body.
type APIError struct {
	StatusCode int
	Messages   []string
	Body       string
}

func (e *APIError) Error() string {
	if len(e.Messages) > 0 {
		return fmt.Sprintf("midtrans: status %d: %s", e.StatusCode, strings.Join(e.Messages, "; "))
	}
	return fmt.Sprintf("midtrans: status %d: %s", e.StatusCode, e.Body)
}

func NewClient(cfg Config) (*Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if cfg.CACertPath != "" {
		pem, err := os.ReadFile(filepath.Clean(cfg.CACertPath))
		if err != nil {
			return nil, fmt.Errorf("read CA bundle %s: %w", cfg.CACertPath, err)
		}
		pool, err := x509.SystemCertPool()
		if err != nil || pool == nil {
			pool = x509.NewCertPool()
		}
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in %s", cfg.CACertPath)
		}
		transport.TLSClientConfig = &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}
	}

	return &Client{cfg: cfg, http: &http.Client{Transport: transport}}, nil
}

// NewClientWithHTTP is used by tests to point the client at an httptest server.
func NewClientWithHTTP(cfg Config, httpClient *http.Client) *Client {
	return &Client{cfg: cfg, http: httpClient}
}

// CreateSnapTransaction opens a Snap checkout session.
func (c *Client) CreateSnapTransaction(ctx context.Context, req SnapRequest) (*SnapResponse, error) {
	ctx, cancel := withTimeout(ctx, c.cfg.SessionTimeout)
	defer cancel()

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	var resp SnapResponse
	if err := c.do(ctx, http.MethodPost, c.cfg.SnapURL, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TransactionStatus queries GET /v2/{order_id}/status.
func (c *Client) TransactionStatus(ctx context.Context, orderID string) (*StatusResponse, error) {
	ctx, cancel := withTimeout(ctx, c.cfg.StatusTimeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/v2/%s/status", strings.TrimRight(c.cfg.APIURL, "/"), url.PathEscape(orderID))

	var resp StatusResponse
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return nil, err
	}

	// The status API reports missing orders and auth errors inside a 200.
	if resp.TransactionStatus == "" && (strings.HasPrefix(resp.StatusCode, "4") || strings.HasPrefix(resp.StatusCode, "5")) {
		code := 0
		fmt.Sscanf(resp.StatusCode, "%d", &code)
		return nil, &APIError{StatusCode: code, Messages: []string{resp.StatusMessage}}
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(c.cfg.ServerKey+":")))

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("midtrans %s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read midtrans response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
		var payload struct {
			ErrorMessages []string `json:"error_messages"`
		}
		if json.Unmarshal(raw, &payload) == nil {
			apiErr.Messages = payload.ErrorMessages
		}
		return apiErr
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode midtrans response: %w", err)
	}
	return nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
