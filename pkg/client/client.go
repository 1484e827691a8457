package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// creatorHeader carries the base64 creator blob. It must match the header
// ledgerd reads.
const creatorHeader = "X-Creator"

// Client is the recordledger SDK entry point.
type Client struct {
	base        string
	httpClient  *http.Client
	bearerToken string
	creator     string
}

// Option is a functional option for configuring a Client.
type Option func(*Client) error

// WithHTTPClient sets a custom http.Client, overriding any TLS options.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		c.httpClient = hc
		return nil
	}
}

// WithBearerToken attaches a caller token to every request.
func WithBearerToken(token string) Option {
	return func(c *Client) error {
		c.bearerToken = token
		return nil
	}
}

// WithCreator identifies the caller with a base64 creator blob sent in the
// X-Creator header. ledgerd only honours it when allow_creator_header is on.
func WithCreator(creatorBase64 string) Option {
	return func(c *Client) error {
		c.creator = creatorBase64
		return nil
	}
}

// WithMTLS configures the client for mutual TLS authentication using the
// provided PEM-encoded client certificate, private key, and CA certificate.
// ledgerd derives the caller's provider from the certificate's Organization.
func WithMTLS(certPEM, keyPEM, caPEM string) Option {
	return func(c *Client) error {
		clientCert, err := tls.X509KeyPair([]byte(certPEM), []byte(keyPEM))
		if err != nil {
			return fmt.Errorf("parse mTLS cert/key: %w", err)
		}

		pool := x509.NewCertPool()
		if caPEM != "" {
			if !pool.AppendCertsFromPEM([]byte(caPEM)) {
				return fmt.Errorf("failed to parse CA certificate PEM")
			}
		}

		c.httpClient = &http.Client{
			Transport: &http.Transport{TLSClientConfig: &tls.Config{
				Certificates: []tls.Certificate{clientCert},
				RootCAs:      pool,
				MinVersion:   tls.VersionTLS13,
			}},
			Timeout: 10 * time.Second,
		}
		return nil
	}
}

// New creates a Client for the ledgerd instance at base.
//
//	c, err := client.New("http://localhost:8080",
//	    client.WithBearerToken(token),
//	)
func New(base string, opts ...Option) (*Client, error) {
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	c := &Client{
		base:       base,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		if err := o(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// MustNew is like New but panics on error. Useful in tests and program init.
func MustNew(base string, opts ...Option) *Client {
	c, err := New(base, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// APIError is a non-2xx response from ledgerd. Kind is the ledger's error
// classification, e.g. "authorization_denied".
type APIError struct {
	StatusCode int
	Kind       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("server error %d: %s", e.StatusCode, e.Message)
}

// IsKind reports whether err is an APIError of the given kind.
func IsKind(err error, kind string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}

// Response is a successful contract invocation. Payload is left raw for the
// typed helpers to decode.
type Response struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Invoke runs function on the named contract with positional args.
func (c *Client) Invoke(ctx context.Context, contractName, function string, args ...string) (*Response, error) {
	if args == nil {
		args = []string{}
	}
	body, err := json.Marshal(map[string]any{"function": function, "args": args})
	if err != nil {
		return nil, fmt.Errorf("marshal invoke request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.base+"/api/v1/contracts/"+url.PathEscape(contractName)+"/invoke", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build invoke request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	respBody, err := c.do(req)
	if err != nil {
		return nil, err
	}
	var resp Response
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("decode invoke response: %w", err)
	}
	return &resp, nil
}

// invokeInto runs Invoke and decodes the payload into out when out is non-nil.
func (c *Client) invokeInto(ctx context.Context, out any, contractName, function string, args ...string) error {
	resp, err := c.Invoke(ctx, contractName, function, args...)
	if err != nil {
		return err
	}
	if out == nil || len(resp.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Payload, out); err != nil {
		return fmt.Errorf("decode %s.%s payload: %w", contractName, function, err)
	}
	return nil
}

// Contracts lists the contracts ledgerd hosts.
func (c *Client) Contracts(ctx context.Context) ([]string, error) {
	var out struct {
		Contracts []string `json:"contracts"`
	}
	if err := c.getJSON(ctx, "/api/v1/contracts", &out); err != nil {
		return nil, err
	}
	return out.Contracts, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	body, err := c.do(req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// do executes an HTTP request with the configured credentials.
func (c *Client) do(req *http.Request) ([]byte, error) {
	req.Header.Set("Accept", "application/json")
	if c.bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearerToken)
	}
	if c.creator != "" {
		req.Header.Set(creatorHeader, c.creator)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: string(body)}
		var payload struct {
			Error string `json:"error"`
			Kind  string `json:"kind"`
		}
		if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
			apiErr.Kind, apiErr.Message = payload.Kind, payload.Error
		}
		return nil, apiErr
	}
	return body, nil
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }
