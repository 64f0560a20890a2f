package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Encoder renders a query string. url.Values satisfies it.
type Encoder interface {
	Encode() string
}

// TokenSource supplies the credential attached to protected calls.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() string

// Token implements TokenSource.
func (f TokenFunc) Token() string { return f() }

// Fetcher makes REST calls to the events backend. Protected calls carry the
// current bearer credential; a 401 on any of them runs the teardown callback
// with that credential before the failure is returned.
type Fetcher struct {
	baseURL        string
	tokens         TokenSource
	onUnauthorized func(token string)
	client         *http.Client
	log            *zap.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *Fetcher) { f.client = c }
}

// WithTimeout sets the per-request timeout of the default client.
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) { f.client.Timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) FetcherOption {
	return func(f *Fetcher) { f.log = l }
}

// NewFetcher creates a fetcher targeting baseURL (e.g. "http://127.0.0.1:5000").
// onUnauthorized receives the credential the rejected request carried, which
// may no longer be current. It may be nil.
func NewFetcher(baseURL string, tokens TokenSource, onUnauthorized func(token string), opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		baseURL:        strings.TrimRight(baseURL, "/"),
		tokens:         tokens,
		onUnauthorized: onUnauthorized,
		client:         &http.Client{Timeout: 10 * time.Second},
		log:            zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Do performs a protected call. query may be nil; body is JSON-encoded when
// non-nil; the response is decoded into out when out is non-nil.
//
// A 401 response invokes the teardown callback with the credential that was
// sent and then returns ErrUnauthorized. Other non-2xx responses return
// *RequestError; transport failures return *NetworkError. Nothing is retried.
func (f *Fetcher) Do(ctx context.Context, method, path string, query Encoder, body, out any) error {
	req, err := f.newRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	tok := f.token()
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return f.transportError(method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		io.Copy(io.Discard, resp.Body)
		f.log.Info("authorization failure, tearing down session",
			zap.String("method", method), zap.String("path", path))
		if f.onUnauthorized != nil {
			f.onUnauthorized(tok)
		}
		return fmt.Errorf("%s %s: %w", method, path, ErrUnauthorized)
	}
	return f.decode(method, path, resp, out)
}

// DoPublic performs a call to an unauthenticated endpoint. No credential is
// attached and a 401 is an ordinary *RequestError.
func (f *Fetcher) DoPublic(ctx context.Context, method, path string, body, out any) error {
	req, err := f.newRequest(ctx, method, path, nil, body)
	if err != nil {
		return err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return f.transportError(method, path, err)
	}
	defer resp.Body.Close()
	return f.decode(method, path, resp, out)
}

func (f *Fetcher) token() string {
	if f.tokens == nil {
		return ""
	}
	return f.tokens.Token()
}

func (f *Fetcher) newRequest(ctx context.Context, method, path string, query Encoder, body any) (*http.Request, error) {
	target := f.baseURL + path
	if query != nil {
		if enc := query.Encode(); enc != "" {
			target += "?" + enc
		}
	}

	var rdr io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding %s %s body: %w", method, path, err)
		}
		rdr = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, rdr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (f *Fetcher) transportError(method, path string, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	f.log.Warn("request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
	return &NetworkError{Op: method + " " + path, Err: err}
}

func (f *Fetcher) decode(method, path string, resp *http.Response, out any) error {
	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		re := &RequestError{Method: method, Path: path, Status: resp.StatusCode}
		var msg messageResponse
		if json.Unmarshal(data, &msg) == nil {
			re.Message = msg.Error
			if re.Message == "" {
				re.Message = msg.Message
			}
		}
		f.log.Debug("request rejected",
			zap.String("method", method), zap.String("path", path),
			zap.Int("status", resp.StatusCode), zap.String("message", re.Message))
		return re
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s: %w", method, path, err)
	}
	return nil
}
