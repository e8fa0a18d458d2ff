// Package signing authenticates the connector's own calls to the backend,
// on top of the user's bearer token.
package signing

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/adsynq/adsynq/internal/client"
)

// Modes
const (
	ModeNone   = "none"
	ModeSimple = "simple" // shared secret in a header
	ModeHMAC   = "hmac"   // HMAC-SHA256 over timestamp, method, path and body
)

const (
	HeaderSecret    = "X-Connector-Secret"
	HeaderSignature = "X-Connector-Signature"
	HeaderTimestamp = "X-Connector-Timestamp"
	HeaderNonce     = "X-Connector-Nonce"
)

var (
	ErrMissingSecret  = errors.New("signing secret is required")
	ErrMissingHeaders = errors.New("missing signature headers")
	ErrExpired        = errors.New("signature timestamp expired")
	ErrBadSignature   = errors.New("signature mismatch")
)

// Signer adds the connector's credentials to outbound requests.
type Signer struct {
	mode   string
	secret string
	now    func() time.Time
}

// New validates mode and returns a Signer. ModeNone and "" disable signing.
func New(mode, secret string) (*Signer, error) {
	switch mode {
	case "", ModeNone:
		return &Signer{mode: ModeNone, now: time.Now}, nil
	case ModeSimple, ModeHMAC:
		if secret == "" {
			return nil, fmt.Errorf("%s mode: %w", mode, ErrMissingSecret)
		}
		return &Signer{mode: mode, secret: secret, now: time.Now}, nil
	}
	return nil, fmt.Errorf("unsupported signing mode: %q", mode)
}

// Sign sets the credential headers on req. The body is read and restored.
func (s *Signer) Sign(req *http.Request) error {
	switch s.mode {
	case ModeSimple:
		req.Header.Set(HeaderSecret, s.secret)
		return nil
	case ModeHMAC:
		body, err := drainBody(req)
		if err != nil {
			return err
		}
		ts := s.now().Unix()
		req.Header.Set(HeaderSignature, s.signature(ts, req.Method, fullPath(req), body))
		req.Header.Set(HeaderTimestamp, strconv.FormatInt(ts, 10))
		req.Header.Set(HeaderNonce, uuid.NewString())
	}
	return nil
}

// Verify checks an HMAC-signed request no older than maxAge.
func (s *Signer) Verify(req *http.Request, maxAge time.Duration) error {
	if s.secret == "" {
		return ErrMissingSecret
	}
	sig := req.Header.Get(HeaderSignature)
	raw := req.Header.Get(HeaderTimestamp)
	if sig == "" || raw == "" {
		return ErrMissingHeaders
	}
	ts, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid timestamp: %w", err)
	}
	if s.now().Sub(time.Unix(ts, 0)) > maxAge {
		return ErrExpired
	}

	body, err := drainBody(req)
	if err != nil {
		return err
	}
	expected := s.signature(ts, req.Method, fullPath(req), body)
	if !hmac.Equal([]byte(sig), []byte(expected)) {
		return ErrBadSignature
	}
	return nil
}

func (s *Signer) signature(ts int64, method, path string, body []byte) string {
	h := hmac.New(sha256.New, []byte(s.secret))
	fmt.Fprintf(h, "%d%s%s", ts, method, path)
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

func drainBody(req *http.Request) ([]byte, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	body, err := io.ReadAll(req.Body)
	_ = req.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	req.Body = io.NopCloser(bytes.NewReader(body))
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}
	return body, nil
}

func fullPath(req *http.Request) string {
	if req.URL.RawQuery != "" {
		return req.URL.Path + "?" + req.URL.RawQuery
	}
	return req.URL.Path
}

// Doer signs each request before handing it to next.
type Doer struct {
	next   client.Doer
	signer *Signer
}

var _ client.Doer = (*Doer)(nil)

// Wrap returns next unchanged when s does not sign.
func Wrap(next client.Doer, s *Signer) client.Doer {
	if s == nil || s.mode == ModeNone {
		return next
	}
	return &Doer{next: next, signer: s}
}

func (d *Doer) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if err := d.signer.Sign(req); err != nil {
		return nil, err
	}
	return d.next.Do(ctx, req)
}
