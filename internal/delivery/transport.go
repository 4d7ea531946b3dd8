// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package delivery

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	userAgent       = "lexdesk-webhook/1"
	headerEvent     = "X-LexDesk-Event"
	headerSignature = "X-LexDesk-Signature"

	// maxResponseBody caps how much of an endpoint's reply is stored.
	maxResponseBody = 64 << 10
)

// Outcome is the classified result of one delivery attempt. Response is
// the opaque payload stored on the execution record.
type Outcome struct {
	Success    bool
	StatusCode int
	Response   json.RawMessage
}

// Transport performs the outbound call for one attempt. Implementations
// must map every failure, including timeouts, to an unsuccessful Outcome.
type Transport interface {
	Send(ctx context.Context, url string, p *Payload) Outcome
}

// HTTPTransport posts payloads as JSON.
type HTTPTransport struct {
	client *http.Client
	secret []byte
}

// NewHTTPTransport creates a transport with the given per-request timeout.
// When secret is non-empty every request carries an HMAC-SHA256 signature
// of its body.
func NewHTTPTransport(timeout time.Duration, secret string) *HTTPTransport {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPTransport{
		client: &http.Client{Timeout: timeout},
		secret: []byte(secret),
	}
}

// Sign returns the signature header value for body.
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Send posts p to url. A 2xx status is a success.
func (t *HTTPTransport) Send(ctx context.Context, url string, p *Payload) Outcome {
	body, err := json.Marshal(p)
	if err != nil {
		return failure(0, fmt.Errorf("webhook marshal: %w", err), nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return failure(0, fmt.Errorf("webhook request: %w", err), nil)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set(headerEvent, p.Event)
	if len(t.secret) > 0 {
		req.Header.Set(headerSignature, Sign(t.secret, body))
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return failure(0, fmt.Errorf("webhook http: %w", err), nil)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return failure(resp.StatusCode, fmt.Errorf("webhook read body: %w", err), nil)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return failure(resp.StatusCode, fmt.Errorf("webhook endpoint returned status %d", resp.StatusCode), respBody)
	}
	return Outcome{
		Success:    true,
		StatusCode: resp.StatusCode,
		Response:   mustJSON(responseDoc{Status: resp.StatusCode, Body: bodyValue(respBody)}),
	}
}

type responseDoc struct {
	Status int    `json:"status,omitempty"`
	Error  string `json:"error,omitempty"`
	Body   any    `json:"body,omitempty"`
}

func failure(status int, err error, body []byte) Outcome {
	return Outcome{
		StatusCode: status,
		Response:   mustJSON(responseDoc{Status: status, Error: err.Error(), Body: bodyValue(body)}),
	}
}

// bodyValue keeps a JSON reply as JSON and anything else as a string.
// PostgreSQL jsonb rejects the NUL character, so a JSON reply escaping it
// is kept as a string and raw NUL bytes are replaced.
func bodyValue(body []byte) any {
	body = bytes.TrimSpace(bytes.ReplaceAll(body, []byte{0}, []byte("\uFFFD")))
	if len(body) == 0 {
		return nil
	}
	if json.Valid(body) && !bytes.Contains(body, []byte(`\u0000`)) {
		return json.RawMessage(body)
	}
	return string(body)
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`{"error":"unencodable response"}`)
	}
	return b
}
