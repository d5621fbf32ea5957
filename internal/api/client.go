// Package api implements the typed gateway to the finance tracker service.
// Every call serializes JSON, attaches the bearer credential when one is
// present, and normalizes failures into the RemoteError taxonomy. Retry
// policy belongs to callers; this layer never retries.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"fintrack/internal/log"
)

// CredentialSource supplies the bearer credential for outbound calls.
// An empty string means no credential is present and the header is omitted.
type CredentialSource interface {
	Credential() string
}

type Client struct {
	baseURL string
	http    *http.Client
	creds   CredentialSource
	logger  *log.Logger
}

// NewClient creates a gateway rooted at baseURL. creds may be nil for a
// client that never authenticates (register/login only).
func NewClient(baseURL string, timeout time.Duration, creds CredentialSource, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		creds:   creds,
		logger:  logger.WithComponent(log.ComponentGateway),
	}
}

// call performs one JSON round trip. body and out may be nil. Non-2xx
// responses and transport failures come back as *RemoteError.
func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.creds != nil {
		if cred := c.creds.Credential(); cred != "" {
			req.Header.Set("Authorization", "Bearer "+cred)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "Request failed",
			log.FieldMethod, method,
			log.FieldPath, path,
			log.FieldError, err)
		return &RemoteError{Kind: NetworkFailure, cause: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &RemoteError{Kind: NetworkFailure, cause: err}
	}

	c.logger.DebugContext(ctx, "Request completed",
		log.FieldMethod, method,
		log.FieldPath, path,
		log.FieldStatus, resp.StatusCode,
		log.FieldDuration, time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RemoteError{
			Kind:   ServerRejected,
			Status: resp.StatusCode,
			Detail: decodeDetail(data),
		}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response body: %w", err)
	}
	return nil
}

// decodeDetail extracts the "detail" field from an error body. Bodies that
// are not JSON objects keep their raw text as the message.
func decodeDetail(data []byte) ErrorDetail {
	var envelope struct {
		Detail ErrorDetail `json:"detail"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil {
		return envelope.Detail
	}
	var d ErrorDetail
	if text := strings.TrimSpace(string(data)); text != "" {
		d.text = text
	}
	return d
}
