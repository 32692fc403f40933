// Package relay talks to the ephemeral sync relay and tracks the lifetime of
// an issued transfer code on this device.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/attendance-tracker/internal/dto"
	appErrors "github.com/noah-isme/attendance-tracker/pkg/errors"
)

const (
	storePath    = "/sync/store"
	retrievePath = "/sync/retrieve"

	defaultTimeout = 15 * time.Second
	maxErrorBody   = 4 << 10
)

// ErrCodeNotFound is returned by Retrieve when the relay has no blob for the
// code: it never existed, was mistyped or has expired.
var ErrCodeNotFound = appErrors.ErrRelayCodeNotFound

// Client calls the relay HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient constructs a relay client for baseURL (scheme and host, no trailing path).
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// WithHTTPClient swaps the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	if hc != nil {
		c.http = hc
	}
	return c
}

// Store uploads blob and returns the issued code with its lifetime.
func (c *Client) Store(ctx context.Context, blob string) (dto.RelayStoreResponse, error) {
	body, err := json.Marshal(dto.RelayStoreRequest{Data: blob})
	if err != nil {
		return dto.RelayStoreResponse{}, fmt.Errorf("encode relay request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+storePath, bytes.NewReader(body))
	if err != nil {
		return dto.RelayStoreResponse{}, fmt.Errorf("build relay request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var out dto.RelayStoreResponse
	if err := c.do(req, &out); err != nil {
		return dto.RelayStoreResponse{}, err
	}
	if len(out.Code) != 6 || out.ExpiresIn <= 0 {
		return dto.RelayStoreResponse{}, unavailable(fmt.Errorf("relay returned code %q expiresIn %d", out.Code, out.ExpiresIn))
	}
	c.logger.Info("relay code received", zap.String("code", out.Code), zap.Int("expires_in", out.ExpiresIn))
	return out, nil
}

// Retrieve downloads the blob stored under code.
func (c *Client) Retrieve(ctx context.Context, code string) (string, error) {
	endpoint := c.baseURL + retrievePath + "?" + url.Values{"code": []string{code}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build relay request: %w", err)
	}

	var out dto.RelayRetrieveResponse
	if err := c.do(req, &out); err != nil {
		return "", err
	}
	c.logger.Info("relay blob received", zap.String("code", code), zap.Int("bytes", len(out.Data)))
	return out.Data, nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return unavailable(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body dto.RelayErrorResponse
		_ = json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&body)
		switch {
		case resp.StatusCode == http.StatusNotFound:
			return ErrCodeNotFound
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			msg := body.Error
			if msg == "" {
				msg = http.StatusText(resp.StatusCode)
			}
			return appErrors.Clone(appErrors.ErrValidation, msg)
		default:
			return unavailable(fmt.Errorf("relay responded %d: %s", resp.StatusCode, body.Error))
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return unavailable(fmt.Errorf("decode relay response: %w", err))
	}
	return nil
}

func unavailable(err error) error {
	return appErrors.Wrap(err, appErrors.ErrRelayUnavailable.Code, appErrors.ErrRelayUnavailable.Status, appErrors.ErrRelayUnavailable.Message)
}
