// Package client is the supported way for user-facing surfaces (portal,
// browser extension backend) to redeem referral codes. It always calls the
// server endpoint; there is no client-trusted write path against the data
// store. Errors come back as the same domain sentinels the service returns,
// so callers can branch on kind without parsing messages.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hakudoge53/candilingo-sub001/internal/domain"
	"github.com/hakudoge53/candilingo-sub001/internal/domain/model"
)

// Sentinels re-exported so importers outside this module can branch on
// redemption outcomes with errors.Is.
var (
	ErrEmptyCode       = domain.ErrEmptyCode
	ErrUnauthenticated = domain.ErrUnauthenticated
	ErrInvalidCode     = domain.ErrInvalidCode
	ErrCodeExhausted   = domain.ErrCodeExhausted
	ErrAlreadyRedeemed = domain.ErrAlreadyRedeemed
	ErrStorage         = domain.ErrStorage
)

// IsRejected reports whether err is terminal for this (code, user) pair;
// retrying without changing input will not succeed.
func IsRejected(err error) bool {
	return domain.IsValidationErr(err) || domain.IsBusinessRejection(err)
}

// IsRetryable reports whether err is transient and worth retrying with
// backoff.
func IsRetryable(err error) bool {
	return domain.IsStorageErr(err)
}

type Client struct {
	baseURL string
	http    *http.Client
}

// New builds a client for the given server base URL, e.g. "https://api.example.com".
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// WithHTTPClient overrides the underlying HTTP client (tests, custom TLS).
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.http = h
	return c
}

type redeemRequest struct {
	Code string `json:"code"`
}

type redeemResponse struct {
	Success        bool      `json:"success"`
	Message        string    `json:"message"`
	DurationMonths int       `json:"duration_months"`
	ExpiresAt      time.Time `json:"expires_at"`
	Warnings       []string  `json:"warnings"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

// Redeem redeems code on behalf of the bearer of token. On success the
// result carries the granted window; callers should refetch the account
// profile (targeted invalidation) rather than reloading everything.
func (c *Client) Redeem(ctx context.Context, token, code string) (*model.RedemptionResult, error) {
	body, err := json.Marshal(redeemRequest{Code: code})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/referral/redeem", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		var ok redeemResponse
		if err := json.NewDecoder(resp.Body).Decode(&ok); err != nil {
			return nil, fmt.Errorf("%w: decode response: %v", domain.ErrStorage, err)
		}
		return &model.RedemptionResult{
			DurationMonths: ok.DurationMonths,
			ExpiresAt:      ok.ExpiresAt,
			Warnings:       ok.Warnings,
		}, nil
	}

	var e errorResponse
	_ = json.NewDecoder(resp.Body).Decode(&e)
	return nil, mapStatus(resp.StatusCode, e)
}

func mapStatus(status int, e errorResponse) error {
	switch status {
	case http.StatusUnauthorized:
		return domain.ErrUnauthenticated
	case http.StatusConflict:
		return domain.ErrAlreadyRedeemed
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: rate limited", domain.ErrStorage)
	case http.StatusBadRequest:
		switch e.Error {
		case "referral code is required":
			return domain.ErrEmptyCode
		case "referral code exhausted":
			return domain.ErrCodeExhausted
		default:
			return domain.ErrInvalidCode
		}
	default:
		if e.Error != "" {
			return fmt.Errorf("%w: %s", domain.ErrStorage, e.Error)
		}
		return domain.ErrStorage
	}
}
