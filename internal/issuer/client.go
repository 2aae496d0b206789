package issuer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tarameteo/internal/apperr"
	"tarameteo/internal/models"
)

// Client вызывает POST /v1/certs у запущенного issuer.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// Mint отправляет запрос. TTLDays == 0: срок по умолчанию на стороне issuer.
func (c *Client) Mint(ctx context.Context, req MintRequest) (*MintResponse, error) {
	body := map[string]any{"device_id": req.DeviceID}
	if req.TTLDays != 0 {
		body["ttl_days"] = req.TTLDays
	}
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	hr, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/certs", bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	hr.Header.Set("Content-Type", "application/json")
	hr.Header.Set("Authorization", "Bearer "+c.Token)

	res, err := c.HTTP.Do(hr)
	if err != nil {
		return nil, apperr.Wrap(apperr.CryptoUnavailable, err, "issuer unreachable")
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, decodeProblem(res)
	}
	var out MintResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, apperr.Wrap(apperr.Internal, err, "decode issuer response")
	}
	return &out, nil
}

func decodeProblem(res *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(res.Body, 1<<14))
	var p models.Problem
	msg := strings.TrimSpace(string(data))
	if json.Unmarshal(data, &p) == nil && p.Detail != "" {
		msg = p.Detail
	}
	if msg == "" {
		msg = res.Status
	}
	return apperr.New(kindForStatus(res.StatusCode), msg)
}

func kindForStatus(code int) apperr.Kind {
	switch code {
	case http.StatusUnauthorized:
		return apperr.Unauthenticated
	case http.StatusForbidden:
		return apperr.Forbidden
	case http.StatusNotFound:
		return apperr.NotFound
	case http.StatusConflict:
		return apperr.AlreadyExists
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return apperr.InvalidInput
	case http.StatusServiceUnavailable:
		return apperr.CryptoUnavailable
	default:
		return apperr.Internal
	}
}
