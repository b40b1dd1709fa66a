package desktop

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const maxRetries = 3

// LeaseDecision mirrors the API's lock response. Success is false when the
// video is held by someone else.
type LeaseDecision struct {
	Success     bool       `json:"success"`
	VideoID     string     `json:"video_id"`
	LockedBy    *string    `json:"locked_by"`
	LockedAt    *time.Time `json:"locked_at"`
	LockedUntil *time.Time `json:"locked_until"`
	DownloadURL string     `json:"download_url"`
	Message     string     `json:"message"`
}

// APIError is a non-retryable failure response from the API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("api returned %d", e.Status)
	}
	return fmt.Sprintf("api returned %d (%s): %s", e.Status, e.Code, e.Message)
}

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// StartAnnotation asks the API for the annotation lease on videoID. A denial
// is returned as a decision with Success=false, not as an error.
func (c *Client) StartAnnotation(ctx context.Context, videoID, token string, leaseMinutes int) (*LeaseDecision, error) {
	endpoint := c.baseURL + "/api/annotations/annotate/" + url.PathEscape(videoID)
	if leaseMinutes > 0 {
		endpoint += "?timeout_minutes=" + strconv.Itoa(leaseMinutes)
	}

	var decision *LeaseDecision
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusConflict:
			var out LeaseDecision
			if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
				return backoff.Permanent(fmt.Errorf("decode lease response: %w", err))
			}
			decision = &out
			return nil
		case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
			_, _ = io.Copy(io.Discard, resp.Body)
			return &APIError{Status: resp.StatusCode}
		default:
			return backoff.Permanent(decodeAPIError(resp))
		}
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxInterval = 2 * time.Second
	if err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, maxRetries), ctx)); err != nil {
		return nil, err
	}
	return decision, nil
}

func decodeAPIError(resp *http.Response) error {
	var env struct {
		Error struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		} `json:"error"`
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(body, &env); err != nil {
		return &APIError{Status: resp.StatusCode}
	}
	return &APIError{Status: resp.StatusCode, Code: env.Error.Code, Message: env.Error.Message}
}

// IsUnauthorized reports whether err is a 401 from the API.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}
