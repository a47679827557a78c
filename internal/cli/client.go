package cli

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
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Caller identifies the account the command acts for. Amounts and
// targets ride in the request body next to it.
type Caller struct {
	UserID      string
	DisplayName string
}

func (c *Client) Checkin(ctx context.Context, who Caller) (map[string]any, error) {
	return c.post(ctx, "/v1/checkin", body(who, nil))
}

func (c *Client) CheckinInfo(ctx context.Context, who Caller) (map[string]any, error) {
	return c.get(ctx, "/v1/checkin/info", callerQuery(who))
}

func (c *Client) Jobs(ctx context.Context, who Caller) (map[string]any, error) {
	return c.get(ctx, "/v1/jobs", callerQuery(who))
}

func (c *Client) Work(ctx context.Context, who Caller, job string) (map[string]any, error) {
	return c.post(ctx, "/v1/work", body(who, map[string]any{"job": job}))
}

func (c *Client) Deposit(ctx context.Context, who Caller, amount int64) (map[string]any, error) {
	return c.post(ctx, "/v1/bank/deposit", body(who, map[string]any{"amount": amount}))
}

func (c *Client) Withdraw(ctx context.Context, who Caller, amount int64) (map[string]any, error) {
	return c.post(ctx, "/v1/bank/withdraw", body(who, map[string]any{"amount": amount}))
}

func (c *Client) Transfer(ctx context.Context, who Caller, toUserID string, amount int64) (map[string]any, error) {
	return c.post(ctx, "/v1/bank/transfer", body(who, map[string]any{
		"to_user_id": toUserID,
		"amount":     amount,
	}))
}

func (c *Client) BankInfo(ctx context.Context, who Caller) (map[string]any, error) {
	return c.get(ctx, "/v1/bank/info", callerQuery(who))
}

func (c *Client) Rob(ctx context.Context, who Caller, targetUserID string) (map[string]any, error) {
	return c.post(ctx, "/v1/rob", body(who, map[string]any{"target_user_id": targetUserID}))
}

func (c *Client) Rank(ctx context.Context, who Caller, metric string) (map[string]any, error) {
	q := callerQuery(who)
	if metric != "" {
		q.Set("metric", metric)
	}
	return c.get(ctx, "/v1/rank", q)
}

func (c *Client) Top(ctx context.Context, metric string, n int) (map[string]any, error) {
	q := url.Values{}
	if metric != "" {
		q.Set("metric", metric)
	}
	if n > 0 {
		q.Set("n", fmt.Sprintf("%d", n))
	}
	return c.get(ctx, "/v1/top", q)
}

func (c *Client) Profile(ctx context.Context, who Caller) (map[string]any, error) {
	return c.get(ctx, "/v1/profile", callerQuery(who))
}

func (c *Client) RunInterest(ctx context.Context) (map[string]any, error) {
	return c.post(ctx, "/v1/admin/interest", map[string]any{})
}

func body(who Caller, extra map[string]any) map[string]any {
	out := map[string]any{
		"user_id":      who.UserID,
		"display_name": who.DisplayName,
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func callerQuery(who Caller) url.Values {
	q := url.Values{}
	q.Set("user_id", who.UserID)
	if who.DisplayName != "" {
		q.Set("display_name", who.DisplayName)
	}
	return q
}

func (c *Client) get(ctx context.Context, path string, query url.Values) (map[string]any, error) {
	if len(query) > 0 {
		path += "?" + query.Encode()
	}
	return c.jsonRequest(ctx, http.MethodGet, path, nil)
}

func (c *Client) post(ctx context.Context, path string, in map[string]any) (map[string]any, error) {
	return c.jsonRequest(ctx, http.MethodPost, path, in)
}

func (c *Client) jsonRequest(ctx context.Context, method, path string, in any) (map[string]any, error) {
	var reqBody io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("api status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}
