package oanda

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	json "github.com/goccy/go-json"
)

// RestClient 是Client的HTTP实现，账户作用域
type RestClient struct {
	endpoint  string
	token     string
	accountID string
	hc        *http.Client
}

func NewRestClient(endpoint, token, accountID string) *RestClient {
	return &RestClient{
		endpoint:  endpoint,
		token:     token,
		accountID: accountID,
		hc:        &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *RestClient) CreateOrder(ctx context.Context, body map[string]any) (map[string]any, error) {
	return c.doObject(ctx, http.MethodPost, c.accountPath("/orders"), nil, body)
}

func (c *RestClient) Orders(ctx context.Context, params map[string]string) ([]map[string]any, error) {
	res, err := c.doObject(ctx, http.MethodGet, c.accountPath("/orders"), params, nil)
	if err != nil {
		return nil, err
	}
	return objectList(res, "orders")
}

func (c *RestClient) Order(ctx context.Context, id string) (map[string]any, error) {
	return c.doObject(ctx, http.MethodGet, c.accountPath("/orders/"+id), nil, nil)
}

func (c *RestClient) UpdateOrder(ctx context.Context, id string, body map[string]any) (map[string]any, error) {
	return c.doObject(ctx, http.MethodPut, c.accountPath("/orders/"+id), nil, body)
}

func (c *RestClient) CancelOrder(ctx context.Context, id string) (map[string]any, error) {
	return c.doObject(ctx, http.MethodPut, c.accountPath("/orders/"+id+"/cancel"), nil, nil)
}

func (c *RestClient) OpenTrades(ctx context.Context) ([]map[string]any, error) {
	res, err := c.doObject(ctx, http.MethodGet, c.accountPath("/openTrades"), nil, nil)
	if err != nil {
		return nil, err
	}
	return objectList(res, "trades")
}

func (c *RestClient) Trade(ctx context.Context, id string) (map[string]any, error) {
	return c.doObject(ctx, http.MethodGet, c.accountPath("/trades/"+id), nil, nil)
}

func (c *RestClient) accountPath(suffix string) string {
	return "/v3/accounts/" + c.accountID + suffix
}

func (c *RestClient) doObject(ctx context.Context, method, path string,
	params map[string]string, body any) (map[string]any, error) {

	u := c.endpoint + path
	if len(params) > 0 {
		q := url.Values{}
		for k, v := range params {
			q.Set(k, v)
		}
		u += "?" + q.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("broker returned %d: %s", resp.StatusCode, string(data))
	}

	var out map[string]any
	if len(data) == 0 {
		return map[string]any{}, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("cannot decode broker response: %w", err)
	}
	return out, nil
}

func objectList(res map[string]any, key string) ([]map[string]any, error) {
	items, ok := sliceField(res, key)
	if !ok {
		return nil, nil
	}
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out, nil
}
