package smartcart

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client talks to the cart service that owns customers, reservations
// and wait lists.
type Client struct {
	BaseURL      string
	AuthorizeURL string

	HTTP *http.Client
}

type Customer struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Customer looks a customer up by their messenger display name. Returns
// (nil, nil) when the cart service does not know them.
func (c *Client) Customer(ctx context.Context, name string) (*Customer, error) {
	q := url.Values{"name": {name}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL()+"/api/customer?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("smartcart customer http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var out struct {
		Data *Customer `json:"data"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

type ReserveResult struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

// ReserveProduct puts one unit of the product in the customer's cart.
// A refused reservation comes back with Error set, not as a Go error.
func (c *Client) ReserveProduct(ctx context.Context, customerID, productID int64) (*ReserveResult, error) {
	path := "/api/customer/" + strconv.FormatInt(customerID, 10) + "/reserve-product"
	var out ReserveResult
	if err := c.postJSON(ctx, path, map[string]any{"product_id": productID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type WaitListResult struct {
	Error      bool   `json:"error"`
	Message    string `json:"message"`
	IsWaitList bool   `json:"is_wait_list"`
}

// AddProductToWaitList queues the customer for the product.
func (c *Client) AddProductToWaitList(ctx context.Context, customerID, productID int64) (*WaitListResult, error) {
	path := "/api/waitlists/" + strconv.FormatInt(customerID, 10) + "/products"
	var out WaitListResult
	if err := c.postJSON(ctx, path, map[string]any{"product_id": productID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AuthorizationURL builds the link an unknown commenter follows to
// connect their messenger account to the cart service.
func (c *Client) AuthorizationURL(params url.Values) string {
	base := strings.TrimRight(strings.TrimSpace(c.AuthorizeURL), "/")
	if len(params) == 0 {
		return base
	}
	return base + "?" + params.Encode()
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL()+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("smartcart post %s http %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(body, out)
}

func (c *Client) baseURL() string {
	return strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return &http.Client{Timeout: 60 * time.Second}
}
