package facebook

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

// Client talks to the Graph API on behalf of a single page.
type Client struct {
	BaseURL   string
	PageID    string
	PageToken string

	HTTP *http.Client
}

type SendMessageResponse struct {
	RecipientID string `json:"recipient_id"`
	MessageID   string `json:"message_id"`
}

// SendMessage posts a Messenger payload (recipient + message) to the
// page's messages edge.
func (c *Client) SendMessage(ctx context.Context, payload any) (*SendMessageResponse, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL()+"/"+c.PageID+"/messages", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.PageToken)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("facebook send message http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var out SendMessageResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type PostData struct {
	ID      string `json:"id"`
	Story   string `json:"story"`
	Message string `json:"message"`
}

func (c *Client) GetPostData(ctx context.Context, postID string) (*PostData, error) {
	q := url.Values{"fields": {"id,story,message"}}
	var out PostData
	if err := c.getJSON(ctx, "/"+postID, q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type PublishedPost struct {
	ID      string `json:"id"`
	Story   string `json:"story"`
	Message string `json:"message"`
}

func (c *Client) GetPagePublishedPosts(ctx context.Context, limit int) ([]PublishedPost, error) {
	q := url.Values{
		"limit":  {strconv.Itoa(limit)},
		"fields": {"id,story,message"},
	}
	var out struct {
		Data []PublishedPost `json:"data"`
	}
	if err := c.getJSON(ctx, "/"+c.PageID+"/published_posts", q, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

type Attachment struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Media struct {
		Image struct {
			Src string `json:"src"`
		} `json:"image"`
	} `json:"media"`
	Target struct {
		ID string `json:"id"`
	} `json:"target"`
	Subattachments struct {
		Data []Attachment `json:"data"`
	} `json:"subattachments"`
}

func (c *Client) GetPostAttachments(ctx context.Context, postID string) ([]Attachment, error) {
	var out struct {
		Data []Attachment `json:"data"`
	}
	if err := c.getJSON(ctx, "/"+postID+"/attachments", nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	u := c.baseURL() + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.PageToken)

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
		return fmt.Errorf("facebook get %s http %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
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
