package gmail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/oauth2"

	"github.com/amitkr/jobmail/internal/model"
)

const defaultBaseURL = "https://gmail.googleapis.com/gmail/v1"

// decodeFailedBody is stored when no body part can be decoded; a single bad
// message must never fail the whole fetch.
const decodeFailedBody = "(Unable to decode email body)"

// Bounds applied before a message is handed to extraction, to keep prompt
// cost flat regardless of what the sender attached.
const (
	maxSubjectLen = 300
	maxBodyLen    = 2000
)

// listPageSize is the provider's hard cap on maxResults per list call.
const listPageSize = 500

// listResponse mirrors the users.messages.list response.
type listResponse struct {
	Messages      []listedMessage `json:"messages"`
	NextPageToken string          `json:"nextPageToken"`
}

type listedMessage struct {
	ID string `json:"id"`
}

// messageResponse mirrors the users.messages.get response (format=full).
type messageResponse struct {
	ID      string      `json:"id"`
	Payload messagePart `json:"payload"`
}

type messagePart struct {
	MimeType string        `json:"mimeType"`
	Headers  []header      `json:"headers"`
	Body     partBody      `json:"body"`
	Parts    []messagePart `json:"parts"`
}

type header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type partBody struct {
	Data string `json:"data"`
}

// Client fetches message metadata and bodies from the Gmail REST API.
// Authentication lives entirely in the injected http.Client.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewClient creates a Gmail adapter. baseURL may be empty to use the real API;
// tests point it at an httptest server.
func NewClient(baseURL string, client *http.Client, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{baseURL: baseURL, client: client, logger: logger}
}

// OAuthClient builds an http.Client that attaches the given bearer token to
// every request. Token acquisition and refresh are external to the pipeline.
func OAuthClient(ctx context.Context, accessToken string, timeout time.Duration) *http.Client {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	c := oauth2.NewClient(ctx, src)
	c.Timeout = timeout
	return c
}

// ListMessages pages through users/me/messages for the given query, fetching
// full detail for each listed id, until maxTotal messages are collected or the
// provider reports no further pages. The returned token resumes the listing on
// a later call; "" means the result set is exhausted. A failed detail fetch
// yields a message with only its id populated and does not abort the page.
func (c *Client) ListMessages(ctx context.Context, query, pageToken string, maxTotal int) ([]model.Message, string, error) {
	var messages []model.Message
	token := pageToken

	for len(messages) < maxTotal {
		page, err := c.listPage(ctx, query, token, maxTotal-len(messages))
		if err != nil {
			return nil, "", err
		}

		for _, listed := range page.Messages {
			msg, err := c.getMessage(ctx, listed.ID)
			if err != nil {
				c.logger.Warn("message detail fetch failed, continuing",
					"id", listed.ID,
					"error", err,
				)
				msg = model.Message{ID: listed.ID}
			}
			messages = append(messages, msg)
			if len(messages) >= maxTotal {
				break
			}
		}

		token = page.NextPageToken
		if token == "" {
			break
		}
	}

	return messages, token, nil
}

func (c *Client) listPage(ctx context.Context, query, pageToken string, remaining int) (*listResponse, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("maxResults", strconv.Itoa(min(listPageSize, remaining)))
	if pageToken != "" {
		q.Set("pageToken", pageToken)
	}
	u := fmt.Sprintf("%s/users/me/messages?%s", c.baseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("gmail list: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gmail list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gmail list: unexpected status %d", resp.StatusCode)
	}

	var page listResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("gmail list: %w", err)
	}
	return &page, nil
}

func (c *Client) getMessage(ctx context.Context, id string) (model.Message, error) {
	u := fmt.Sprintf("%s/users/me/messages/%s?format=full", c.baseURL, url.PathEscape(id))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return model.Message{}, fmt.Errorf("gmail get %s: %w", id, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return model.Message{}, fmt.Errorf("gmail get %s: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.Message{}, fmt.Errorf("gmail get %s: unexpected status %d", id, resp.StatusCode)
	}

	var mr messageResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return model.Message{}, fmt.Errorf("gmail get %s: %w", id, err)
	}

	subject := headerValue(mr.Payload.Headers, "Subject")
	sender := headerValue(mr.Payload.Headers, "From")
	date := headerValue(mr.Payload.Headers, "Date")

	return model.Message{
		ID:       mr.ID,
		Subject:  truncate(subject, maxSubjectLen),
		Sender:   sender,
		Date:     date,
		DateISO:  toISODate(date),
		Body:     truncate(extractBody(mr.Payload), maxBodyLen),
		Platform: platformHint(sender),
	}, nil
}

func headerValue(headers []header, name string) string {
	for _, h := range headers {
		if h.Name == name {
			return h.Value
		}
	}
	return ""
}

// decodeData decodes Gmail's base64url body data, tolerating both padded and
// unpadded encodings.
func decodeData(data string) (string, error) {
	if b, err := base64.RawURLEncoding.DecodeString(data); err == nil {
		return string(b), nil
	}
	b, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// dateLayouts cover the Date header formats seen in the wild.
var dateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 -0700 (MST)",
	"2 Jan 2006 15:04:05 -0700",
}

// toISODate normalizes a raw Date header to YYYY-MM-DD, or "" if unparseable.
func toISODate(raw string) string {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return ""
}
