// Package digitalcollections is a client for the NYPL Digital Collections API.
package digitalcollections

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/lehigh-university-libraries/dc-export/internal/models"
	"github.com/lehigh-university-libraries/dc-export/internal/mods"
	"github.com/lehigh-university-libraries/dc-export/internal/xmljson"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the public API root.
const DefaultBaseURL = "http://api.repo.nypl.org/api/v1"

// PerPage is the number of captures requested per listing page.
const PerPage = 500

// Client represents a Digital Collections API client
type Client struct {
	BaseURL    string
	Token      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRateLimit paces API requests to perSecond. Zero or less disables pacing.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// NewClient creates a new Digital Collections client
func NewClient(baseURL, token string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		Token:      token,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StatusError is returned when the API answers with a non-200 status.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Digital Collections API returned status %d for %s: %s", e.StatusCode, e.URL, e.Body)
}

type capturesResponse struct {
	NYPLAPI struct {
		Request struct {
			TotalPages xmljson.Text `json:"totalPages"`
		} `json:"request"`
		Response struct {
			NumResults xmljson.Text                  `json:"numResults"`
			Capture    xmljson.OneOrMany[apiCapture] `json:"capture"`
		} `json:"response"`
	} `json:"nyplAPI"`
}

type apiCapture struct {
	UUID       xmljson.Text `json:"uuid"`
	ImageID    xmljson.Text `json:"imageID"`
	SortString xmljson.Text `json:"sortString"`
	Title      xmljson.Text `json:"title"`
	ImageLinks struct {
		ImageLink xmljson.OneOrMany[xmljson.Text] `json:"imageLink"`
	} `json:"imageLinks"`
}

func (a apiCapture) toCapture() models.Capture {
	links := make([]string, 0, len(a.ImageLinks.ImageLink))
	for _, l := range a.ImageLinks.ImageLink {
		links = append(links, l.String())
	}
	return models.Capture{
		UUID:       a.UUID.String(),
		ImageID:    a.ImageID.String(),
		SortString: a.SortString.String(),
		Title:      a.Title.String(),
		ImageLinks: links,
	}
}

// Captures lists every capture of the collection or item identified by uuid,
// calling fn for each one in API order. Pages are requested one at a time and
// only once fn has handled the previous page. Listing stops at the first
// error returned by the API or by fn.
func (c *Client) Captures(ctx context.Context, uuid string, fn func(models.Capture) error) error {
	for page := 1; ; page++ {
		q := url.Values{}
		q.Set("page", strconv.Itoa(page))
		q.Set("per_page", strconv.Itoa(PerPage))
		endpoint := fmt.Sprintf("%s/items/%s?%s", c.BaseURL, url.PathEscape(uuid), q.Encode())

		var resp capturesResponse
		if err := c.getJSON(ctx, endpoint, &resp); err != nil {
			return fmt.Errorf("failed to fetch captures page %d of %s: %w", page, uuid, err)
		}

		captures := resp.NYPLAPI.Response.Capture
		totalPages, _ := strconv.Atoi(resp.NYPLAPI.Request.TotalPages.String())

		slog.Debug("Fetched captures page",
			"collection", uuid,
			"page", page,
			"total_pages", totalPages,
			"captures", len(captures),
			"num_results", resp.NYPLAPI.Response.NumResults.String())

		for _, capture := range captures {
			if err := fn(capture.toCapture()); err != nil {
				return err
			}
		}

		if len(captures) == 0 || page >= totalPages {
			return nil
		}
	}
}

type modsResponse struct {
	NYPLAPI struct {
		Response struct {
			MODS json.RawMessage `json:"mods"`
		} `json:"response"`
	} `json:"nyplAPI"`
}

// MODS fetches and parses the MODS record for the capture or item uuid.
func (c *Client) MODS(ctx context.Context, uuid string) (*mods.Document, error) {
	endpoint := fmt.Sprintf("%s/items/mods/%s", c.BaseURL, url.PathEscape(uuid))

	var resp modsResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch MODS for %s: %w", uuid, err)
	}

	raw := resp.NYPLAPI.Response.MODS
	if len(raw) == 0 {
		return &mods.Document{}, nil
	}
	doc, err := mods.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode MODS for %s: %w", uuid, err)
	}
	return doc, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, v any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Token token=%q", c.Token))
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{URL: endpoint, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
