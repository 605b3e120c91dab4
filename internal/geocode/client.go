package geocode

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

type Hit struct {
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	DisplayName string  `json:"displayName"`
}

// Result is always served with a 200: upstream throttling or outages are
// an operator concern, not a client-visible failure.
type Result struct {
	Hit       *Hit   `json:"hit"`
	Throttled bool   `json:"throttled,omitempty"`
	Status    int    `json:"status,omitempty"`
	Error     string `json:"error,omitempty"`
}

type Client struct {
	httpc     *http.Client
	baseURL   string
	userAgent string
	store     Store
	log       *slog.Logger
	upstream  prometheus.Counter // outbound call count, nil-safe
}

type Options struct {
	BaseURL   string
	UserAgent string
	HTTPC     *http.Client
	Store     Store
	Log       *slog.Logger
	Upstream  prometheus.Counter
}

func NewClient(opts Options) *Client {
	httpc := opts.HTTPC

	if httpc == nil {
		httpc = http.DefaultClient
	}

	return &Client{
		httpc:     httpc,
		baseURL:   opts.BaseURL,
		userAgent: opts.UserAgent,
		store:     opts.Store,
		log:       opts.Log,
		upstream:  opts.Upstream,
	}
}

// Lookup resolves a free-form query against the upstream geocoder, serving
// from the TTL cache when the same query was asked recently. Misses are
// cached too, so a throttled upstream is not hammered with retries.
func (c *Client) Lookup(ctx context.Context, q string) Result {
	if cached, ok := c.fromStore(ctx, q); ok {
		return cached
	}

	res := c.fetch(ctx, q)

	c.toStore(ctx, q, res)

	return res
}

func (c *Client) fetch(ctx context.Context, q string) Result {
	if c.upstream != nil {
		c.upstream.Inc()
	}

	params := url.Values{}
	params.Set("format", "json")
	params.Set("limit", "1")
	params.Set("countrycodes", "ph")
	params.Set("q", q)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)

	if err != nil {
		return Result{Error: "geocode_failed"}
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Language", "en")

	resp, err := c.httpc.Do(req)

	if err != nil {
		if c.log != nil {
			c.log.Warn("geocode upstream unreachable", "err", err)
		}
		return Result{Error: "geocode_failed"}
	}

	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusTooManyRequests, http.StatusForbidden, http.StatusTeapot:
		if c.log != nil {
			c.log.Warn("geocode upstream throttled", "status", resp.StatusCode)
		}
		return Result{Throttled: true, Status: resp.StatusCode}
	case http.StatusOK:
		// fall through to decode
	default:
		if c.log != nil {
			c.log.Warn("geocode upstream error", "status", resp.StatusCode)
		}
		return Result{Status: resp.StatusCode}
	}

	var rows []struct {
		Lat         string `json:"lat"`
		Lon         string `json:"lon"`
		DisplayName string `json:"display_name"`
	}

	err = json.NewDecoder(resp.Body).Decode(&rows)

	if err != nil || len(rows) == 0 {
		return Result{}
	}

	lat, latErr := strconv.ParseFloat(rows[0].Lat, 64)
	lng, lngErr := strconv.ParseFloat(rows[0].Lon, 64)

	if latErr != nil || lngErr != nil {
		return Result{}
	}

	return Result{Hit: &Hit{
		Lat:         lat,
		Lng:         lng,
		DisplayName: rows[0].DisplayName,
	}}
}

func (c *Client) fromStore(ctx context.Context, q string) (Result, bool) {
	if c.store == nil {
		return Result{}, false
	}

	b, ok := c.store.Get(ctx, q)

	if !ok {
		return Result{}, false
	}

	var res Result

	err := json.Unmarshal(b, &res)

	if err != nil {
		return Result{}, false
	}

	return res, true
}

func (c *Client) toStore(ctx context.Context, q string, res Result) {
	if c.store == nil {
		return
	}

	b, err := json.Marshal(res)

	if err != nil {
		return
	}

	c.store.Set(ctx, q, b)
}
