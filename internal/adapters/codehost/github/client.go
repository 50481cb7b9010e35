// Package github is a paced, circuit-broken GitHub REST v3 client covering the
// endpoints star analysis reads
package github

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/masteryoda101/fake-star-check/internal/core/version"
	"github.com/masteryoda101/fake-star-check/internal/platform/config"
	perr "github.com/masteryoda101/fake-star-check/internal/platform/errors"
	"github.com/masteryoda101/fake-star-check/internal/platform/logger"
	"github.com/masteryoda101/fake-star-check/internal/platform/metrics"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

const (
	baseURLDefault   = "https://api.github.com"
	defaultTimeout   = 15 * time.Second
	defaultMaxRetry  = 4
	defaultRetryBase = 500 * time.Millisecond

	acceptJSON = "application/vnd.github+json"
	acceptStar = "application/vnd.github.star+json"
)

// Options configures the Client
type Options struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration

	// Comma separated tokens, rotated round robin. Empty means anonymous,
	// which GitHub limits to 60 requests an hour
	TokensCSV string

	// MaxRetries 0 takes the default, negative disables retries
	MaxRetries int
	RetryBase  time.Duration

	// RPS <= 0 disables pacing
	RPS   float64
	Burst int

	// BreakerFailures consecutive transport or 5xx failures open the breaker
	// for BreakerTimeout
	BreakerFailures uint32
	BreakerTimeout  time.Duration

	// MaxPages caps stargazer pagination; GitHub refuses past page 400
	MaxPages int
	// MaxStarredPages caps a user's starred list
	MaxStarredPages int
}

// OptionsFromConfig reads GITHUB_* keys
func OptionsFromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("GITHUB_")
	return Options{
		BaseURL:         c.MayString("BASE_URL", baseURLDefault),
		TokensCSV:       c.MayString("TOKENS", ""),
		Timeout:         c.MayDuration("TIMEOUT", defaultTimeout),
		MaxRetries:      c.MayInt("MAX_RETRIES", defaultMaxRetry),
		RPS:             c.MayFloat64("RPS", 10),
		Burst:           c.MayInt("BURST", 10),
		BreakerFailures: uint32(c.MayInt("BREAKER_FAILURES", 5)),
		BreakerTimeout:  c.MayDuration("BREAKER_TIMEOUT", 30*time.Second),
		MaxPages:        c.MayInt("MAX_PAGES", 400),
		MaxStarredPages: c.MayInt("MAX_STARRED_PAGES", 10),
	}
}

// Client is safe for concurrent use; it holds no per-request mutable state
type Client struct {
	http    *http.Client
	opts    Options
	tokens  []string
	cur     atomic.Int32
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[struct{}]
	log     logger.Logger
	now     func() time.Time
	sleep   func(context.Context, time.Duration) error
}

var errServerStatus = errors.New("github server error")

// NewClient creates a Client, filling zero options with defaults
func NewClient(o Options) *Client {
	if o.BaseURL == "" {
		o.BaseURL = baseURLDefault
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.UserAgent == "" {
		o.UserAgent = version.UserAgent()
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	switch {
	case o.MaxRetries == 0:
		o.MaxRetries = defaultMaxRetry
	case o.MaxRetries < 0:
		o.MaxRetries = 0
	}
	if o.RetryBase <= 0 {
		o.RetryBase = defaultRetryBase
	}
	if o.BreakerFailures == 0 {
		o.BreakerFailures = 5
	}
	if o.BreakerTimeout <= 0 {
		o.BreakerTimeout = 30 * time.Second
	}
	if o.MaxPages <= 0 {
		o.MaxPages = 400
	}
	if o.MaxStarredPages <= 0 {
		o.MaxStarredPages = 10
	}

	var toks []string
	for t := range strings.SplitSeq(o.TokensCSV, ",") {
		if t = strings.TrimSpace(t); t != "" {
			toks = append(toks, t)
		}
	}

	lim := rate.NewLimiter(rate.Inf, 0)
	if o.RPS > 0 {
		lim = rate.NewLimiter(rate.Limit(o.RPS), max(o.Burst, 1))
	}

	c := &Client{
		http:    &http.Client{Timeout: o.Timeout},
		opts:    o,
		tokens:  toks,
		limiter: lim,
		log:     *logger.Named("github"),
		now:     time.Now,
		sleep:   sleepCtx,
	}
	c.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "github",
		MaxRequests: 1,
		Timeout:     o.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= o.BreakerFailures
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			c.log.Warn().Str("from", from.String()).Str("to", to.String()).Msg("github breaker state change")
			metrics.GitHubBreakerState.Set(float64(to))
		},
	})
	return c
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// getToken returns the next token in a round robin rotation
func (c *Client) getToken() string {
	if len(c.tokens) == 0 {
		return ""
	}
	n := int(c.cur.Add(1))
	return c.tokens[n%len(c.tokens)]
}

// headers builds a fresh header set for one request
func (c *Client) headers(accept string) http.Header {
	h := http.Header{}
	h.Set("User-Agent", c.opts.UserAgent)
	h.Set("Accept", accept)
	h.Set("X-GitHub-Api-Version", "2022-11-28")
	if tok := c.getToken(); tok != "" {
		h.Set("Authorization", "Bearer "+tok)
	}
	return h
}

// resolve turns a path or a continuation link into a URL; continuation links
// must point back at BaseURL so tokens never leave the configured host
func (c *Client) resolve(pathOrURL string) (string, error) {
	if strings.HasPrefix(pathOrURL, "/") {
		return c.opts.BaseURL + pathOrURL, nil
	}
	if strings.HasPrefix(pathOrURL, c.opts.BaseURL+"/") {
		return pathOrURL, nil
	}
	return "", perr.Malformedf("github continuation link off host: %s", pathOrURL)
}

// Do issues a GET with pacing, breaker, retries and rate limit handling.
// A 2xx response is returned open; every other outcome is a coded error
func (c *Client) Do(ctx context.Context, endpoint, pathOrURL, accept string) (*http.Response, error) {
	url, err := c.resolve(pathOrURL)
	if err != nil {
		return nil, err
	}

	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeUnknown, "github new request failed")
		}
		req.Header = c.headers(accept)

		var resp *http.Response
		start := c.now()
		_, err = c.breaker.Execute(func() (struct{}, error) {
			r, err := c.http.Do(req)
			if err != nil {
				return struct{}{}, err
			}
			resp = r
			if r.StatusCode >= 500 {
				return struct{}{}, errServerStatus
			}
			return struct{}{}, nil
		})
		lat := c.now().Sub(start)

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.GitHubRequests.WithLabelValues(endpoint, "breaker_open").Inc()
			return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "github circuit open")
		}
		if ctx.Err() != nil {
			if resp != nil {
				_ = drainAndClose(resp.Body)
			}
			return nil, ctx.Err()
		}
		if resp == nil {
			metrics.GitHubRequests.WithLabelValues(endpoint, "transport_error").Inc()
			if attempt >= c.opts.MaxRetries {
				return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "github %s failed", endpoint)
			}
			back := c.backoff(attempt)
			c.log.Warn().Err(err).Dur("retry_in", back).Int("attempt", attempt).Msg("github transport error retrying")
			if err := c.sleep(ctx, back); err != nil {
				return nil, err
			}
			continue
		}

		rem, reset, retryAfter := parseRateHeaders(resp.Header)
		if resp.Header.Get("X-RateLimit-Remaining") != "" {
			metrics.GitHubRateRemaining.Set(float64(rem))
		}
		metrics.GitHubRequests.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()
		c.log.Debug().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Int("attempt", attempt).
			Dur("latency", lat).
			Int("rate_remaining", rem).
			Msg("github http response")

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return resp, nil

		case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusGone,
			resp.StatusCode == http.StatusUnavailableForLegalReasons:
			_ = drainAndClose(resp.Body)
			return nil, perr.Newf(perr.ErrorCodeNotFound, "github %s: %d", endpoint, resp.StatusCode)

		case isRateLimited(resp.StatusCode, rem, retryAfter, resp.Header):
			_ = drainAndClose(resp.Body)
			if attempt >= c.opts.MaxRetries {
				return nil, perr.Newf(perr.ErrorCodeTooManyRequests, "github rate limited")
			}
			wait := computeWait(rem, reset, retryAfter, c.now())
			if wait <= 0 {
				wait = c.backoff(attempt)
			}
			c.log.Warn().Dur("sleep", wait).Str("endpoint", endpoint).Msg("github rate limited backing off")
			if err := c.sleep(ctx, wait); err != nil {
				return nil, err
			}

		case resp.StatusCode >= 500:
			_ = drainAndClose(resp.Body)
			if attempt >= c.opts.MaxRetries {
				return nil, perr.Newf(perr.ErrorCodeUnavailable, "github %s: server error %d", endpoint, resp.StatusCode)
			}
			back := c.backoff(attempt)
			c.log.Warn().Dur("retry_in", back).Int("status", resp.StatusCode).Msg("github transient error retrying")
			if err := c.sleep(ctx, back); err != nil {
				return nil, err
			}

		default:
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			_ = resp.Body.Close()
			return nil, perr.Newf(perr.ErrorCodeUnknown, "github %s: unexpected status %d body %s", endpoint, resp.StatusCode, string(body))
		}
	}
}

func (c *Client) backoff(attempt int) time.Duration {
	d := c.opts.RetryBase << uint(attempt)
	if d <= 0 || d > 30*time.Second {
		d = 30 * time.Second
	}
	return d
}
