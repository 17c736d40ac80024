// Package reddit fetches subreddit submissions through the Reddit OAuth API
// and turns them into posts ready for analysis.
package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"

	"wsbsentiment/internal/adapters/config"
	"wsbsentiment/internal/domain/post"
	"wsbsentiment/pkg/errors"
	"wsbsentiment/pkg/logger"
)

const (
	defaultAuthURL = "https://www.reddit.com/api/v1/access_token"
	defaultAPIURL  = "https://oauth.reddit.com"
	permalinkHost  = "https://www.reddit.com"

	pageSize = 100
	// scan at most limit*scanFactor submissions to fill limit posts
	scanFactor = 10

	tokenSkew = time.Minute
)

// Client implements post.Source for one subreddit listing
type Client struct {
	cfg        config.RedditConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	clock      clockwork.Clock
	authURL    string
	apiURL     string
	log        *logger.Logger

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// Option customizes a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithEndpoints points the client at other OAuth and API hosts
func WithEndpoints(authURL, apiURL string) Option {
	return func(c *Client) {
		c.authURL = authURL
		c.apiURL = strings.TrimRight(apiURL, "/")
	}
}

// WithLimiter replaces the request pacing limiter
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithClock sets the clock used for token expiry
func WithClock(clock clockwork.Clock) Option {
	return func(c *Client) { c.clock = clock }
}

// NewClient creates a Reddit client. Requests are paced at one per
// cfg.RequestInterval.
func NewClient(cfg config.RedditConfig, opts ...Option) *Client {
	interval := cfg.RequestInterval
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}

	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.HTTPTimeout},
		limiter:    rate.NewLimiter(limit, 1),
		clock:      clockwork.NewRealClock(),
		authURL:    defaultAuthURL,
		apiURL:     defaultAPIURL,
		log:        logger.Get().Component("reddit"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// skipStats counts submissions left out of a fetch
type skipStats struct {
	Stickied int
	Flair    int
	Empty    int
}

// Fetch returns up to cfg.Limit posts from the configured listing
func (c *Client) Fetch(ctx context.Context) ([]post.Post, error) {
	if !c.cfg.Enabled() {
		return nil, errors.Wrap(errors.ErrSourceAuth, "reddit credentials not configured")
	}

	limit := c.cfg.Limit
	maxScan := limit * scanFactor

	var (
		kept    = make([]post.Post, 0, limit)
		skipped skipStats
		scanned int
		after   string
	)

	for len(kept) < limit && scanned < maxScan {
		page, err := c.listingPage(ctx, after, min(pageSize, maxScan-scanned))
		if err != nil {
			return nil, err
		}

		for _, child := range page.Children {
			if child.Kind != "" && child.Kind != "t3" {
				continue
			}
			scanned++

			p, ok, err := c.toPost(ctx, child.Data, &skipped)
			if err != nil {
				return nil, err
			}
			if ok {
				kept = append(kept, p)
			}
			if len(kept) >= limit || scanned >= maxScan {
				break
			}
		}

		if page.After == "" || len(page.Children) == 0 {
			break
		}
		after = page.After
	}

	c.log.Infow("Reddit fetch complete",
		"subreddit", c.cfg.Subreddit,
		"listing", c.cfg.Listing,
		"kept", len(kept),
		"scanned", scanned,
		"skipped_stickied", skipped.Stickied,
		"skipped_flair", skipped.Flair,
		"skipped_empty", skipped.Empty,
	)

	return kept, nil
}

func (c *Client) toPost(ctx context.Context, d thingData, skipped *skipStats) (post.Post, bool, error) {
	if d.Stickied {
		skipped.Stickied++
		return post.Post{}, false, nil
	}

	flair := strings.TrimSpace(d.LinkFlair)
	if c.cfg.OnlyDD && !strings.Contains(strings.ToLower(flair), "dd") {
		skipped.Flair++
		return post.Post{}, false, nil
	}

	var comments []string
	if c.cfg.CommentsPerPost > 0 {
		var err error
		comments, err = c.topComments(ctx, d.ID, c.cfg.CommentsPerPost)
		if err != nil {
			return post.Post{}, false, err
		}
	}

	text := BuildText(d.Title, d.Selftext, comments)
	if text == "" {
		skipped.Empty++
		return post.Post{}, false, nil
	}

	p := post.Post{
		ID:          d.ID,
		Title:       d.Title,
		Flair:       flair,
		Text:        text,
		Permalink:   permalinkHost + d.Permalink,
		Score:       d.Score,
		NumComments: d.NumComments,
	}
	if d.CreatedUTC > 0 {
		p.CreatedAt = time.Unix(int64(d.CreatedUTC), 0).UTC()
	}
	return p, true, nil
}

// BuildText joins the non-empty parts with spaces, falling back to the title.
// An empty result means the post has nothing to analyse.
func BuildText(title, selftext string, comments []string) string {
	parts := make([]string, 0, 2+len(comments))
	for _, p := range append([]string{title, selftext}, comments...) {
		if p != "" {
			parts = append(parts, p)
		}
	}

	text := strings.TrimSpace(strings.Join(parts, " "))
	if text == "" {
		text = strings.TrimSpace(title)
	}
	return text
}

func (c *Client) listingPage(ctx context.Context, after string, n int) (listingData, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(n))
	q.Set("raw_json", "1")
	if after != "" {
		q.Set("after", after)
	}
	if c.cfg.Listing == "top" {
		q.Set("t", "day")
	}

	endpoint := fmt.Sprintf("%s/r/%s/%s?%s", c.apiURL, url.PathEscape(c.cfg.Subreddit), c.cfg.Listing, q.Encode())

	var l listing
	status, err := c.getJSON(ctx, endpoint, &l)
	if err != nil {
		return listingData{}, err
	}
	switch status {
	case http.StatusOK:
		return l.Data, nil
	case http.StatusTooManyRequests:
		return listingData{}, errors.Wrap(errors.ErrRateLimitExceeded, "reddit listing")
	default:
		return listingData{}, errors.Newf("reddit listing returned status %d", status)
	}
}

// topComments returns up to n top-level comment bodies. Rate limited or
// forbidden comment requests yield no comments instead of an error.
func (c *Client) topComments(ctx context.Context, id string, n int) ([]string, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(n))
	q.Set("depth", "1")
	q.Set("sort", "top")
	q.Set("raw_json", "1")

	endpoint := fmt.Sprintf("%s/comments/%s?%s", c.apiURL, url.PathEscape(id), q.Encode())

	var listings []listing
	status, err := c.getJSON(ctx, endpoint, &listings)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		c.log.Warnw("Skipping comments", "post_id", id, "error", err)
		return nil, nil
	}
	if status != http.StatusOK {
		c.log.Debugw("Skipping comments", "post_id", id, "status", status)
		return nil, nil
	}
	if len(listings) < 2 {
		return nil, nil
	}

	bodies := make([]string, 0, n)
	for _, child := range listings[1].Data.Children {
		if len(bodies) >= n {
			break
		}
		if child.Kind != "t1" || child.Data.Body == "" {
			continue
		}
		bodies = append(bodies, child.Data.Body)
	}
	return bodies, nil
}

// getJSON performs an authorized GET. 429 and 403 are returned as status
// with a nil error so callers decide; other non-200 codes are errors.
func (c *Client) getJSON(ctx context.Context, endpoint string, dest interface{}) (int, error) {
	token, err := c.token(ctx)
	if err != nil {
		return 0, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, errors.Wrap(err, "create reddit request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, errors.Wrap(err, "reddit request failed")
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests, http.StatusForbidden:
		return resp.StatusCode, nil
	case http.StatusUnauthorized:
		c.invalidateToken()
		return resp.StatusCode, errors.Wrap(errors.ErrSourceAuth, "reddit rejected access token")
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return resp.StatusCode, errors.Newf("reddit returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return resp.StatusCode, errors.Wrap(err, "decode reddit response")
	}
	return resp.StatusCode, nil
}

// token returns a valid access token, refreshing it shortly before expiry
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && c.clock.Now().Before(c.tokenExpiry.Add(-tokenSkew)) {
		return c.accessToken, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL,
		strings.NewReader("grant_type=client_credentials"))
	if err != nil {
		return "", errors.Wrap(err, "create OAuth request")
	}
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "reddit OAuth request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", errors.Wrapf(errors.ErrSourceAuth, "OAuth status %d: %s", resp.StatusCode, string(body))
	}

	var oauth oauthResponse
	if err := json.NewDecoder(resp.Body).Decode(&oauth); err != nil {
		return "", errors.Wrap(err, "decode OAuth response")
	}
	if oauth.AccessToken == "" {
		return "", errors.Wrap(errors.ErrSourceAuth, "empty access token")
	}

	c.accessToken = oauth.AccessToken
	c.tokenExpiry = c.clock.Now().Add(time.Duration(oauth.ExpiresIn) * time.Second)

	c.log.Debugw("Reddit OAuth token refreshed", "expires_in", oauth.ExpiresIn)
	return c.accessToken, nil
}

func (c *Client) invalidateToken() {
	c.mu.Lock()
	c.accessToken = ""
	c.mu.Unlock()
}
