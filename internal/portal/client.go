// Package portal scrapes the FFS registration portal.
package portal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/mlfcnt/tracer-picker/internal/model"
)

// DefaultBaseURL is the registration portal root.
const DefaultBaseURL = "https://inscription.ffs.fr"

const (
	defaultAttempts = 3
	defaultDelay    = 2 * time.Second
	defaultTimeout  = 30 * time.Second
)

var (
	// ErrInvalidCode is returned for competition codes that are not 4 digits.
	ErrInvalidCode = errors.New("competition code must be 4 digits")
	// ErrLoginFailed is returned when the portal rejects the credentials.
	ErrLoginFailed = errors.New("portal login failed")
)

// ValidateCompetitionCode checks a competition code.
func ValidateCompetitionCode(code string) error {
	if len(code) != 4 {
		return fmt.Errorf("%w: %q", ErrInvalidCode, code)
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return fmt.Errorf("%w: %q", ErrInvalidCode, code)
		}
	}
	return nil
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another portal root.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		if base != "" {
			c.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithRetry sets the number of attempts per request and the delay between them.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.attempts = attempts
		}
		if delay >= 0 {
			c.delay = delay
		}
	}
}

// WithTimeout bounds each HTTP request.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// Client is a logged-in session on the portal.
type Client struct {
	baseURL  string
	attempts int
	delay    time.Duration
	timeout  time.Duration
	email    string
	password string
	http     *http.Client
	log      *zap.Logger
}

// New creates a client for the given credentials.
func New(email, password string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(email) == "" {
		return nil, fmt.Errorf("portal e-mail is empty")
	}
	if password == "" {
		return nil, fmt.Errorf("portal password is empty")
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL:  DefaultBaseURL,
		attempts: defaultAttempts,
		delay:    defaultDelay,
		timeout:  defaultTimeout,
		email:    email,
		password: password,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http = &http.Client{Jar: jar, Timeout: c.timeout}
	return c, nil
}

// Login submits the identification form and keeps the session cookie.
func (c *Client) Login(ctx context.Context) error {
	form := url.Values{
		"identification_ffs_email":    {c.email},
		"identification_ffs_password": {c.password},
	}
	doc, err := c.fetch(ctx, http.MethodPost, c.baseURL+"/competition.php", form)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if !loggedIn(doc) {
		return fmt.Errorf("%w for %s", ErrLoginFailed, c.email)
	}
	c.log.Info("logged in", zap.String("email", c.email))
	return nil
}

// FetchCompetition reads the competition identity and the committee of every
// registered competitor from a single page load.
func (c *Client) FetchCompetition(ctx context.Context, code string) (model.Competition, []string, error) {
	doc, err := c.participantPage(ctx, code)
	if err != nil {
		return model.Competition{}, nil, err
	}
	comp, err := parseCompetition(doc, code)
	if err != nil {
		return model.Competition{}, nil, err
	}
	return comp, c.committees(doc, code), nil
}

// FetchCompetitorCommittees returns the committee code of every registered
// competitor, in page order.
func (c *Client) FetchCompetitorCommittees(ctx context.Context, code string) ([]string, error) {
	doc, err := c.participantPage(ctx, code)
	if err != nil {
		return nil, err
	}
	return c.committees(doc, code), nil
}

// FetchCompetitionMetadata reads the competition identity from its page.
func (c *Client) FetchCompetitionMetadata(ctx context.Context, code string) (model.Competition, error) {
	doc, err := c.participantPage(ctx, code)
	if err != nil {
		return model.Competition{}, err
	}
	return parseCompetition(doc, code)
}

func (c *Client) committees(doc *goquery.Document, code string) []string {
	committees, blank := parseCommittees(doc)
	if blank > 0 {
		c.log.Warn("competitors without committee ignored", zap.String("code", code), zap.Int("count", blank))
	}
	c.log.Info("competitors fetched", zap.String("code", code), zap.Int("count", len(committees)))
	return committees
}

func (c *Client) participantPage(ctx context.Context, code string) (*goquery.Document, error) {
	if err := ValidateCompetitionCode(code); err != nil {
		return nil, err
	}
	u := c.baseURL + "/participant.php?" + url.Values{"code": {code}}.Encode()
	doc, err := c.fetch(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("competition %s: %w", code, err)
	}
	return doc, nil
}

// fetch performs one request with retries and parses the HTML body.
func (c *Client) fetch(ctx context.Context, method, target string, form url.Values) (*goquery.Document, error) {
	var doc *goquery.Document
	err := c.retry(ctx, method+" "+target, func() error {
		var body io.Reader
		if form != nil {
			body = strings.NewReader(form.Encode())
		}
		req, err := http.NewRequestWithContext(ctx, method, target, body)
		if err != nil {
			return permanent(err)
		}
		if form != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := resp.Body.Close(); cerr != nil {
				// Best-effort body close.
				_ = cerr
			}
		}()
		if err := checkStatus(resp); err != nil {
			return err
		}
		parsed, err := goquery.NewDocumentFromReader(resp.Body)
		if err != nil {
			return err
		}
		doc = parsed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// StatusError reports an unexpected HTTP status.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s", e.Code, http.StatusText(e.Code))
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	err := &StatusError{Code: resp.StatusCode}
	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return err
	}
	return permanent(err)
}
