// Package identity talks to the identity provider management API.
// Every call carries a bearer token from TokenCache and is bounded by Config.Timeout.
package identity

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

	"github.com/dipalisurve2377/organization-events-sub001/failure"
	"github.com/dipalisurve2377/organization-events-sub001/log"
	"github.com/hashicorp/go-cleanhttp"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	apiPrefix       = "/api/v2/"
	maxResponseSize = 1 << 20
)

// Resource is a collection of the management API
type Resource string

const (
	Users         Resource = "users"
	Organizations Resource = "organizations"
)

type Config struct {
	// BaseURL of the tenant, e.g. https://tenant.eu.auth0.com
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Audience     string
	Timeout      time.Duration
	// TokenLeeway is how long before its expiry a token is refreshed
	TokenLeeway time.Duration
}

// withDefaults fills unset fields
func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = time.Second * 5
	}

	if c.TokenLeeway <= 0 {
		c.TokenLeeway = time.Second * 30
	}

	if c.TokenURL == "" {
		c.TokenURL = strings.TrimRight(c.BaseURL, "/") + "/oauth/token"
	}

	if c.Audience == "" {
		c.Audience = strings.TrimRight(c.BaseURL, "/") + apiPrefix
	}

	return c
}

// Attributes are sent as the JSON body of create and update calls
type Attributes map[string]interface{}

// Account is a record of the identity provider
type Account struct {
	ID         string
	Attributes map[string]interface{}
}

type Opt func(c *Client)

// WithHTTPClient replaces the pooled client
func WithHTTPClient(httpClient *http.Client) Opt {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTokenSource replaces the client credentials grant
func WithTokenSource(source TokenSource) Opt {
	return func(c *Client) {
		c.tokenSource = source
	}
}

type Client struct {
	conf        Config
	httpClient  *http.Client
	tokenSource TokenSource
	tokens      *TokenCache
	logger      log.Logger
}

func NewClient(conf Config, logger log.Logger, opts ...Opt) *Client {
	conf = conf.withDefaults()

	c := &Client{conf: conf, logger: logger}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = cleanhttp.DefaultPooledClient()
		c.httpClient.Timeout = conf.Timeout
		// a redirect of the management API is an unexpected answer, it is classified instead of followed
		c.httpClient.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	if c.tokenSource == nil {
		c.tokenSource = &clientCredentialsSource{
			httpClient: c.httpClient,
			conf: &clientcredentials.Config{
				ClientID:       conf.ClientID,
				ClientSecret:   conf.ClientSecret,
				TokenURL:       conf.TokenURL,
				EndpointParams: url.Values{"audience": {conf.Audience}},
				AuthStyle:      oauth2.AuthStyleInParams,
			},
		}
	}

	c.tokens = NewTokenCache(c.tokenSource, conf.TokenLeeway)

	return c
}

// CreateAccount creates a record and returns the id assigned by the identity provider.
func (c *Client) CreateAccount(ctx context.Context, resource Resource, attrs Attributes) (string, error) {
	var created map[string]interface{}

	if err := c.do(ctx, http.MethodPost, c.collectionPath(resource), attrs, &created); err != nil {
		return "", err
	}

	id := accountID(created)
	if id == "" {
		return "", failure.Newf(failure.ServerError, "created %s carries no id", resource)
	}

	c.logger.Logf(log.DebugLevel, "created %s %s in identity provider", resource, id)

	return id, nil
}

func (c *Client) ListAccounts(ctx context.Context, resource Resource) ([]Account, error) {
	var raw json.RawMessage

	if err := c.do(ctx, http.MethodGet, c.collectionPath(resource), nil, &raw); err != nil {
		return nil, err
	}

	var items []map[string]interface{}

	if err := json.Unmarshal(raw, &items); err != nil {
		// paginated answers wrap the list into an object keyed by the collection name
		var wrapped map[string]json.RawMessage
		if wErr := json.Unmarshal(raw, &wrapped); wErr != nil {
			return nil, failure.Wrapf(err, failure.ServerError, "decoding %s list", resource)
		}

		if wErr := json.Unmarshal(wrapped[string(resource)], &items); wErr != nil {
			return nil, failure.Wrapf(wErr, failure.ServerError, "decoding wrapped %s list", resource)
		}
	}

	accounts := make([]Account, len(items))
	for i, item := range items {
		accounts[i] = Account{ID: accountID(item), Attributes: item}
	}

	return accounts, nil
}

func (c *Client) UpdateAccount(ctx context.Context, resource Resource, remoteID string, attrs Attributes) error {
	return c.do(ctx, http.MethodPatch, c.itemPath(resource, remoteID), attrs, nil)
}

// DeleteAccount treats a missing account as deleted.
func (c *Client) DeleteAccount(ctx context.Context, resource Resource, remoteID string) error {
	err := c.do(ctx, http.MethodDelete, c.itemPath(resource, remoteID), nil, nil)

	if fErr, ok := failure.As(err); ok && fErr.StatusCode == http.StatusNotFound {
		c.logger.Logf(log.WarnLevel, "%s %s is already absent in identity provider", resource, remoteID)
		return nil
	}

	return err
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return err
	}

	var reader io.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return failure.Wrapf(err, failure.RequestSetupError, "encoding body of %s %s", method, path)
		}
		reader = bytes.NewReader(payload)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.conf.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, method, strings.TrimRight(c.conf.BaseURL, "/")+path, reader)
	if err != nil {
		return failure.Wrapf(err, failure.RequestSetupError, "building %s %s", method, path)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return failure.Wrapf(err, failure.NetworkError, "%s %s", method, path)
	}

	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return failure.Wrapf(err, failure.NetworkError, "reading answer of %s %s", method, path)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		c.tokens.Invalidate()
	}

	if err := statusError(resp.StatusCode, method, path, respBody); err != nil {
		return err
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return failure.Wrapf(err, failure.ServerError, "decoding answer of %s %s", method, path)
	}

	return nil
}

func (c *Client) collectionPath(resource Resource) string {
	return apiPrefix + string(resource)
}

func (c *Client) itemPath(resource Resource, remoteID string) string {
	return fmt.Sprintf("%s%s/%s", apiPrefix, resource, url.PathEscape(remoteID))
}

func accountID(item map[string]interface{}) string {
	for _, key := range []string{"id", "user_id"} {
		if id, ok := item[key].(string); ok && id != "" {
			return id
		}
	}

	return ""
}

// clientCredentialsSource makes the token request with the same pooled client the API calls use
type clientCredentialsSource struct {
	httpClient *http.Client
	conf       *clientcredentials.Config
}

func (s *clientCredentialsSource) Token(ctx context.Context) (*oauth2.Token, error) {
	return s.conf.Token(context.WithValue(ctx, oauth2.HTTPClient, s.httpClient))
}
