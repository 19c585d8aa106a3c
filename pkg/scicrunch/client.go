package scicrunch

import (
	"context"
	goerrors "errors"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mapknowledge/pkg/blob"
	"github.com/matzehuels/mapknowledge/pkg/cache"
	"github.com/matzehuels/mapknowledge/pkg/errors"
	"github.com/matzehuels/mapknowledge/pkg/integrations"
)

const (
	// DefaultEndpoint is the public SciCrunch API.
	DefaultEndpoint = "https://scicrunch.org/api/1"

	// Production is the released SCKAN knowledge base.
	Production = "sckan-scigraph"
	// Staging is the SCKAN knowledge base under curation.
	Staging = "sparc-scigraph"

	// ConnectivityQuery names the dynamic query returning a neuron
	// population's ApiNATOMY blob.
	ConnectivityQuery = "neru-7"

	// APIKeyEnv is consulted when no key is configured.
	APIKeyEnv = "SCICRUNCH_API_KEY"

	resultLimit = "9999"
)

// InterlexOntologies are the prefixes whose labels come from InterLex.
var InterlexOntologies = []string{"ILX", "NLX"}

// ErrNoAPIKey is returned by calls that cannot degrade to an empty result
// when no API key is configured.
var ErrNoAPIKey = goerrors.New("no SciCrunch API key")

// Options configures a [Client].
type Options struct {
	// Endpoint is the API root; defaults to [DefaultEndpoint].
	Endpoint string
	// Release is the SciGraph release; defaults to [Production].
	Release string
	// APIKey defaults to $SCICRUNCH_API_KEY.
	APIKey string
	// Timeout per request; zero keeps the client default.
	Timeout time.Duration
	// Cache stores raw responses; nil disables caching.
	Cache cache.Cache
	// Keyer names cached responses; nil means cache.DefaultKeyer.
	Keyer cache.Keyer
	// Refresh bypasses cached responses and refetches.
	Refresh bool
	// Logger receives warnings about failed or unknown lookups.
	Logger *log.Logger
}

// Client queries one SciGraph release. It is safe for concurrent use.
type Client struct {
	api      *integrations.Client
	keyer    cache.Keyer
	endpoint string
	release  string
	key      string
	refresh  bool
	logger   *log.Logger

	mu      sync.Mutex
	unknown map[string]bool
}

// New creates a client. A missing API key is not an error: the client is
// created disabled and says so in the log.
func New(opts Options) *Client {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.Release == "" {
		opts.Release = Production
	}
	if opts.APIKey == "" {
		opts.APIKey = os.Getenv(APIKeyEnv)
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Keyer == nil {
		opts.Keyer = cache.NewDefaultKeyer()
	}

	c := &Client{
		api:      integrations.NewClient(opts.Cache, "scicrunch", cache.TTLQuery, map[string]string{"Accept": "application/json"}),
		keyer:    opts.Keyer,
		endpoint: strings.TrimSuffix(opts.Endpoint, "/"),
		release:  opts.Release,
		key:      opts.APIKey,
		refresh:  opts.Refresh,
		logger:   opts.Logger,
		unknown:  make(map[string]bool),
	}
	c.api.SetKeyer(opts.Keyer)
	if opts.Timeout > 0 {
		c.api.SetTimeout(opts.Timeout)
	}
	if c.key == "" {
		c.logger.Warn("undefined " + APIKeyEnv + ": SciCrunch knowledge will not be looked up")
	}
	return c
}

// SetHTTPClient replaces the underlying HTTP client.
func (c *Client) SetHTTPClient(h *http.Client) { c.api.SetHTTPClient(h) }

// Enabled reports whether the client has an API key.
func (c *Client) Enabled() bool { return c.key != "" }

// Release returns the SciGraph release being queried.
func (c *Client) Release() string { return c.release }

// SparcAPI returns the root URL of the release's SciGraph API.
func (c *Client) SparcAPI() string { return c.endpoint + "/" + c.release }

func (c *Client) apinatAPI() string { return c.SparcAPI() + "/dynamic/demos/apinat" }

// Query runs a Cypher query against the release and returns the resulting
// graph.
func (c *Client) Query(ctx context.Context, cypher string, params map[string]string) (blob.Blob, error) {
	if !c.Enabled() {
		return blob.Blob{}, ErrNoAPIKey
	}
	q := url.Values{"cypherQuery": {cypher}}
	for k, v := range params {
		q.Set(k, v)
	}
	var b blob.Blob
	key := c.keyer.QueryKey(c.release, cypher, params)
	err := c.fetch(ctx, key, c.SparcAPI()+"/cypher/execute.json", q, &b)
	return b, err
}

// get fetches a JSON document, keyed in the cache by its URL without the
// API key.
func (c *Client) get(ctx context.Context, rawURL string, v any) error {
	return c.fetch(ctx, c.api.Key(rawURL), rawURL, nil, v)
}

func (c *Client) fetch(ctx context.Context, key, rawURL string, params url.Values, v any) error {
	q := url.Values{"api_key": {c.key}, "limit": {resultLimit}}
	for k, vs := range params {
		q[k] = vs
	}
	u, err := integrations.WithQuery(rawURL, q)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request url")
	}
	err = c.api.Cached(ctx, key, c.refresh, v, func() error {
		return c.api.Get(ctx, u, v)
	})
	if err != nil {
		c.logger.Warn("couldn't access SciCrunch", "url", rawURL, "err", err)
		return classify(err)
	}
	return nil
}

func classify(err error) error {
	var rl *errors.RateLimitedError
	switch {
	case goerrors.As(err, &rl):
		return errors.Wrap(errors.ErrCodeRateLimited, err, "SciCrunch is rate limiting requests")
	case goerrors.Is(err, integrations.ErrNotFound):
		return errors.Wrap(errors.ErrCodeNotFound, err, "not found in SciCrunch")
	case goerrors.Is(err, integrations.ErrUnauthorized):
		return errors.Wrap(errors.ErrCodeUnauthorized, err, "SciCrunch rejected the API key")
	case goerrors.Is(err, context.Canceled), goerrors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return errors.Wrap(errors.ErrCodeNetwork, err, "SciCrunch request failed")
	}
}
