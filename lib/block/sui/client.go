// Package sui implements a connection to a Sui full node over JSON-RPC. It covers what a wallet and an explorer
// need: coin and balance reads, the reference gas price, transaction submission and checkpoints.
package sui

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
	"golang.org/x/mod/semver"

	"github.com/tarancss/suiadp/lib/logx"
)

// Named network presets.
var Networks = map[string]string{ //nolint:gochecknoglobals
	"mainnet":  "https://fullnode.mainnet.sui.io:443",
	"testnet":  "https://fullnode.testnet.sui.io:443",
	"devnet":   "https://fullnode.devnet.sui.io:443",
	"localnet": "http://127.0.0.1:9000",
}

// MinAPIVersion is the oldest node API version accepted by Dial.
const MinAPIVersion = "v1.0.0"

// Defaults for the explorer.
const (
	DefaultMaxBlocks = 8
	avgCheckpoint    = 1 // seconds, checkpoints are produced several times per second
)

// Connection errors.
var (
	ErrUnknownNetwork = errors.New("unknown network preset")
	ErrIncompatible   = errors.New("incompatible node API version")
)

// Client is a connection to a Sui node.
type Client struct {
	c          *rpc.Client
	url        string
	version    string
	maxBlocks  int
	minVersion string
}

// Option configures Dial.
type Option func(*dialOptions)

type dialOptions struct {
	secret     string
	timeout    time.Duration
	minVersion string
	maxBlocks  int
	httpClient *http.Client
}

// WithSecret sends secret as Basic Authentication credentials ("user:password").
func WithSecret(secret string) Option {
	return func(o *dialOptions) { o.secret = secret }
}

// WithTimeout bounds every HTTP request made by the client.
func WithTimeout(d time.Duration) Option {
	return func(o *dialOptions) { o.timeout = d }
}

// WithMinAPIVersion overrides MinAPIVersion.
func WithMinAPIVersion(v string) Option {
	return func(o *dialOptions) { o.minVersion = v }
}

// WithMaxBlocks sets how many checkpoints the explorer tracks.
func WithMaxBlocks(n int) Option {
	return func(o *dialOptions) { o.maxBlocks = n }
}

// WithHTTPClient uses hc for the transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *dialOptions) { o.httpClient = hc }
}

// Dial connects to the node at url and checks its API version. Unreachable nodes and versions older than the
// minimum are errors.
func Dial(ctx context.Context, url string, opts ...Option) (*Client, error) {
	o := dialOptions{minVersion: MinAPIVersion, maxBlocks: DefaultMaxBlocks}
	for _, opt := range opts {
		opt(&o)
	}

	var copts []rpc.ClientOption

	hc := o.httpClient
	if hc == nil && o.timeout > 0 {
		hc = &http.Client{Timeout: o.timeout}
	}

	if hc != nil {
		copts = append(copts, rpc.WithHTTPClient(hc))
	}

	if o.secret != "" {
		copts = append(copts, rpc.WithHeader("Authorization",
			"Basic "+base64.StdEncoding.EncodeToString([]byte(o.secret))))
	}

	rc, err := rpc.DialOptions(ctx, url, copts...)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", url)
	}

	c := &Client{c: rc, url: url, maxBlocks: o.maxBlocks, minVersion: o.minVersion}

	if c.version, err = c.discover(ctx); err != nil {
		rc.Close()

		return nil, err
	}

	logx.Debug("SUI", "connected to ", url, " api ", c.version)

	return c, nil
}

// DialNetwork connects to a named preset: mainnet, testnet, devnet or localnet.
func DialNetwork(ctx context.Context, name string, opts ...Option) (*Client, error) {
	url, ok := Networks[strings.ToLower(name)]
	if !ok {
		return nil, errors.Wrap(ErrUnknownNetwork, name)
	}

	return Dial(ctx, url, opts...)
}

type discoverInfo struct {
	Info struct {
		Version string `json:"version"`
	} `json:"info"`
}

func (c *Client) discover(ctx context.Context) (string, error) {
	var d discoverInfo
	if err := c.c.CallContext(ctx, &d, "rpc.discover"); err != nil {
		return "", errors.Wrapf(err, "discover %s", c.url)
	}

	v := d.Info.Version
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}

	if !semver.IsValid(v) {
		return "", errors.Wrapf(ErrIncompatible, "%q", d.Info.Version)
	}

	if semver.Compare(v, c.minVersion) < 0 {
		return "", errors.Wrapf(ErrIncompatible, "%s is older than %s", v, c.minVersion)
	}

	return d.Info.Version, nil
}

// APIVersion returns the version reported by the node when connecting.
func (c *Client) APIVersion() string { return c.version }

// URL returns the node url.
func (c *Client) URL() string { return c.url }

// MaxBlocks returns how many checkpoints are taken into account to check the chain.
func (c *Client) MaxBlocks() int { return c.maxBlocks }

// AvgBlock returns the average checkpoint interval in seconds.
func (c *Client) AvgBlock() int { return avgCheckpoint }

// Close ends the connection.
func (c *Client) Close() {
	c.c.Close()
}

func (c *Client) call(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	if err := c.c.CallContext(ctx, result, method, args...); err != nil {
		return errors.Wrap(err, method)
	}

	return nil
}
