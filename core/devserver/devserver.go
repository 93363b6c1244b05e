package devserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"cloudeng.io/webapp/devserver"

	"github.com/dmitrymomot/ssrbridge/core/logger"
)

var (
	// ErrFSDenied is returned for /@fs/ requests outside the root and allow-list.
	ErrFSDenied = errors.New("devserver: filesystem path not allowed")
	// ErrNoURL is returned when the dev server exits or times out before printing its URL.
	ErrNoURL = errors.New("devserver: dev server did not report a URL")
)

// FSPrefix is the URL prefix Vite uses to serve files by absolute path.
const FSPrefix = "/@fs/"

// FSAllowEnv is set for a launched dev server to the effective /@fs/
// allow-list, joined with os.PathListSeparator. A Vite config can read it:
//
//	server: { fs: { allow: process.env.SSR_DEV_FS_ALLOW?.split(path.delimiter) } }
const FSAllowEnv = "SSR_DEV_FS_ALLOW"

// DefaultForwardPrefixes are the URL prefixes of dev server module traffic.
var DefaultForwardPrefixes = []string{
	"/@vite/",
	"/@id/",
	FSPrefix,
	"/@react-refresh",
	"/node_modules/",
	"/__vite",
}

const defaultStartTimeout = 30 * time.Second

type config struct {
	target       *url.URL
	binary       string
	args         []string
	output       io.Writer
	extractor    devserver.URLExtractor
	allow        []string
	prefixes     []string
	startTimeout time.Duration
	logger       *slog.Logger
}

// Option configures Start.
type Option func(*config)

// WithURL proxies to an already running dev server instead of launching one.
func WithURL(u *url.URL) Option {
	return func(c *config) {
		c.target = u
	}
}

// WithCommand overrides the dev server command. The default is
// "npm run dev -- --host".
func WithCommand(binary string, args ...string) Option {
	return func(c *config) {
		c.binary = binary
		c.args = args
	}
}

// WithOutput sets where the dev server's stdout is forwarded.
func WithOutput(w io.Writer) Option {
	return func(c *config) {
		if w != nil {
			c.output = w
		}
	}
}

// WithURLExtractor sets how the dev server URL is parsed from its output.
func WithURLExtractor(e devserver.URLExtractor) Option {
	return func(c *config) {
		if e != nil {
			c.extractor = e
		}
	}
}

// WithFSAllow sets the filesystem paths, besides the root, that may be
// served through /@fs/. Relative paths are resolved against the root.
// Without it the workspace root found by WorkspaceRoot is allowed.
func WithFSAllow(paths ...string) Option {
	return func(c *config) {
		c.allow = append(c.allow, paths...)
	}
}

// WithForwardPrefixes adds URL prefixes that are always sent to the dev
// server, on top of DefaultForwardPrefixes.
func WithForwardPrefixes(prefixes ...string) Option {
	return func(c *config) {
		c.prefixes = append(c.prefixes, prefixes...)
	}
}

// WithStartTimeout bounds how long Start waits for the dev server URL.
func WithStartTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.startTimeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// Proxy forwards requests to a dev server.
type Proxy struct {
	target   *url.URL
	root     string
	allow    []string
	prefixes []string
	proxy    *httputil.ReverseProxy
	server   *devserver.DevServer
	cancel   context.CancelFunc
	logger   *slog.Logger
}

// Start returns a Proxy for the dev server of the application in root.
// Unless WithURL is given, the dev server command is started in root and
// Start blocks until it prints its URL. The process lives until ctx is
// cancelled or Close is called.
func Start(ctx context.Context, root string, opts ...Option) (*Proxy, error) {
	cfg := &config{
		binary:       "npm",
		args:         []string{"run", "dev", "--", "--host"},
		output:       io.Discard,
		extractor:    devserver.NewViteURLExtractor(nil),
		startTimeout: defaultStartTimeout,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("devserver: resolve root %q: %w", root, err)
	}

	p := &Proxy{
		root:     absRoot,
		prefixes: append(append([]string{}, DefaultForwardPrefixes...), cfg.prefixes...),
		logger:   cfg.logger.With(logger.Component("devserver")),
	}
	for _, a := range cfg.allow {
		if !filepath.IsAbs(a) {
			a = filepath.Join(absRoot, a)
		}
		p.allow = append(p.allow, filepath.Clean(a))
	}
	if len(p.allow) == 0 {
		p.allow = []string{WorkspaceRoot(absRoot)}
	}

	target := cfg.target
	if target == nil {
		runCtx, cancel := context.WithCancel(ctx)
		p.cancel = cancel
		binary, args := p.command(cfg.binary, cfg.args)
		p.server = devserver.NewServer(runCtx, absRoot, binary, args...)

		waitCtx, stop := context.WithTimeout(ctx, cfg.startTimeout)
		defer stop()

		p.logger.InfoContext(ctx, "starting dev server",
			logger.Dir(absRoot),
			slog.String("command", strings.Join(append([]string{cfg.binary}, cfg.args...), " ")),
			slog.Any("fs_allow", p.allow),
		)

		target, err = p.server.StartAndWaitForURL(waitCtx, cfg.output, cfg.extractor)
		if err != nil {
			_ = p.Close()
			return nil, errors.Join(ErrNoURL, err)
		}
		if target == nil {
			_ = p.Close()
			return nil, ErrNoURL
		}
	}

	p.target = target
	p.proxy = p.newReverseProxy()

	p.logger.InfoContext(ctx, "proxying to dev server", logger.URL(target.String()))

	return p, nil
}

// command prefixes the dev server command with env(1) so the process sees
// the allow-list in FSAllowEnv. Windows has no env binary; there the
// variable has to be set by the caller.
func (p *Proxy) command(binary string, args []string) (string, []string) {
	if runtime.GOOS == "windows" {
		return binary, args
	}
	allow := append([]string{p.root}, p.allow...)
	env := FSAllowEnv + "=" + strings.Join(allow, string(os.PathListSeparator))
	return "env", append([]string{env, binary}, args...)
}

// URL returns the dev server address.
func (p *Proxy) URL() *url.URL {
	u := *p.target
	return &u
}

// Root returns the absolute application root.
func (p *Proxy) Root() string {
	return p.root
}

// Close stops a launched dev server. It is a no-op for WithURL proxies.
func (p *Proxy) Close() error {
	if p.server != nil {
		p.server.Close()
	}
	if p.cancel != nil {
		p.cancel()
	}
	return nil
}

// FSAllow returns the absolute paths, besides the root, that may be served
// through /@fs/.
func (p *Proxy) FSAllow() []string {
	return append([]string(nil), p.allow...)
}

// Forwards reports whether r is dev server traffic: client modules, files,
// /@fs/ reads and websocket upgrades. Page navigations are left to the next
// handler.
func (p *Proxy) Forwards(r *http.Request) bool {
	if r.Header.Get("Upgrade") != "" {
		return true
	}
	for _, prefix := range p.prefixes {
		if strings.HasPrefix(r.URL.Path, prefix) {
			return true
		}
	}
	return path.Ext(r.URL.Path) != ""
}

// Allowed reports whether the absolute filesystem path may be served through
// /@fs/.
func (p *Proxy) Allowed(fsPath string) bool {
	fsPath = filepath.Clean(fsPath)
	if within(p.root, fsPath) {
		return true
	}
	for _, a := range p.allow {
		if within(a, fsPath) {
			return true
		}
	}
	return false
}

// checkFS validates /@fs/ requests. Other paths always pass.
func (p *Proxy) checkFS(urlPath string) error {
	if !strings.HasPrefix(urlPath, FSPrefix) {
		return nil
	}
	fsPath := filepath.FromSlash(path.Clean("/" + strings.TrimPrefix(urlPath, FSPrefix)))
	if p.Allowed(fsPath) {
		return nil
	}
	return deniedError{fmt.Errorf("%w: %s", ErrFSDenied, fsPath)}
}

func within(dir, target string) bool {
	rel, err := filepath.Rel(dir, target)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

type deniedError struct {
	error
}

func (deniedError) StatusCode() int { return http.StatusForbidden }

func (e deniedError) Unwrap() error { return e.error }
