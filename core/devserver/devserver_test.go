package devserver_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/ssrbridge/core/devserver"
	"github.com/dmitrymomot/ssrbridge/core/handler"
	"github.com/dmitrymomot/ssrbridge/core/router"
)

// upstream mimics a Vite server in middleware mode: it knows its own
// client modules and answers 404 for everything else.
func upstream(t *testing.T) *url.URL {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/@vite/client":
			w.Header().Set("Content-Type", "text/javascript")
			_, _ = w.Write([]byte("// vite client"))
		case strings.HasPrefix(r.URL.Path, devserver.FSPrefix):
			_, _ = w.Write([]byte("fs:" + strings.TrimPrefix(r.URL.Path, "/@fs")))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	return u
}

func page(ctx *router.Context) handler.Response {
	return func(w http.ResponseWriter, r *http.Request) error {
		_, err := w.Write([]byte("rendered " + r.URL.Path))
		return err
	}
}

func newRouter(t *testing.T, root string, opts ...devserver.Option) router.Router[*router.Context] {
	t.Helper()

	proxy, err := devserver.Start(context.Background(), root, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = proxy.Close() })

	r := router.New[*router.Context]()
	r.Use(devserver.Middleware[*router.Context](proxy))
	r.Handle("/*", page)
	return r
}

func get(r http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestMiddlewareProxiesKnownPaths(t *testing.T) {
	t.Parallel()

	r := newRouter(t, t.TempDir(), devserver.WithURL(upstream(t)))

	w := get(r, "/@vite/client")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "// vite client", w.Body.String())
	assert.Equal(t, "text/javascript", w.Header().Get("Content-Type"))
}

func TestMiddlewarePassesThroughOn404(t *testing.T) {
	t.Parallel()

	r := newRouter(t, t.TempDir(), devserver.WithURL(upstream(t)))

	w := get(r, "/products/42")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "rendered /products/42", w.Body.String())
}

func TestMiddlewareFSAllowList(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	root := filepath.Join(base, "webapp")
	r := newRouter(t, root,
		devserver.WithURL(upstream(t)),
		devserver.WithFSAllow("../shared"),
	)

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"inside_root", filepath.ToSlash(filepath.Join(root, "src", "main.ts")), http.StatusOK},
		{"allow_listed", filepath.ToSlash(filepath.Join(base, "shared", "ui.ts")), http.StatusOK},
		{"outside", "/etc/passwd", http.StatusForbidden},
		{"traversal", filepath.ToSlash(root) + "/../secret.txt", http.StatusForbidden},
		{"sibling_prefix", filepath.ToSlash(root) + "-other/x.ts", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(r, "/@fs"+tt.path)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestForwardDeniedError(t *testing.T) {
	t.Parallel()

	proxy, err := devserver.Start(context.Background(), t.TempDir(), devserver.WithURL(upstream(t)))
	require.NoError(t, err)

	served, err := proxy.Forward(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/@fs/etc/hosts", nil))
	assert.False(t, served)
	assert.ErrorIs(t, err, devserver.ErrFSDenied)
}

func TestMiddlewareUpstreamDown(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	dead, err := url.Parse(srv.URL)
	require.NoError(t, err)
	srv.Close()

	r := newRouter(t, t.TempDir(), devserver.WithURL(dead))

	w := get(r, "/@vite/client")
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestAllowed(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	proxy, err := devserver.Start(context.Background(), root,
		devserver.WithURL(&url.URL{Scheme: "http", Host: "localhost:5173"}),
		devserver.WithFSAllow("/opt/shared", "node_modules/.pnpm"),
	)
	require.NoError(t, err)

	assert.Equal(t, root, proxy.Root())
	assert.Equal(t, "localhost:5173", proxy.URL().Host)

	assert.True(t, proxy.Allowed(root))
	assert.True(t, proxy.Allowed(filepath.Join(root, "pages", "index.tsx")))
	assert.True(t, proxy.Allowed("/opt/shared/lib.ts"))
	assert.False(t, proxy.Allowed("/opt/shared-other/lib.ts"))
	assert.False(t, proxy.Allowed(filepath.Dir(root)))
}

func TestStartLaunchesCommand(t *testing.T) {
	t.Parallel()

	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	proxy, err := devserver.Start(ctx, t.TempDir(),
		devserver.WithCommand("sh", "-c", "echo '  ➜  Local:   http://127.0.0.1:5173/'; sleep 30"),
		devserver.WithStartTimeout(10*time.Second),
	)
	require.NoError(t, err)
	defer proxy.Close()

	assert.Equal(t, "http://127.0.0.1:5173/", proxy.URL().String())
}

func TestStartTimesOutWithoutURL(t *testing.T) {
	t.Parallel()

	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	_, err := devserver.Start(context.Background(), t.TempDir(),
		devserver.WithCommand("sh", "-c", "echo 'no url here'; sleep 30"),
		devserver.WithStartTimeout(200*time.Millisecond),
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, devserver.ErrNoURL)
}

func TestMiddlewareLeavesPagesToNext(t *testing.T) {
	t.Parallel()

	// A full SSR dev server answers every path, pages included.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>dev " + r.URL.Path + "</html>"))
	}))
	t.Cleanup(srv.Close)
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	r := newRouter(t, t.TempDir(), devserver.WithURL(u))

	tests := []struct {
		path string
		want string
	}{
		{"/", "rendered /"},
		{"/products/42", "rendered /products/42"},
		{"/@vite/client", "<html>dev /@vite/client</html>"},
		{"/src/main.ts", "<html>dev /src/main.ts</html>"},
		{"/node_modules/.vite/deps/react.js", "<html>dev /node_modules/.vite/deps/react.js</html>"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := get(r, tt.path)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, w.Body.String())
		})
	}
}

func TestMiddlewareMissingFilePassesThrough(t *testing.T) {
	t.Parallel()

	r := newRouter(t, t.TempDir(), devserver.WithURL(upstream(t)))

	w := get(r, "/favicon.ico")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "rendered /favicon.ico", w.Body.String())
}

func TestForwards(t *testing.T) {
	t.Parallel()

	proxy, err := devserver.Start(context.Background(), t.TempDir(),
		devserver.WithURL(&url.URL{Scheme: "http", Host: "localhost:5173"}),
		devserver.WithForwardPrefixes("/@solid-refresh"),
	)
	require.NoError(t, err)

	tests := []struct {
		name    string
		path    string
		upgrade bool
		want    bool
	}{
		{name: "root", path: "/", want: false},
		{name: "page", path: "/products/42", want: false},
		{name: "versioned_page", path: "/v1.2/docs", want: false},
		{name: "vite_client", path: "/@vite/client", want: true},
		{name: "vite_id", path: "/@id/__x00__virtual", want: true},
		{name: "fs", path: "/@fs/tmp/x.ts", want: true},
		{name: "react_refresh", path: "/@react-refresh", want: true},
		{name: "node_modules", path: "/node_modules/.vite/deps/react", want: true},
		{name: "extension", path: "/pages/index/+Page.tsx", want: true},
		{name: "custom_prefix", path: "/@solid-refresh", want: true},
		{name: "hmr_upgrade", path: "/", upgrade: true, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.upgrade {
				req.Header.Set("Connection", "Upgrade")
				req.Header.Set("Upgrade", "websocket")
			}
			assert.Equal(t, tt.want, proxy.Forwards(req))
		})
	}
}

func writeFile(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(name), 0o755))
	require.NoError(t, os.WriteFile(name, []byte(content), 0o644))
}

func TestWorkspaceRoot(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		files map[string]string
		want  string
	}{
		{
			name:  "pnpm",
			files: map[string]string{"pnpm-workspace.yaml": "packages: ['apps/*']", "apps/web/package.json": "{}"},
			want:  ".",
		},
		{
			name:  "lerna",
			files: map[string]string{"lerna.json": "{}", "apps/web/package.json": "{}"},
			want:  ".",
		},
		{
			name:  "package_workspaces",
			files: map[string]string{"package.json": `{"workspaces":["apps/*"]}`, "apps/web/package.json": "{}"},
			want:  ".",
		},
		{
			name:  "plain_packages",
			files: map[string]string{"package.json": `{"name":"outer"}`, "apps/web/package.json": `{"name":"web"}`},
			want:  "apps/web",
		},
		{
			name:  "no_package",
			files: map[string]string{"apps/web/src/main.ts": ""},
			want:  "apps/web",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ws := t.TempDir()
			for name, content := range tt.files {
				writeFile(t, filepath.Join(ws, filepath.FromSlash(name)), content)
			}
			root := filepath.Join(ws, "apps", "web")
			assert.Equal(t, filepath.Join(ws, filepath.FromSlash(tt.want)), devserver.WorkspaceRoot(root))
		})
	}
}

func TestDefaultFSAllowIsWorkspaceRoot(t *testing.T) {
	t.Parallel()

	ws := t.TempDir()
	writeFile(t, filepath.Join(ws, "pnpm-workspace.yaml"), "packages: ['apps/*']")
	root := filepath.Join(ws, "apps", "web")
	writeFile(t, filepath.Join(root, "package.json"), "{}")

	r := newRouter(t, root, devserver.WithURL(upstream(t)))

	hoisted := filepath.ToSlash(filepath.Join(ws, "node_modules", "vite", "dist", "client", "client.mjs"))
	w := get(r, "/@fs"+hoisted)
	assert.Equal(t, http.StatusOK, w.Code)

	w = get(r, "/@fs"+filepath.ToSlash(filepath.Join(filepath.Dir(ws), "elsewhere", "x.ts")))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestExplicitFSAllowReplacesDefault(t *testing.T) {
	t.Parallel()

	ws := t.TempDir()
	writeFile(t, filepath.Join(ws, "pnpm-workspace.yaml"), "packages: ['apps/*']")
	root := filepath.Join(ws, "apps", "web")

	proxy, err := devserver.Start(context.Background(), root,
		devserver.WithURL(&url.URL{Scheme: "http", Host: "localhost:5173"}),
		devserver.WithFSAllow("../shared"),
	)
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(ws, "apps", "shared")}, proxy.FSAllow())
	assert.False(t, proxy.Allowed(filepath.Join(ws, "node_modules", "vite")))
}

func TestStartPassesFSAllowEnv(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("env(1) not available")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	root := t.TempDir()
	proxy, err := devserver.Start(ctx, root,
		devserver.WithFSAllow("/opt/shared"),
		devserver.WithCommand("sh", "-c", `echo "  ➜  Local:   http://127.0.0.1:5173/?allow=$`+devserver.FSAllowEnv+`"; sleep 30`),
		devserver.WithStartTimeout(10*time.Second),
	)
	require.NoError(t, err)
	defer proxy.Close()

	allow := strings.Split(proxy.URL().Query().Get("allow"), string(os.PathListSeparator))
	assert.Equal(t, []string{root, "/opt/shared"}, allow)
}
