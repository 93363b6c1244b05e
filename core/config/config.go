package config

import (
	"fmt"
	"os"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	dotenvOnce sync.Once
	cache      sync.Map // reflect.Type -> any (value of T)
	loadMu     sync.Mutex
)

// loadDotenv reads .env from the working directory once. A missing file is not an error.
func loadDotenv() {
	dotenvOnce.Do(func() {
		_ = godotenv.Load()
	})
}

// Load parses environment variables into cfg. The first successful load of a
// type is cached and copied into every later call for the same type.
func Load[T any](cfg *T) error {
	if cfg == nil {
		return fmt.Errorf("config: nil target")
	}

	typ := reflect.TypeOf(cfg).Elem()
	if cached, ok := cache.Load(typ); ok {
		*cfg = cached.(T)
		return nil
	}

	loadMu.Lock()
	defer loadMu.Unlock()

	if cached, ok := cache.Load(typ); ok {
		*cfg = cached.(T)
		return nil
	}

	loadDotenv()

	var fresh T
	if err := env.Parse(&fresh); err != nil {
		return fmt.Errorf("config: failed to parse %s: %w", typ, err)
	}

	cache.Store(typ, fresh)
	*cfg = fresh
	return nil
}

// MustLoad is like Load but panics on failure. Intended for startup code.
func MustLoad[T any](cfg *T) {
	if err := Load(cfg); err != nil {
		panic(err)
	}
}

// PublicEnv returns every environment variable whose name starts with prefix,
// keyed by the full variable name. These values are meant to be shipped to the
// browser, so only variables explicitly marked public by the prefix are taken.
func PublicEnv(prefix string) map[string]string {
	loadDotenv()
	return filterPrefix(env.ToMap(os.Environ()), prefix)
}

func filterPrefix(vars map[string]string, prefix string) map[string]string {
	out := make(map[string]string)
	for k, v := range vars {
		if prefix != "" && strings.HasPrefix(k, prefix) {
			out[k] = v
		}
	}
	return out
}

// Keys returns the sorted keys of a public env mapping, mostly for logging.
func Keys(vars map[string]string) []string {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// reset clears cached configs. Tests only.
func reset() {
	cache.Range(func(k, _ any) bool {
		cache.Delete(k)
		return true
	})
}
