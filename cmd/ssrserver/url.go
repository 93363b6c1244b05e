package main

import (
	"fmt"
	"net/url"
)

func parseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("dev server url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("dev server url %q: scheme and host required", raw)
	}
	return u, nil
}
