package server

import (
	"crypto/tls"
	"errors"
	"fmt"
	"time"
)

// Config holds server configuration with environment variable support.
type Config struct {
	Addr string `env:"SERVER_ADDR" envDefault:":8080"`

	ReadTimeout       time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`
	ReadHeaderTimeout time.Duration `env:"SERVER_READ_HEADER_TIMEOUT" envDefault:"5s"`
	WriteTimeout      time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout       time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"60s"`
	ShutdownTimeout   time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s"`

	MaxHeaderBytes int `env:"SERVER_MAX_HEADER_BYTES" envDefault:"1048576"`

	// TLS is enabled when both files are set.
	TLSCertFile string `env:"SERVER_TLS_CERT_FILE"`
	TLSKeyFile  string `env:"SERVER_TLS_KEY_FILE"`
}

// DefaultConfig returns a Config with the package defaults.
func DefaultConfig() Config {
	return Config{
		Addr:              ":8080",
		ReadTimeout:       DefaultReadTimeout,
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
		WriteTimeout:      DefaultWriteTimeout,
		IdleTimeout:       DefaultIdleTimeout,
		ShutdownTimeout:   DefaultShutdownTimeout,
		MaxHeaderBytes:    DefaultMaxHeaderBytes,
	}
}

// NewFromConfig creates a Server from configuration.
// Additional options override config values.
func NewFromConfig(cfg Config, opts ...Option) (*Server, error) {
	if cfg.Addr == "" {
		return nil, ErrMissingAddress
	}

	configOpts := make([]Option, 0, 7+len(opts))

	if cfg.ReadTimeout > 0 {
		configOpts = append(configOpts, WithReadTimeout(cfg.ReadTimeout))
	}
	if cfg.ReadHeaderTimeout > 0 {
		configOpts = append(configOpts, WithReadHeaderTimeout(cfg.ReadHeaderTimeout))
	}
	if cfg.WriteTimeout > 0 {
		configOpts = append(configOpts, WithWriteTimeout(cfg.WriteTimeout))
	}
	if cfg.IdleTimeout > 0 {
		configOpts = append(configOpts, WithIdleTimeout(cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout > 0 {
		configOpts = append(configOpts, WithShutdownTimeout(cfg.ShutdownTimeout))
	}
	if cfg.MaxHeaderBytes > 0 {
		configOpts = append(configOpts, WithMaxHeaderBytes(cfg.MaxHeaderBytes))
	}

	if cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
		tlsConfig, err := loadTLSFromFiles(cfg.TLSCertFile, cfg.TLSKeyFile)
		if err != nil {
			return nil, err
		}
		configOpts = append(configOpts, WithTLS(tlsConfig))
	}

	configOpts = append(configOpts, opts...)

	return New(cfg.Addr, configOpts...), nil
}

func loadTLSFromFiles(certFile, keyFile string) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, errors.Join(ErrFailedLoadCert, fmt.Errorf("%s, %s: %w", certFile, keyFile, err))
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}
