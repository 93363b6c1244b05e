// Package config provides type-safe environment variable loading with caching
// using Go generics. Each configuration type is loaded once and cached for
// subsequent calls.
//
// The package loads a .env file from the working directory on first use and
// uses the caarlos0/env library for parsing environment variables into struct
// fields:
//
//	type ServerConfig struct {
//		Addr string `env:"SERVER_ADDR" envDefault:":8080"`
//	}
//
//	var cfg ServerConfig
//	if err := config.Load(&cfg); err != nil {
//		log.Fatal(err)
//	}
//
// PublicEnv collects the variables that may be exposed to the browser, for
// example every variable named PUBLIC_ENV__*:
//
//	publicEnv := config.PublicEnv("PUBLIC_ENV__")
package config
