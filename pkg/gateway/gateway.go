// Package gateway provides the public API for embedding the AI gateway.
// This is the stable surface for external consumers.
package gateway

import (
	"github.com/chocolab/ai-gateway/internal/runtime"
)

// Gateway is the main entry point for running the AI gateway.
// See internal/runtime.Gateway for full documentation.
type Gateway = runtime.Gateway

// Option is a functional option for configuring a Gateway.
type Option = runtime.Option

// New creates a new Gateway with the given options.
// Example:
//
//	gw, err := gateway.New(
//	    gateway.WithFileConfig("gateway.yaml"),
//	    gateway.WithSQLite("./data/gateway.db"),
//	)
var New = runtime.New

var (
	// Config sources
	WithFileConfig = runtime.WithFileConfig
	WithEnvConfig  = runtime.WithEnvConfig
	WithConfig     = runtime.WithConfig

	// Storage
	WithSQLite        = runtime.WithSQLite
	WithMemoryStorage = runtime.WithMemoryStorage
	WithCacheStore    = runtime.WithCacheStore
	WithExchangeStore = runtime.WithExchangeStore

	// Events and provider
	WithEventPublisher = runtime.WithEventPublisher
	WithProvider       = runtime.WithProvider

	// Advanced
	WithLogger = runtime.WithLogger
)
