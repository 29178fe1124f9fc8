package main

import (
	"log/slog"
	"os"

	"github.com/matsen/refman/internal/arxiv"
	"github.com/matsen/refman/internal/config"
	"github.com/matsen/refman/internal/crossref"
	"github.com/matsen/refman/internal/document"
	"github.com/matsen/refman/internal/library"
	"github.com/matsen/refman/internal/logging"
	"github.com/matsen/refman/internal/provider"
	"github.com/matsen/refman/internal/pubmed"
	"github.com/matsen/refman/internal/resolver"
)

// mustLoadGlobalConfig loads the global config, exits on error.
func mustLoadGlobalConfig() *config.GlobalConfig {
	cfg, err := config.LoadGlobalConfig()
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

// newLogger builds the stderr logger. --log-level wins over log_level.
func newLogger(cfg *config.GlobalConfig) *slog.Logger {
	level := logLevel
	if level == "" {
		level = cfg.LogLevel
	}
	logger, err := logging.New(os.Stderr, logging.Options{Level: level})
	if err != nil {
		exitWithError(ExitConfigError, "creating logger: %v", err)
	}
	return logger
}

// mustResolveRoot finds the store root, exits on error.
func mustResolveRoot(logger *slog.Logger) string {
	root, source, err := config.ResolveRoot(dataFlag)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	if source == config.RootFromDefault {
		logger.Warn(config.EnvDataRoot+" is not set, using default data directory", "path", root)
	}
	return root
}

// mustOpenLibrary opens the store with network providers wired in, exits
// on error.
func mustOpenLibrary() *library.Library {
	cfg := mustLoadGlobalConfig()
	logger := newLogger(cfg)
	root := mustResolveRoot(logger)

	req := provider.NewRequester(
		provider.WithTimeout(cfg.RequestTimeout()),
		provider.WithMailto(cfg.Mailto),
	)
	res := resolver.New(
		crossref.NewClient(req),
		arxiv.NewClient(req),
		pubmed.NewClient(req),
		req,
		resolver.WithLogger(logger),
	)

	fetchOpts := []document.Option{document.WithLogger(logger)}
	if cfg.MirrorURL != "" {
		fetchOpts = append(fetchOpts, document.WithMirror(cfg.MirrorURL))
	}
	fetcher := document.NewFetcher(req, config.Paths{Root: root}.DocumentsPath(), fetchOpts...)

	lib, err := library.Open(root,
		library.WithResolver(res),
		library.WithFetcher(fetcher),
		library.WithLogger(logger),
	)
	if err != nil {
		exitWithError(ExitConfigError, "opening data directory %s: %v", root, err)
	}
	return lib
}
