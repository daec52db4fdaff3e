package common

import (
	"fmt"
	"net/url"

	"github.com/jonesrussell/seocrawl/internal/config"
	"github.com/jonesrussell/seocrawl/internal/logger"
)

// NewCommandDeps creates CommandDeps by loading config and creating
// the logger. This consolidates the common initialization code shared
// by every subcommand.
func NewCommandDeps() (CommandDeps, error) {
	cfg, err := config.Load()
	if err != nil {
		return CommandDeps{}, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(&cfg.Logger)
	if err != nil {
		return CommandDeps{}, fmt.Errorf("create logger: %w", err)
	}

	deps := CommandDeps{
		Logger: log,
		Config: cfg,
	}

	if validateErr := deps.Validate(); validateErr != nil {
		return CommandDeps{}, fmt.Errorf("validate deps: %w", validateErr)
	}

	return deps, nil
}

// ResolveSiteKey maps a command argument onto a storage site key. The
// argument may be a site key as stored, or a URL whose host the key is
// derived from.
func ResolveSiteKey(arg string) string {
	if parsed, err := url.Parse(arg); err == nil && parsed.Scheme != "" && parsed.Host != "" {
		return config.SiteKeyForHost(parsed.Host)
	}
	return config.SiteKeyForHost(arg)
}
