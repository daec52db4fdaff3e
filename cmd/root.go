// Package cmd implements the command-line interface for seocrawl.
// It provides the root command and subcommands for running crawls,
// viewing reports, and serving them over HTTP.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joho/godotenv"
	crawlcmd "github.com/jonesrussell/seocrawl/cmd/crawl"
	historycmd "github.com/jonesrussell/seocrawl/cmd/history"
	reportcmd "github.com/jonesrussell/seocrawl/cmd/report"
	schedulecmd "github.com/jonesrussell/seocrawl/cmd/schedule"
	servecmd "github.com/jonesrussell/seocrawl/cmd/serve"
	"github.com/jonesrussell/seocrawl/internal/config"
)

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// Debug enables debug logging for all commands
	Debug bool

	rootCmd = &cobra.Command{
		Use:   "seocrawl",
		Short: "An SEO site crawler and auditor",
		Long: `seocrawl crawls a website, extracts its SEO signals, and reports
duplicate content, canonical issues, orphan pages, and broken links
and images. Reports persist per site and successive runs are diffed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command
func Execute() error {
	// Load .env file early so environment variables are available
	_ = godotenv.Load()

	// Parse flags early to get debug flag before creating the logger
	_ = rootCmd.ParseFlags(os.Args[1:])

	if err := initConfig(); err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"config file (default is ./config.yaml or ./config/config.yaml)",
	)
	rootCmd.PersistentFlags().BoolVar(&Debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("seocrawl version %s\n", "1.0.0")
		},
	})

	rootCmd.AddCommand(crawlcmd.Command())
	rootCmd.AddCommand(reportcmd.Command())
	rootCmd.AddCommand(historycmd.Command())
	rootCmd.AddCommand(servecmd.Command())
	rootCmd.AddCommand(schedulecmd.Command())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
	}

	// Environment variables take precedence over defaults; keys map
	// dots to underscores, e.g. STORAGE_BACKEND sets storage.backend.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	// Config file is optional; defaults and environment variables
	// cover a file-less run.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := bindEnvVars(); err != nil {
		return err
	}

	if Debug || viper.GetBool("app.debug") {
		viper.Set("logger.level", "debug")
		Debug = true
	}

	return nil
}

// bindEnvVars maps the conventional environment variable names onto
// config keys that the dot-to-underscore replacer cannot reach.
func bindEnvVars() error {
	bindings := map[string][]string{
		"logger.level":                        {"LOG_LEVEL"},
		"logger.encoding":                     {"LOG_FORMAT"},
		"storage.postgres.password":           {"POSTGRES_PASSWORD", "PGPASSWORD"},
		"export.elasticsearch.addresses":      {"ELASTICSEARCH_HOSTS", "ELASTICSEARCH_ADDRESSES"},
		"export.elasticsearch.password":       {"ELASTIC_PASSWORD", "ELASTICSEARCH_PASSWORD"},
		"export.elasticsearch.api_key":        {"ELASTICSEARCH_API_KEY"},
		"export.elasticsearch.index_prefix":   {"ELASTICSEARCH_INDEX_PREFIX"},
	}
	for key, envs := range bindings {
		if err := viper.BindEnv(append([]string{key}, envs...)...); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("app", map[string]any{
		"name":  "seocrawl",
		"debug": false,
	})

	viper.SetDefault("logger", map[string]any{
		"level":    "info",
		"encoding": "console",
	})

	viper.SetDefault("server", map[string]any{
		"address":       config.DefaultServerAddress,
		"read_timeout":  config.DefaultServerReadTimeout.String(),
		"write_timeout": config.DefaultServerWriteTimeout.String(),
	})

	viper.SetDefault("storage", map[string]any{
		"backend":  config.BackendFile,
		"data_dir": config.DefaultDataDir,
		"postgres": map[string]any{
			"host":    config.DefaultDBHost,
			"port":    config.DefaultDBPort,
			"user":    config.DefaultDBUser,
			"dbname":  config.DefaultDBName,
			"sslmode": config.DefaultSSLMode,
		},
	})

	viper.SetDefault("crawl", map[string]any{
		"user_agent":        config.DefaultUserAgent,
		"delay":             config.DefaultDelay.String(),
		"timeout":           config.DefaultTimeout.String(),
		"max_depth":         config.DefaultMaxDepth,
		"max_pages":         config.DefaultMaxPages,
		"audit_parallelism": config.DefaultAuditParallelism,
		"checkpoint_every":  config.DefaultCheckpointEvery,
	})

	viper.SetDefault("export", map[string]any{
		"elasticsearch": map[string]any{
			"enabled":      false,
			"index_prefix": "seocrawl",
		},
	})
}
