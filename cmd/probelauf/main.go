// Command probelauf verifies connectivity to an OpenAI-compatible
// chat-completion backend by running a fixed set of scenarios against it.
//
// Configuration is layered: built-in defaults, a YAML config file,
// PROBELAUF_* environment variables, and command-line flags. A .env file
// in the working directory is loaded into the environment first, so the
// provider credentials can live next to the project without being
// committed.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/rhuss/probelauf/pkg/config"
)

type rootOptions struct {
	configPath string
	endpoint   string
	model      string
	apiKey     string
	verbose    bool
}

// loadConfig builds the effective configuration from all layers, with
// command-line flags applied last.
func (r *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(r.configPath)
	if err != nil {
		return nil, err
	}

	if r.endpoint != "" {
		cfg.Check.Endpoint = r.endpoint
	}
	if r.model != "" {
		cfg.Check.Model = r.model
	}
	if r.apiKey != "" {
		cfg.Check.APIKey = r.apiKey
	}

	return cfg, nil
}

func (r *rootOptions) setupLogging() {
	level := slog.LevelInfo
	if r.verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func main() {
	// Credentials may live in a .env next to the project; a missing file
	// is not an error.
	_ = godotenv.Load()

	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:           "probelauf",
		Short:         "Connectivity verification for OpenAI-compatible chat backends",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config file (default: ./probelauf.yaml, /etc/probelauf/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&opts.endpoint, "endpoint", "", "backend base URL including /v1 (overrides config)")
	rootCmd.PersistentFlags().StringVar(&opts.model, "model", "", "model name to verify (overrides config)")
	rootCmd.PersistentFlags().StringVar(&opts.apiKey, "api-key", "", "API key (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentPreRun = func(_ *cobra.Command, _ []string) {
		opts.setupLogging()
	}

	rootCmd.AddCommand(newRunCmd(opts))
	rootCmd.AddCommand(newServeCmd(opts))
	rootCmd.AddCommand(newModelsCmd(opts))
	rootCmd.AddCommand(newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
