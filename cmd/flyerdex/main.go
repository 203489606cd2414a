// Package main is the flyerdex entry point: the HTTP API server and a one-shot
// query command over the same retrieval pipeline.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/flyerdex/internal/config"
)

// rootCmd is the base command for the flyerdex CLI.
var rootCmd = &cobra.Command{
	Use:   "flyerdex",
	Short: "Hybrid retrieval over supermarket flyer offers",
	Long: `flyerdex answers free-text grocery queries against a catalog of flyer offers.
It classifies the shopping intent, pre-filters by category, prunes candidates by
vector similarity and lets a completion model judge relevance, falling back to
lexical heuristics when the model is unavailable.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("env", config.GetEnv(), "environment name: loads config/<env>.yaml")
	rootCmd.PersistentFlags().String("config", "", "explicit config file path (overrides --env lookup)")
}

// loadConfig resolves the config from --config or --env.
func loadConfig(cmd *cobra.Command) (config.Config, string, error) {
	env, _ := cmd.Flags().GetString("env")
	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		cfg, err := config.LoadFile(path)
		return cfg, env, err
	}
	cfg, err := config.Load(env)
	return cfg, env, err
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
