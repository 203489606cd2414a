package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/flyerdex/internal/domain/search/mode"
	"github.com/kailas-cloud/flyerdex/internal/domain/search/request"
	"github.com/kailas-cloud/flyerdex/internal/domain/search/result"
	"github.com/kailas-cloud/flyerdex/internal/app"
	logpkg "github.com/kailas-cloud/flyerdex/internal/logger"
	chiTransport "github.com/kailas-cloud/flyerdex/internal/transport/chi"
)

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Run one search against the configured catalog and print the results",
	Long: `Run the retrieval pipeline once, without starting the HTTP server.
With --recipe the argument is a comma-separated ingredient list and every
ingredient is searched with the same filters.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().String("mode", string(mode.Hybrid), "search mode: hybrid, semantic, keyword")
	queryCmd.Flags().StringSlice("market", nil, "restrict to markets (repeatable)")
	queryCmd.Flags().StringSlice("category", nil, "restrict to categories (repeatable)")
	queryCmd.Flags().String("active-on", "", `keep offers valid on this day (YYYY-MM-DD or "today")`)
	queryCmd.Flags().Float64("min-price", 0, "minimum price")
	queryCmd.Flags().Float64("max-price", 0, "maximum price (0 = unbounded)")
	queryCmd.Flags().Int("offset", 0, "page offset")
	queryCmd.Flags().Int("limit", request.DefaultLimit, "page size")
	queryCmd.Flags().Bool("recipe", false, "treat the argument as a comma-separated ingredient list")
	queryCmd.Flags().Bool("json", false, "print the API response JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, env, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Keep stdout for results: the CLI logs warnings only.
	logger, err := logpkg.NewLogger(env, "warn")
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := cmd.Context()
	a, err := app.Build(ctx, &cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	text := ""
	if len(args) == 1 {
		text = args[0]
	}
	modeFlag, _ := cmd.Flags().GetString("mode")
	markets, _ := cmd.Flags().GetStringSlice("market")
	categories, _ := cmd.Flags().GetStringSlice("category")
	activeOn, _ := cmd.Flags().GetString("active-on")
	minPrice, _ := cmd.Flags().GetFloat64("min-price")
	maxPrice, _ := cmd.Flags().GetFloat64("max-price")
	offset, _ := cmd.Flags().GetInt("offset")
	limit, _ := cmd.Flags().GetInt("limit")
	recipe, _ := cmd.Flags().GetBool("recipe")
	asJSON, _ := cmd.Flags().GetBool("json")

	base, err := request.New(text, mode.Mode(modeFlag), markets, minPrice, maxPrice, offset, limit)
	if err != nil {
		return fmt.Errorf("invalid query: %w", err)
	}
	base = base.WithCategories(categories...)
	if activeOn != "" {
		day, err := parseDay(activeOn, time.Now())
		if err != nil {
			return fmt.Errorf("invalid --active-on: %w", err)
		}
		base = base.WithActiveOn(day)
	}

	out := cmd.OutOrStdout()
	if !recipe {
		resp, err := a.Search.Search(ctx, base)
		if err != nil {
			return fmt.Errorf("search: %w", err)
		}
		logger.Debug("query done", zap.Int("total", resp.Total))
		if asJSON {
			return printJSON(out, chiTransport.SearchResponseFromResult(&resp))
		}
		printTable(out, text, &resp)
		return nil
	}

	results, err := a.Search.SearchRecipe(ctx, strings.Split(text, ","), base)
	if err != nil {
		return fmt.Errorf("recipe search: %w", err)
	}
	if asJSON {
		return printJSON(out, chiTransport.RecipeResponseFromResults(results))
	}
	for i := range results {
		printTable(out, results[i].Ingredient, &results[i].Response)
		fmt.Fprintln(out)
	}
	return nil
}

// parseDay accepts YYYY-MM-DD or "today" (the calendar day of now).
func parseDay(s string, now time.Time) (time.Time, error) {
	if strings.EqualFold(s, "today") {
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	day, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse day %q: %w", s, err)
	}
	return day, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printTable(w io.Writer, query string, resp *result.Response) {
	intentKey := "-"
	if resp.Intent != nil {
		intentKey = resp.Intent.Key
	}
	fmt.Fprintf(w, "%q: %d results (strategy %s, intent %s, %d -> %d candidates)\n",
		query, resp.Total, resp.Strategy, intentKey, resp.Reduction.Before, resp.Reduction.After)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i := range resp.Items {
		it := &resp.Items[i]
		fmt.Fprintf(tw, "%s\t%.2f\t%s\t%s\t%s\n", it.ID(), it.Price(), it.Market(), it.Category(), it.Name())
	}
	_ = tw.Flush()
}
