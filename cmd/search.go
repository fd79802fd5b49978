package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/treegrep/treegrep"
	"github.com/treegrep/treegrep/engine"
	"github.com/treegrep/treegrep/formatter"
	"github.com/treegrep/treegrep/syntax"
)

var (
	searchJSON  bool
	searchNoTxt bool
	maxMatches  int
)

var searchCmd = &cobra.Command{
	Use:   "search <pattern> [paths...]",
	Short: "Find structural matches of a pattern",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		lang, err := syntax.FromString(langName)
		if err != nil {
			logger.Fatal("Unknown language", zap.Error(err))
		}

		pattern, err := engine.Compile(args[0], lang)
		if err != nil {
			logger.Fatal("Failed to compile pattern", zap.Error(err))
		}

		paths := args[1:]
		if len(paths) == 0 {
			paths = []string{"."}
		}

		cfg := engine.DefaultConfig()
		if maxMatches > 0 {
			cfg.MaxMatchesPerRule = maxMatches
		}
		cfg.IncludeText = !searchNoTxt

		opts := treegrep.Options{Config: cfg, Progress: !searchJSON}
		results, err := treegrep.Search(ctx, logger, opts, pattern, paths)
		if err != nil {
			logger.Fatal("Search failed", zap.Error(err))
		}

		if searchJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(results); err != nil {
				logger.Error("Failed to encode results", zap.Error(err))
			}
			return
		}

		total := 0
		for _, fr := range results {
			fmt.Print(formatter.FormatMatches(fr.Path, fr.Matches, fr.Truncated))
			total += len(fr.Matches)
		}
		if total == 0 {
			fmt.Println("no matches")
		}
	},
}

func init() {
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Output matches as JSON")
	searchCmd.Flags().BoolVar(&searchNoTxt, "no-text", false, "Omit matched text (spans only)")
	searchCmd.Flags().IntVar(&maxMatches, "max-matches", 0, "Cap on matches per file (0 = default)")
}
