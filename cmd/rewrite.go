package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/treegrep/treegrep"
	"github.com/treegrep/treegrep/engine"
	"github.com/treegrep/treegrep/rules"
	"github.com/treegrep/treegrep/syntax"
)

var (
	rewriteTo    string
	ruleFile     string
	rewriteWrite bool
)

var rewriteCmd = &cobra.Command{
	Use:   "rewrite [pattern] [paths...]",
	Short: "Rewrite structural matches using a template or a YAML rule file",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		ruleSet, paths := buildRules(args)
		if len(paths) == 0 {
			paths = []string{"."}
		}

		opts := treegrep.Options{Config: engine.DefaultConfig(), Progress: true}
		results, err := treegrep.Rewrite(ctx, logger, opts, ruleSet, paths, rewriteWrite)
		if err != nil {
			logger.Fatal("Rewrite failed", zap.Error(err))
		}

		total := 0
		for _, fr := range results {
			total += fr.NumReplacements
			if rewriteWrite {
				fmt.Printf("%s: %d replacement(s)\n", fr.Path, fr.NumReplacements)
				continue
			}
			// Dry run: show the rewritten output.
			fmt.Printf("--- %s (%d replacement(s))\n", fr.Path, fr.NumReplacements)
			fmt.Print(fr.Output)
		}
		if total == 0 {
			fmt.Println("nothing to rewrite")
		}
	},
}

// buildRules assembles the rule set from either --rules or the positional
// pattern plus --to template.
func buildRules(args []string) ([]*engine.RewriteRule, []string) {
	if ruleFile != "" {
		compiled, err := rules.LoadAndCompile(ruleFile)
		if err != nil {
			logger.Fatal("Failed to load rules", zap.Error(err))
		}
		ruleSet := make([]*engine.RewriteRule, 0, len(compiled))
		for _, c := range compiled {
			ruleSet = append(ruleSet, c.Rewrite)
		}
		return ruleSet, args
	}

	if len(args) == 0 || rewriteTo == "" {
		fmt.Println("error: provide a pattern with --to TEMPLATE, or --rules FILE")
		os.Exit(1)
	}

	lang, err := syntax.FromString(langName)
	if err != nil {
		logger.Fatal("Unknown language", zap.Error(err))
	}
	pattern, err := engine.Compile(args[0], lang)
	if err != nil {
		logger.Fatal("Failed to compile pattern", zap.Error(err))
	}
	pattern.ID = "adhoc"

	rule, err := engine.NewRewriteRule(pattern, rewriteTo)
	if err != nil {
		logger.Fatal("Invalid rewrite template", zap.Error(err))
	}
	return []*engine.RewriteRule{rule}, args[1:]
}

func init() {
	rewriteCmd.Flags().StringVar(&rewriteTo, "to", "", "Replacement template ($NAME references captures)")
	rewriteCmd.Flags().StringVar(&ruleFile, "rules", "", "YAML rule file")
	rewriteCmd.Flags().BoolVarP(&rewriteWrite, "write", "w", false, "Write changes back to files")
}
