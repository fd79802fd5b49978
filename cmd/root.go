package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	langName string
	timeout  time.Duration

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "treegrep",
	Short: "treegrep - structural code search and rewrite with metavariable patterns",
	Long: `treegrep matches structural code shapes against syntax trees.

Patterns are ordinary source fragments with metavariables:
  $VAR       matches any single node and captures it
  $_         matches any single node without capturing
  $...ARGS   matches zero or more sibling nodes

Example:
  treegrep search -l go '$F($...ARGS)' ./...`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	var err error
	logger, err = zap.NewProduction()
	if err != nil {
		panic(err)
	}

	rootCmd.PersistentFlags().StringVarP(&langName, "language", "l", "go", "Target language (go, rust, python, typescript, hcl)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "Timeout for the whole run")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(rewriteCmd)
}
