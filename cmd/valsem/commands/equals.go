package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dyluth/valsem/internal/document"
	"github.com/dyluth/valsem/internal/printer"
	"github.com/dyluth/valsem/pkg/valsem"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var equalsShowDiff bool

var equalsCmd = &cobra.Command{
	Use:   "equals BASE OTHER...",
	Short: "Compare documents against a base document",
	Long: `Compare one or more YAML or JSON documents against a base document.

Documents are equal when they hold the same values: mapping key order does
not matter, sequence order does, and a null differs from an empty mapping
or sequence. Exits non-zero when any document differs.

Examples:
  # Compare two configs
  valsem equals prod.yml staging.yml

  # Show what differs
  valsem equals --diff base.json a.json b.yml`,
	Args: cobra.MinimumNArgs(2),
	RunE: runEquals,
}

func init() {
	equalsCmd.Flags().BoolVar(&equalsShowDiff, "diff", false, "Print a diff for each document that differs")
	rootCmd.AddCommand(equalsCmd)
}

func runEquals(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	docs, err := document.LoadAll(ctx, args)
	if err != nil {
		return printer.Error(
			"failed to load documents",
			err.Error(),
			[]string{"Check that every path exists and holds valid YAML or JSON"},
		)
	}

	base, others := docs[0], docs[1:]
	differing := 0
	for _, doc := range others {
		equal := valsem.Equals(base.Body, doc.Body)
		logger.Debug("compared document",
			zap.String("base", base.Path),
			zap.String("path", doc.Path),
			zap.Bool("equal", equal))

		printer.Verdict(filepath.Base(doc.Path), equal)
		if equal {
			continue
		}
		differing++
		if equalsShowDiff {
			printer.Diff(cmp.Diff(base.Body, doc.Body, cmpopts.EquateNaNs()))
		}
	}

	if differing > 0 {
		suggestions := []string{}
		if !equalsShowDiff {
			suggestions = append(suggestions, "Show the differences:\n  valsem equals --diff "+strings.Join(args, " "))
		}
		return printer.Error(
			"documents differ",
			fmt.Sprintf("%d of %d documents differ from %s.", differing, len(others), base.Path),
			suggestions,
		)
	}

	printer.Success("all %d documents equal %s\n", len(others), filepath.Base(base.Path))
	return nil
}
