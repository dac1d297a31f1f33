package commands

import (
	"github.com/dyluth/valsem/internal/document"
	"github.com/dyluth/valsem/internal/printer"
	"github.com/dyluth/valsem/pkg/valsem"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var cloneOutputFormat string

var cloneCmd = &cobra.Command{
	Use:   "clone FILE",
	Short: "Deep-copy a document and print the copy",
	Long: `Deep-copy a YAML or JSON document, check that the copy equals the
source, and print it.

Output Formats:
  yaml - YAML with two-space indentation
  json - indented JSON
The default is the format of FILE.

Examples:
  # Normalise a JSON document to YAML
  valsem clone --output=yaml config.json`,
	Args: cobra.ExactArgs(1),
	RunE: runClone,
}

func init() {
	cloneCmd.Flags().StringVarP(&cloneOutputFormat, "output", "o", "", "Output format: yaml or json (default: input format)")
	rootCmd.AddCommand(cloneCmd)
}

func runClone(cmd *cobra.Command, args []string) error {
	doc, err := document.Load(args[0])
	if err != nil {
		return printer.Error(
			"failed to load document",
			err.Error(),
			[]string{"Check that the path exists and holds valid YAML or JSON"},
		)
	}

	format := doc.Format
	if cloneOutputFormat != "" {
		if format, err = document.ParseFormat(cloneOutputFormat); err != nil {
			return printer.Error(
				"invalid output format",
				err.Error(),
				[]string{"Valid formats: yaml, json"},
			)
		}
	}

	copied, err := valsem.Default().Clone(doc.Body)
	if err != nil {
		return printer.ErrorWithContext(
			"clone failed",
			err.Error(),
			map[string]string{"Path": doc.Path},
			nil,
		)
	}
	if !valsem.Equals(doc.Body, copied) {
		return printer.ErrorWithContext(
			"clone differs from its source",
			"The copy does not compare equal to the document it was made from.",
			map[string]string{"Path": doc.Path},
			[]string{"Re-run with --verbose and report the log output"},
		)
	}
	logger.Debug("cloned document", zap.String("path", doc.Path), zap.String("format", string(format)))

	return document.Encode(cmd.OutOrStdout(), copied, format)
}
