package commands

import (
	"fmt"
	"strings"

	"github.com/dyluth/valsem/internal/printer"
	"github.com/dyluth/valsem/pkg/manifest"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check MANIFEST",
	Short: "Validate a valsem.yml manifest",
	Long: `Parse and validate a manifest declaring per-type clone and equality
behaviour, then list the declared types.

Examples:
  valsem check valsem.yml`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	printer.Step("Checking %s\n", args[0])
	m, err := manifest.Load(args[0])
	if err != nil {
		return printer.Error(
			"invalid manifest",
			err.Error(),
			[]string{"See 'valsem check --help' for the manifest format"},
		)
	}

	for _, name := range m.Names() {
		decl := m.Types[name]
		printer.Info("  %s: %s\n", name, describe(decl))
		if decl.IsDefault() {
			printer.Warning("%s declares nothing and keeps the default behaviour\n", name)
		}
	}
	printer.Success("%s is valid (%d types)\n", args[0], len(m.Types))
	return nil
}

// describe summarises a declaration on one line, filling in defaults
func describe(s manifest.TypeSpec) string {
	parts := []string{
		"clone=" + orDefault(s.Clone, "deep"),
		"equals=" + orDefault(s.Equals, "structural"),
	}
	if s.FieldDefault != "" {
		parts = append(parts, "fields="+s.FieldDefault)
	}
	for _, set := range []struct {
		key    string
		fields []string
	}{
		{"include", s.Include},
		{"exclude", s.Exclude},
		{"clone_include", s.CloneInclude},
		{"clone_exclude", s.CloneExclude},
		{"equals_include", s.EqualsInclude},
		{"equals_exclude", s.EqualsExclude},
	} {
		if len(set.fields) > 0 {
			parts = append(parts, fmt.Sprintf("%s=[%s]", set.key, strings.Join(set.fields, ",")))
		}
	}
	if s.Constructor != "" {
		parts = append(parts, fmt.Sprintf("constructor=%s(%s)", s.Constructor, strings.Join(s.ConstructorFields, ",")))
	}
	return strings.Join(parts, " ")
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
