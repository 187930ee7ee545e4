package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hurou927/pg-schema-explorer/internal/output"
	"github.com/hurou927/pg-schema-explorer/internal/schema"
)

var (
	describeFormat    string
	describeHighlight bool
)

var describeCmd = &cobra.Command{
	Use:   "describe <[schema.]name>",
	Short: "Describe one table, view or routine",
	Long: `Looks the name up among tables, views and routines (routines match by name or
specific name) and prints its model. Unknown names list close matches.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		s, err := connect(ctx)
		if err != nil {
			return err
		}
		defer s.close()

		d, err := s.introspect(ctx)
		if err != nil {
			return err
		}

		doc, definition, err := describe(d, args[0], describeHighlight)
		if err != nil {
			return err
		}
		return writeDescription(os.Stdout, doc, definition)
	},
}

func init() {
	describeCmd.Flags().StringVar(&describeFormat, "format", "yaml", "output format: yaml or json")
	describeCmd.Flags().BoolVar(&describeHighlight, "highlight", false, "print the SQL definition separately with syntax colors")
	rootCmd.AddCommand(describeCmd)
}

// describe finds name in d and returns its document. With highlight set and
// a single match, the definition is split out of the document and returned
// separately. Several matches keep their definitions inline.
func describe(d *schema.Database, name string, highlight bool) (any, string, error) {
	schemaName, objName, qualified := strings.Cut(name, ".")
	if !qualified {
		schemaName, objName = "", name
	}
	match := func(s, n string) bool {
		return n == objName && (schemaName == "" || s == schemaName)
	}

	var found []any
	for _, t := range d.Tables {
		if match(t.Schema, t.Name) {
			found = append(found, output.TableDocument(d, t))
		}
	}
	for _, v := range d.Views {
		if match(v.Schema, v.Name) {
			found = append(found, output.ViewDocument(v))
		}
	}
	for _, c := range d.Commands {
		if match(c.Schema, c.Name) || match(c.SpecificSchema, c.SpecificName) {
			found = append(found, output.CommandDocument(c))
		}
	}

	switch len(found) {
	case 0:
		msg := fmt.Sprintf("%q not found", name)
		if suggestions := d.Suggest(name, 5); len(suggestions) > 0 {
			msg += "; did you mean: " + strings.Join(suggestions, ", ")
		}
		return nil, "", fmt.Errorf("%s", msg)
	case 1:
		if !highlight {
			return found[0], "", nil
		}
		switch doc := found[0].(type) {
		case output.ViewDoc:
			definition := doc.Definition
			doc.Definition = ""
			return doc, definition, nil
		case output.CommandDoc:
			definition := doc.Definition
			doc.Definition = ""
			return doc, definition, nil
		}
		return found[0], "", nil
	default:
		// Overloads and same-named objects in several schemas.
		return found, "", nil
	}
}

func writeDescription(w io.Writer, doc any, definition string) error {
	var err error
	switch describeFormat {
	case "yaml":
		err = output.WriteYAML(w, doc)
	case "json":
		err = output.WriteJSON(w, doc)
	default:
		return fmt.Errorf("unknown format: %s (supported: yaml, json)", describeFormat)
	}
	if err != nil || definition == "" {
		return err
	}
	h := output.NewHighlighter(output.DefaultTheme())
	_, err = fmt.Fprintf(w, "\n%s\n", h.Highlight(strings.TrimSpace(definition)))
	return err
}
