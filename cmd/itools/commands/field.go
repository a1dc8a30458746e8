package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/nkhine/itools/internal/cli/output"
	jsonfmt "github.com/nkhine/itools/pkg/formats/json"
	textfmt "github.com/nkhine/itools/pkg/formats/text"
	tomlfmt "github.com/nkhine/itools/pkg/formats/toml"
	yamlfmt "github.com/nkhine/itools/pkg/formats/yaml"
	"github.com/nkhine/itools/pkg/handler"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var errNoFields = errors.New("format has no addressable fields")

var (
	setString bool
	setDelete bool
)

var getCmd = &cobra.Command{
	Use:   "get <path> <key>",
	Short: "Read a field from a structured file",
	Long: `Read one field of a JSON, YAML or TOML file. Keys are dotted paths
("server.port", "items.0.name"). For text files the key is a 1-based line
number.

Examples:
  itools get /configs/app.yaml server.port
  itools get /package.json dependencies -o json`,
	Args: cobra.ExactArgs(2),
	RunE: runGet,
}

var setCmd = &cobra.Command{
	Use:   "set <path> <key> [value]",
	Short: "Change a field in a structured file",
	Long: `Change one field of a JSON, YAML or TOML file and commit the file.

The value is parsed as YAML, so 8080 is a number, true is a boolean and
[a, b] is a list. Use --string to store the value verbatim, or --delete to
remove the key.

Examples:
  itools set /configs/app.yaml server.port 8080
  itools set /configs/app.toml owner.name --string 0042
  itools set /package.json scripts.test --delete`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runSet,
}

func init() {
	setCmd.Flags().BoolVar(&setString, "string", false, "Store the value as a string without parsing")
	setCmd.Flags().BoolVar(&setDelete, "delete", false, "Remove the key instead of setting it")
}

func runGet(cmd *cobra.Command, args []string) error {
	return withWorkspace(cmd, func(ctx context.Context, w *workspace) error {
		f, err := w.root.GetFile(ctx, treePath(args[0]))
		if err != nil {
			return err
		}
		state, err := f.State(ctx)
		if err != nil {
			return err
		}
		v, err := getField(state, args[1])
		if err != nil {
			return fmt.Errorf("%s: %w", f.Path(), err)
		}

		if w.printer.Format() == output.FormatTable {
			switch v.(type) {
			case map[string]any, []any:
				return output.PrintYAML(w.printer.Writer(), v)
			default:
				w.printer.Println(v)
				return nil
			}
		}
		return w.printer.Print(v)
	})
}

func runSet(cmd *cobra.Command, args []string) error {
	if !setDelete && len(args) != 3 {
		return errors.New("set needs a value unless --delete is given")
	}

	var value any
	if !setDelete {
		var err error
		if value, err = parseValue(args[2], setString); err != nil {
			return err
		}
	}

	return withWorkspace(cmd, func(ctx context.Context, w *workspace) error {
		f, err := w.root.GetFile(ctx, treePath(args[0]))
		if err != nil {
			return err
		}
		err = f.Update(ctx, func(s handler.State) error {
			if setDelete {
				return deleteField(s, args[1])
			}
			return setField(s, args[1], value)
		})
		if err != nil {
			return fmt.Errorf("%s: %w", f.Path(), err)
		}
		if err := w.commit(ctx); err != nil {
			return err
		}
		w.printer.Status("updated %s %s", f.Path(), args[1])
		return nil
	})
}

// parseValue decodes raw as a YAML scalar or collection.
func parseValue(raw string, verbatim bool) (any, error) {
	if verbatim {
		return raw, nil
	}
	var v any
	if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("parse value: %w", err)
	}
	return v, nil
}

func getField(s handler.State, key string) (any, error) {
	switch d := s.(type) {
	case *jsonfmt.Document:
		r := d.Get(key)
		if !r.Exists() {
			return nil, fmt.Errorf("%s: not found", key)
		}
		return r.Value(), nil
	case *yamlfmt.Document:
		var v any
		if err := d.Get(key, &v); err != nil {
			return nil, err
		}
		return v, nil
	case *tomlfmt.Document:
		return d.Get(key)
	case *textfmt.Document:
		i, err := lineIndex(d, key)
		if err != nil {
			return nil, err
		}
		return d.Lines()[i], nil
	default:
		return nil, errNoFields
	}
}

func setField(s handler.State, key string, value any) error {
	switch d := s.(type) {
	case *jsonfmt.Document:
		return d.Set(key, value)
	case *yamlfmt.Document:
		return d.Set(key, value)
	case *tomlfmt.Document:
		return d.Set(key, value)
	case *textfmt.Document:
		i, err := lineIndex(d, key)
		if err != nil {
			return err
		}
		lines := d.Lines()
		lines[i] = fmt.Sprint(value)
		d.SetLines(lines)
		return nil
	default:
		return errNoFields
	}
}

func deleteField(s handler.State, key string) error {
	switch d := s.(type) {
	case *jsonfmt.Document:
		return d.Delete(key)
	case *yamlfmt.Document:
		return d.Delete(key)
	case *tomlfmt.Document:
		d.Delete(key)
		return nil
	case *textfmt.Document:
		i, err := lineIndex(d, key)
		if err != nil {
			return err
		}
		lines := d.Lines()
		d.SetLines(append(lines[:i], lines[i+1:]...))
		return nil
	default:
		return errNoFields
	}
}

func lineIndex(d *textfmt.Document, key string) (int, error) {
	n, err := strconv.Atoi(key)
	if err != nil {
		return 0, fmt.Errorf("text key must be a line number: %q", key)
	}
	if n < 1 || n > len(d.Lines()) {
		return 0, fmt.Errorf("line %d out of range (1-%d)", n, len(d.Lines()))
	}
	return n - 1, nil
}
