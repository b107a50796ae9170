// Package render writes command results for the streamvault CLI.
//
// Format selection:
//   - A TTY defaults to table, anything else to json
//   - --format always overrides the default
//   - Invalid formats are errors
//
// --no-color affects table output only; the TUI keeps its own styling.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"reflect"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/Jharmony/StreamVault/cli/tui"
	"github.com/Jharmony/StreamVault/types"
)

// Format represents an output format.
type Format string

// Supported formats.
const (
	FormatJSON  Format = "json"
	FormatTable Format = "table"
	FormatYAML  Format = "yaml"
)

// ParseFormat parses a format string, returning an error for invalid formats.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatJSON, FormatTable, FormatYAML:
		return f, nil
	case "":
		return "", nil // Let caller decide default
	default:
		return "", fmt.Errorf("invalid format: %q (must be json, table, or yaml)", s)
	}
}

// Renderer handles output formatting.
type Renderer struct {
	format Format
	// color enables status coloring in tables.
	color bool
	out   io.Writer
}

// NewRenderer creates a renderer from CLI context.
func NewRenderer(c *cli.Context) (*Renderer, error) {
	format, err := ParseFormat(c.String("format"))
	if err != nil {
		return nil, err
	}

	tty := isTTY(os.Stdout)
	if format == "" {
		format = FormatJSON
		if tty {
			format = FormatTable
		}
	}

	return &Renderer{
		format: format,
		color:  tty && !c.Bool("no-color"),
		out:    os.Stdout,
	}, nil
}

// NewRendererWithWriter creates a renderer with a custom writer (for testing).
func NewRendererWithWriter(format Format, color bool, out io.Writer) *Renderer {
	return &Renderer{format: format, color: color, out: out}
}

// Format returns the selected output format.
func (r *Renderer) Format() Format {
	return r.format
}

// Render outputs the data in the configured format.
func (r *Renderer) Render(data any) error {
	switch r.format {
	case FormatJSON:
		enc := json.NewEncoder(r.out)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case FormatYAML:
		enc := yaml.NewEncoder(r.out)
		enc.SetIndent(2)
		return enc.Encode(data)
	case FormatTable:
		return r.renderTable(data)
	default:
		return fmt.Errorf("unknown format: %s", r.format)
	}
}

// RenderTUI shows data in the Bubble Tea view for viewType.
func (r *Renderer) RenderTUI(viewType string, data any) error {
	if !tui.IsTUISupported(viewType) {
		return fmt.Errorf("--tui is not supported for %s", viewType)
	}
	return tui.Run(viewType, data)
}

func (r *Renderer) renderTable(data any) error {
	w := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	// Publish results lead with their overall status.
	if res, ok := data.(*types.PublishResult); ok && res != nil {
		fmt.Fprintf(w, "status:\t%s\n", r.status(res))
	}

	v := indirect(reflect.ValueOf(data))
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		writeRows(w, v)
	case reflect.Struct:
		t := v.Type()
		for i := range t.NumField() {
			name, ok := fieldName(t.Field(i))
			if !ok {
				continue
			}
			fmt.Fprintf(w, "%s:\t%s\n", name, cell(v.Field(i)))
		}
	case reflect.Map:
		for _, key := range sortedKeys(v) {
			fmt.Fprintf(w, "%v:\t%s\n", key.Interface(), cell(v.MapIndex(key)))
		}
	default:
		fmt.Fprintf(w, "%v\n", data)
	}
	return nil
}

// writeRows prints one header line and one line per element. Columns come
// from the first element.
func writeRows(w io.Writer, v reflect.Value) {
	if v.Len() == 0 {
		fmt.Fprintln(w, "(no results)")
		return
	}

	first := indirect(v.Index(0))
	var headers []string
	var pick func(reflect.Value) []string

	switch first.Kind() {
	case reflect.Struct:
		t := first.Type()
		var idx []int
		for i := range t.NumField() {
			if name, ok := fieldName(t.Field(i)); ok {
				headers = append(headers, name)
				idx = append(idx, i)
			}
		}
		pick = func(e reflect.Value) []string {
			out := make([]string, len(idx))
			for j, i := range idx {
				out[j] = cell(e.Field(i))
			}
			return out
		}
	case reflect.Map:
		keys := sortedKeys(first)
		for _, k := range keys {
			headers = append(headers, fmt.Sprint(k.Interface()))
		}
		pick = func(e reflect.Value) []string {
			out := make([]string, len(keys))
			for j, k := range keys {
				out[j] = cell(e.MapIndex(k))
			}
			return out
		}
	default:
		for i := range v.Len() {
			fmt.Fprintln(w, cell(v.Index(i)))
		}
		return
	}

	fmt.Fprintln(w, strings.Join(headers, "\t"))
	for i := range v.Len() {
		fmt.Fprintln(w, strings.Join(pick(indirect(v.Index(i))), "\t"))
	}
}

// status summarizes a result as succeeded, rejected, orphaned or failed.
func (r *Renderer) status(res *types.PublishResult) string {
	var s string
	switch {
	case res.Success:
		s = "succeeded"
	case res.Rejected:
		s = "rejected"
	case res.Orphaned():
		s = "orphaned"
	default:
		s = "failed"
	}
	if !r.color {
		return s
	}
	return tui.StateStyle(s).Render(s)
}

// fieldName is the json name of an exported field; ok is false for
// skipped fields.
func fieldName(f reflect.StructField) (string, bool) {
	if !f.IsExported() {
		return "", false
	}
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	switch name {
	case "-":
		return "", false
	case "":
		return strings.ToLower(f.Name), true
	default:
		return name, true
	}
}

// cell formats one value for a table. Nested values are summarized.
func cell(v reflect.Value) string {
	if !v.IsValid() {
		return ""
	}
	if v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		if v.Len() == 0 {
			return "[]"
		}
		return fmt.Sprintf("[%d items]", v.Len())
	case reflect.Map:
		if v.Len() == 0 {
			return "{}"
		}
		return fmt.Sprintf("{%d keys}", v.Len())
	case reflect.Struct:
		if t, ok := v.Interface().(time.Time); ok {
			if t.IsZero() {
				return ""
			}
			return t.UTC().Format(time.RFC3339)
		}
		return "{...}"
	default:
		return fmt.Sprint(v.Interface())
	}
}

func indirect(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Ptr && !v.IsNil() {
		v = v.Elem()
	}
	return v
}

// sortedKeys returns map keys in string order so tables are stable.
func sortedKeys(v reflect.Value) []reflect.Value {
	keys := v.MapKeys()
	slices.SortFunc(keys, func(a, b reflect.Value) int {
		return strings.Compare(fmt.Sprint(a.Interface()), fmt.Sprint(b.Interface()))
	})
	return keys
}

// isTTY returns true if the writer is a TTY.
func isTTY(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
