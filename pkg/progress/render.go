package progress

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig"
	"github.com/dustin/go-humanize"
	"golang.org/x/term"

	"github.com/sharky-compress/sharky/pkg/types"
)

// DefaultFormat is the template rendered for every snapshot by a TerminalRenderer. It is
// executed with a Snapshot and has the sprig functions plus "bytes" available.
const DefaultFormat = `{{ .Stage | title }} [{{ repeat .Filled "#" }}{{ repeat .Empty "-" }}] ` +
	`{{ bytes .Done }}{{ if .Total }} / {{ bytes .Total }} ({{ printf "%.1f" .Percent }}%){{ end }}` +
	`{{ if .TotalEntries }} {{ .Entries }}/{{ .TotalEntries }} entries{{ end }}` +
	` | {{ bytes .Rate }}/s{{ if .ETA }} | ETA {{ .ETA }}{{ end }}`

// Renderer draws snapshots. Errors returned by a Renderer disable it for the rest of the
// run; they never fail the pipeline.
type Renderer interface {
	Render(Snapshot) error
	Finish(Snapshot) error
}

// NoopRenderer draws nothing. It is used for non-interactive output and in tests.
type NoopRenderer struct{}

// Render implements Renderer.
func (NoopRenderer) Render(Snapshot) error { return nil }

// Finish implements Renderer.
func (NoopRenderer) Finish(Snapshot) error { return nil }

// TerminalRenderer redraws a single line on a terminal.
type TerminalRenderer struct {
	w       io.Writer
	tmpl    *template.Template
	lastLen int
}

// NewTerminalRenderer returns a renderer writing to w using the given template format. An
// empty format uses DefaultFormat.
func NewTerminalRenderer(w io.Writer, format string) (*TerminalRenderer, error) {
	if format == "" {
		format = DefaultFormat
	}
	tmpl, err := template.New("progress").
		Funcs(sprig.TxtFuncMap()).
		Funcs(template.FuncMap{"bytes": formatBytes}).
		Parse(format)
	if err != nil {
		return nil, &types.InvalidParameterError{Name: "progress-format", Reason: err.Error()}
	}
	return &TerminalRenderer{w: w, tmpl: tmpl}, nil
}

// Render implements Renderer.
func (r *TerminalRenderer) Render(s Snapshot) error {
	var line bytes.Buffer
	if err := r.tmpl.Execute(&line, s); err != nil {
		return err
	}
	text := strings.ReplaceAll(line.String(), "\n", " ")
	pad := ""
	if r.lastLen > len(text) {
		pad = strings.Repeat(" ", r.lastLen-len(text))
	}
	r.lastLen = len(text)
	_, err := fmt.Fprint(r.w, "\r", text, pad)
	return err
}

// Finish implements Renderer.
func (r *TerminalRenderer) Finish(s Snapshot) error {
	if err := r.Render(s); err != nil {
		return err
	}
	_, err := fmt.Fprintln(r.w)
	return err
}

// NewRenderer picks the renderer for a run. Progress is only drawn when it is enabled and
// out is an interactive terminal, or when force is set.
func NewRenderer(out *os.File, enabled, force bool, format string) (Renderer, error) {
	r, err := NewTerminalRenderer(out, format)
	if err != nil {
		return nil, err
	}
	if !enabled || (!force && !IsTerminal(out)) {
		return NoopRenderer{}, nil
	}
	return r, nil
}

// IsTerminal returns true if f is attached to an interactive terminal.
func IsTerminal(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}

func formatBytes(v interface{}) string {
	switch n := v.(type) {
	case int64:
		if n < 0 {
			return "0 B"
		}
		return humanize.IBytes(uint64(n))
	case int:
		if n < 0 {
			return "0 B"
		}
		return humanize.IBytes(uint64(n))
	case uint64:
		return humanize.IBytes(n)
	}
	return fmt.Sprint(v)
}
