// Package clioutput formats oxdb's CLI results as human-readable text or
// as JSON, chosen by the caller's json flag. IsTTY is provided as a
// separate helper; New does not consult it.
package clioutput

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/ox-ai/oxdb-lite/internal/codec"
	"github.com/ox-ai/oxdb-lite/internal/document"
)

// Writer formats push/pull/search results for out, in either a plain
// icon-prefixed text form or an indented JSON form.
type Writer struct {
	out  io.Writer
	json bool
}

// New builds a Writer. json selects machine-readable output; otherwise
// output is text, whether or not out is a terminal.
func New(out io.Writer, json bool) *Writer {
	return &Writer{out: out, json: json}
}

// IsTTY reports whether out is an interactive terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (w *Writer) status(icon, msg string) {
	if icon != "" {
		fmt.Fprintf(w.out, "%s %s\n", icon, msg)
		return
	}
	fmt.Fprintf(w.out, "%s\n", msg)
}

func (w *Writer) statusf(icon, format string, args ...any) {
	w.status(icon, fmt.Sprintf(format, args...))
}

// Success prints a success line.
func (w *Writer) Success(msg string) { w.status("ok", msg) }

// Error prints an error line.
func (w *Writer) Error(msg string) { w.status("err", msg) }

// PushResult reports the ids a push assigned.
func (w *Writer) PushResult(ids []int64) error {
	if w.json {
		return w.Encode(map[string]any{"ids": ids})
	}
	w.statusf("ok", "pushed %d entries: %v", len(ids), ids)
	return nil
}

// PullResult reports a pull's resolved entries.
func (w *Writer) PullResult(entries map[string]codec.Value) error {
	if w.json {
		return w.Encode(entries)
	}
	w.statusf("", "%d entries", len(entries))
	for k, v := range entries {
		w.statusf("", "  %s: %s", k, v.String())
	}
	return nil
}

// SearchResult reports a search's ranked results.
func (w *Writer) SearchResult(res *document.SearchResult) error {
	if w.json {
		return w.Encode(res)
	}
	w.statusf("search", "%d results", res.Entries)
	for i, id := range res.IDs {
		score := 0.0
		if i < len(res.SimScore) {
			score = res.SimScore[i]
		}
		data := ""
		if i < len(res.Data) {
			data = res.Data[i]
		}
		w.statusf("", "  %d (score %.4f): %s", id, score, data)
	}
	return nil
}

// Encode writes v as indented JSON, the raw form of every result type.
func (w *Writer) Encode(v any) error {
	enc := json.NewEncoder(w.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
