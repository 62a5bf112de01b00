// Package shell implements oxdb's interactive command grammar: short
// forms like `push "..."`, `pull key=..`, and `search "..." topn=..`
// mapped onto Document operations.
package shell

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ox-ai/oxdb-lite/internal/clioutput"
	"github.com/ox-ai/oxdb-lite/internal/document"
	"github.com/ox-ai/oxdb-lite/internal/ouxerr"
	"github.com/ox-ai/oxdb-lite/internal/vectorops"
)

// Command is a parsed shell line: a verb, an optional quoted positional
// string, and zero or more key=value arguments.
type Command struct {
	Verb string
	Text string
	Args map[string]string
}

// Tokenize splits line on space characters, treating a double-quoted run as a
// single token with its quotes stripped, mirroring the `"..."` argument
// convention the shell grammar uses for push/pull/search text.
func Tokenize(line string) ([]string, error) {
	var tokens []string
	var cur strings.Builder
	inQuotes := false
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}

	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ' ' && !inQuotes:
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	if inQuotes {
		return nil, ouxerr.BadArgumentf("unterminated quote in %q", line)
	}
	flush()
	return tokens, nil
}

// Parse tokenizes and structures line into a Command. The first token is
// the verb; subsequent tokens with no "=" are joined with single spaces
// into the positional Text; every "key=value" token populates Args.
func Parse(line string) (Command, error) {
	tokens, err := Tokenize(strings.TrimSpace(line))
	if err != nil {
		return Command{}, err
	}
	if len(tokens) == 0 {
		return Command{}, ouxerr.BadArgumentf("empty command")
	}

	cmd := Command{Verb: strings.ToLower(tokens[0]), Args: map[string]string{}}
	for _, tok := range tokens[1:] {
		if k, v, ok := strings.Cut(tok, "="); ok {
			cmd.Args[k] = v
			continue
		}
		if cmd.Text != "" {
			cmd.Text += " " + tok
		} else {
			cmd.Text = tok
		}
	}
	return cmd, nil
}

// Shell executes parsed Commands against a Document, writing results
// through a clioutput.Writer.
type Shell struct {
	Doc *document.Document
	Out *clioutput.Writer
}

// New builds a Shell bound to doc, printing results to out.
func New(doc *document.Document, out *clioutput.Writer) *Shell {
	return &Shell{Doc: doc, Out: out}
}

// Run parses and executes a single line.
func (s *Shell) Run(ctx context.Context, line string) error {
	cmd, err := Parse(line)
	if err != nil {
		return err
	}
	return s.Execute(ctx, cmd)
}

// Execute dispatches a parsed Command to the matching Document operation.
func (s *Shell) Execute(ctx context.Context, cmd Command) error {
	switch cmd.Verb {
	case "push":
		return s.execPush(ctx, cmd)
	case "pull":
		return s.execPull(cmd)
	case "search":
		return s.execSearch(ctx, cmd)
	case "delete", "del":
		return s.execDelete(cmd)
	case "info":
		s.Out.Success(fmt.Sprintf("doc %q: %d entries", s.Doc.Name(), s.Doc.Len()))
		return nil
	default:
		return ouxerr.BadArgumentf("unknown shell command %q", cmd.Verb)
	}
}

func (s *Shell) execPush(ctx context.Context, cmd Command) error {
	if cmd.Text == "" {
		return ouxerr.BadArgumentf(`push requires a quoted "text" argument`)
	}
	req := document.PushRequest{Data: []string{cmd.Text}}
	if uid, ok := cmd.Args["uid"]; ok {
		req.UID = []string{uid}
	}
	ids, err := s.Doc.Push(ctx, req)
	if err != nil {
		return err
	}
	return s.Out.PushResult(ids)
}

func (s *Shell) execPull(cmd Command) error {
	req := document.PullRequest{DocFile: document.DocFileData}
	where := map[string]string{}
	for k, v := range cmd.Args {
		switch k {
		case "idx":
			ids, err := parseIDList(v)
			if err != nil {
				return err
			}
			req.IDs = ids
		case "uid":
			req.UID = []string{v}
		case "time":
			req.Time = v
		case "date":
			req.Date = v
		case "docfile":
			req.DocFile = document.DocFile(v)
		default:
			where[k] = v
		}
	}
	if len(where) > 0 {
		req.Where = where
	}
	result, err := s.Doc.Pull(req)
	if err != nil {
		return err
	}
	return s.Out.PullResult(result)
}

func (s *Shell) execSearch(ctx context.Context, cmd Command) error {
	if cmd.Text == "" {
		return ouxerr.BadArgumentf(`search requires a quoted "query" argument`)
	}
	req := document.SearchRequest{Query: cmd.Text, TopN: 10, By: vectorops.ByDotProduct}
	if topn, ok := cmd.Args["topn"]; ok {
		n, err := strconv.Atoi(topn)
		if err != nil {
			return ouxerr.BadArgumentf("invalid topn %q: %v", topn, err)
		}
		req.TopN = n
	}
	if by, ok := cmd.Args["by"]; ok {
		req.By = vectorops.By(by)
	}
	res, err := s.Doc.Search(ctx, req)
	if err != nil {
		return err
	}
	return s.Out.SearchResult(res)
}

func (s *Shell) execDelete(cmd Command) error {
	ids, err := parseIDList(cmd.Text)
	if err != nil {
		return err
	}
	if err := s.Doc.Delete(ids); err != nil {
		return err
	}
	s.Out.Success(fmt.Sprintf("deleted %d entries", len(ids)))
	return nil
}

func parseIDList(s string) ([]int64, error) {
	parts := strings.Split(s, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, ouxerr.BadArgumentf("invalid id %q: %v", p, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
