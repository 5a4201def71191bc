package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dukex/composer/pkg/nodes"
	"github.com/dukex/composer/pkg/preview"
	"github.com/dukex/composer/pkg/session"
)

const shellHelp = `Commands:
  add <type>                 append a node (see: types)
  select <i>                 select node i
  edit <i>                   show node i for editing
  set <i> <key> <json>       set a parameter of node i
  rename <i> <name>          rename node i
  name <workflow name>       rename the workflow
  delete <i>                 delete node i
  preview [json|yaml]        print the workflow
  save                       create or update the workflow on the server
  generate <description>     replace the workflow with a generated one
  types                      list node types
  help                       show this help
  quit                       leave`

var errQuit = errors.New("quit")

// shell is the line-oriented editor loop. Failures of session operations are
// reported by the session through the terminal, so exec only returns its own
// parse errors.
type shell struct {
	session *session.Session
	factory *nodes.Factory
	term    *terminal
}

func (s *shell) run(ctx context.Context) error {
	out := s.term.out

	fmt.Fprintln(out, "Composer workflow editor. Type help for commands.")
	s.session.Refresh()

	for {
		fmt.Fprint(out, "> ")

		if !s.term.in.Scan() {
			fmt.Fprintln(out)

			return s.term.in.Err()
		}

		err := s.exec(ctx, s.term.in.Text())
		if errors.Is(err, errQuit) {
			return nil
		}

		if err != nil {
			s.term.Error(err.Error())
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (s *shell) exec(ctx context.Context, line string) error {
	command, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	rest = strings.TrimSpace(rest)

	switch command {
	case "":
		return nil
	case "add":
		if rest == "" {
			return errors.New("usage: add <type>")
		}

		if _, ok := s.factory.Lookup(rest); !ok {
			s.term.Info(fmt.Sprintf("%q is not a built-in type, adding it with empty parameters", rest))
		}

		s.session.AddNode(rest)
	case "select":
		index, err := parseIndex(rest)
		if err != nil {
			return err
		}

		if !s.session.SelectNode(index) {
			return fmt.Errorf("no node at index %d", index)
		}
	case "edit":
		index, err := parseIndex(rest)
		if err != nil {
			return err
		}

		if form, err := s.session.EditNode(index); err == nil {
			printForm(s.term.out, form)
		}
	case "set":
		return s.set(rest)
	case "rename":
		indexText, name, _ := strings.Cut(rest, " ")

		index, err := parseIndex(indexText)
		if err != nil {
			return err
		}

		_ = s.session.RenameNode(index, strings.TrimSpace(name))
	case "name":
		s.session.Rename(rest)
	case "delete":
		index, err := parseIndex(rest)
		if err != nil {
			return err
		}

		_, _ = s.session.DeleteNode(index)
	case "preview":
		format, err := preview.ParseFormat(rest)
		if err != nil {
			return err
		}

		data, err := s.session.Preview(format)
		if err != nil {
			return err
		}

		fmt.Fprintln(s.term.out, string(data))
	case "save":
		_, _ = s.session.Save(ctx)
	case "generate":
		_ = s.session.Generate(ctx, rest)
	case "types":
		printTypes(s.term.out, s.factory)
	case "help":
		fmt.Fprintln(s.term.out, shellHelp)
	case "quit", "exit":
		return errQuit
	default:
		return fmt.Errorf("unknown command %q, type help", command)
	}

	return nil
}

// set parses "<i> <key> <json>". A value that is not valid JSON is taken as
// a plain string.
func (s *shell) set(args string) error {
	fields := strings.SplitN(args, " ", 3)
	if len(fields) < 3 {
		return errors.New("usage: set <i> <key> <json>")
	}

	index, err := parseIndex(fields[0])
	if err != nil {
		return err
	}

	raw := strings.TrimSpace(fields[2])

	var value any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		value = raw
	}

	_ = s.session.SetParameter(index, fields[1], value)

	return nil
}

func parseIndex(text string) (int, error) {
	index, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, fmt.Errorf("invalid node index %q", text)
	}

	return index, nil
}

func printForm(out io.Writer, form nodes.Form) {
	fmt.Fprintf(out, "  id:   %s\n  type: %s\n", form.NodeID, form.Type)

	if form.Description != "" {
		fmt.Fprintf(out, "  %s\n", form.Description)
	}

	data, err := json.MarshalIndent(form.Parameters, "  ", "  ")
	if err == nil {
		fmt.Fprintf(out, "  parameters: %s\n", data)
	}
}

func printTypes(out io.Writer, factory *nodes.Factory) {
	for _, t := range factory.Types() {
		defaults, _ := json.Marshal(t.Defaults())
		fmt.Fprintf(out, "%-10s %-15s %s\n", t.ID, t.Name, defaults)
	}
}
