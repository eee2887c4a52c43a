// Package cli provides a line-oriented executor for query handle tools.
//
// Input is either a command (tools, help <tool>, exit) or an XML tool call,
// which may span several lines:
//
//	> <tool>
//	  <tool_name>select_from_query_handle</tool_name>
//	  <arguments><handle>qh_...</handle><selector>[0,2]</selector></arguments>
//	  </tool>
//
// Example usage:
//
//	registry := tools.NewRegistry()
//	for _, tool := range handletools.All(svc, reverter, 10) {
//	    registry.Register(tool)
//	}
//	if err := cli.NewExecutor(registry).Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/entrhq/queryhandles/pkg/tools"
)

// Executor reads tool calls and commands from a reader and renders results.
type Executor struct {
	registry *tools.Registry
	reader   *bufio.Reader
	writer   io.Writer

	showMetadata bool
	interactive  bool
}

// ExecutorOption is a function that configures an Executor.
type ExecutorOption func(*Executor)

// WithWriter sets a custom output writer (default is os.Stdout).
func WithWriter(w io.Writer) ExecutorOption {
	return func(e *Executor) {
		e.writer = w
	}
}

// WithReader sets a custom input reader (default is os.Stdin).
func WithReader(r io.Reader) ExecutorOption {
	return func(e *Executor) {
		e.reader = bufio.NewReader(r)
	}
}

// WithShowMetadata enables/disables printing tool result metadata.
func WithShowMetadata(show bool) ExecutorOption {
	return func(e *Executor) {
		e.showMetadata = show
	}
}

// WithInteractive enables the welcome banner and "> " prompts.
func WithInteractive(interactive bool) ExecutorOption {
	return func(e *Executor) {
		e.interactive = interactive
	}
}

// NewExecutor creates a new CLI executor for the given registry.
func NewExecutor(registry *tools.Registry, opts ...ExecutorOption) *Executor {
	e := &Executor{
		registry: registry,
		reader:   bufio.NewReader(os.Stdin),
		writer:   os.Stdout,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Run processes input until EOF, an exit command, or context cancellation.
// Tool failures are printed and do not stop the loop.
func (e *Executor) Run(ctx context.Context) error {
	if e.interactive {
		fmt.Fprintln(e.writer, headerStyle.Render("Query Handles"))
		fmt.Fprintln(e.writer, tipsStyle.Render("Paste an XML tool call, or type 'tools', 'help <tool>' or 'exit'."))
		fmt.Fprintln(e.writer)
	}

	var pending strings.Builder
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if e.interactive && pending.Len() == 0 {
			fmt.Fprint(e.writer, "> ")
		}
		line, err := e.reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("failed to read input: %w", err)
		}
		eof := err == io.EOF

		if pending.Len() > 0 || strings.HasPrefix(strings.TrimSpace(line), "<") {
			pending.WriteString(line)
			if tools.HasToolCall(pending.String()) {
				e.executeToolCall(ctx, pending.String())
				pending.Reset()
			} else if eof {
				e.handleError(fmt.Errorf("incomplete tool call at end of input"))
			}
		} else if stop := e.handleCommand(strings.TrimSpace(line)); stop {
			return nil
		}

		if eof {
			return nil
		}
	}
}

// handleCommand runs a non-XML input line. It reports whether the loop should end.
func (e *Executor) handleCommand(input string) bool {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return false
	}

	switch fields[0] {
	case "exit", "quit":
		return true
	case "tools":
		for _, tool := range e.registry.List() {
			fmt.Fprintf(e.writer, "%s  %s\n", toolStyle.Render(tool.Name()), tipsStyle.Render(tool.Description()))
		}
	case "help":
		if len(fields) < 2 {
			e.handleError(fmt.Errorf("usage: help <tool>"))
			return false
		}
		tool, ok := e.registry.Get(fields[1])
		if !ok {
			e.handleError(fmt.Errorf("unknown tool: %s", fields[1]))
			return false
		}
		fmt.Fprintln(e.writer, toolStyle.Render(tool.Name()))
		fmt.Fprintln(e.writer, tool.Description())
		fmt.Fprintln(e.writer, exampleStyle.Render(tools.XMLExample(tool)))
	default:
		e.handleError(fmt.Errorf("unknown command %q (type 'tools' to list tools)", fields[0]))
	}
	return false
}

func (e *Executor) executeToolCall(ctx context.Context, text string) {
	res, err := e.registry.Execute(ctx, text)
	if err != nil {
		e.handleError(err)
		return
	}

	fmt.Fprintln(e.writer, toolStyle.Render("🔧 "+res.ToolName))
	fmt.Fprintln(e.writer, toolResultStyle.Render(res.Output))
	if e.showMetadata && len(res.Metadata) > 0 {
		keys := make([]string, 0, len(res.Metadata))
		for k := range res.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintln(e.writer, metadataStyle.Render(fmt.Sprintf("  %s: %v", k, res.Metadata[k])))
		}
	}
	fmt.Fprintln(e.writer)
}

func (e *Executor) handleError(err error) {
	fmt.Fprintln(e.writer, errorStyle.Render(fmt.Sprintf("❌ Error: %v", err)))
}
