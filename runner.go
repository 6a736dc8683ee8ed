package plotcalc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/AbhinitBarua/PlottingCalculator/pkg/domain"
)

// Runner drives an interactive plotting session over the provided IO.
// This allows for easy testing and integration with different frontends.
type Runner struct {
	Input    io.Reader
	Output   io.Writer
	Headless bool
	Renderer ContentRenderer
	// Exporter writes the current plot to a file; "save" is unavailable without it.
	Exporter func(ctx context.Context, plot domain.Plot, path string) error
	// SessionID names the session the runner edits (default "repl").
	SessionID string
}

// ContentRenderer is a function that transforms markdown before outputting it.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)

const replHelp = `| Command | Effect |
|---|---|
| ` + "`add <expr>`" + ` | plot f(x) = expr |
| ` + "`rm <index>`" + ` | remove the function at index |
| ` + "`ls`" + ` | list functions |
| ` + "`domain <min> <max>`" + ` | change the x range |
| ` + "`calc <expr>`" + ` | evaluate once |
| ` + "`at <index> <x>`" + ` | value of one function at x |
| ` + "`save <file.png>`" + ` | render the plot |
| ` + "`exit`" + ` | quit |
`

// Run reads commands until EOF or "exit".
func (r *Runner) Run(ctx context.Context, svc *Service) error {
	if r.Input == nil {
		return fmt.Errorf("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return fmt.Errorf("output writer must be set (use os.Stdout)")
	}
	lineReader := bufio.NewReader(r.Input)
	writer := r.Output

	sessionID := r.SessionID
	if sessionID == "" {
		sessionID = "repl"
	}
	state, _, err := svc.StartSession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}

	if !r.Headless {
		fmt.Fprintln(writer, "--- plotcalc REPL (type help) ---")
		r.print(listMarkdown(state))
	}

	for {
		if !r.Headless {
			fmt.Fprint(writer, "> ")
		}
		text, err := lineReader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && text != "") {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("input error: %w", err)
		}

		cmd, arg, _ := strings.Cut(strings.TrimSpace(text), " ")
		arg = strings.TrimSpace(arg)
		if cmd == "exit" || cmd == "quit" {
			fmt.Fprintln(writer, "Bye!")
			return nil
		}
		if cmd != "" {
			r.dispatch(ctx, svc, sessionID, cmd, arg)
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
	}
}

func (r *Runner) dispatch(ctx context.Context, svc *Service, sessionID, cmd, arg string) {
	switch cmd {
	case "help":
		r.print(replHelp)

	case "add":
		change, err := svc.AddFunction(ctx, sessionID, arg, nil)
		if err != nil {
			r.fail(err)
			return
		}
		fmt.Fprintf(r.Output, "[%d] %s %s\n", change.Function.Index, change.Function.Label, change.Function.Color)

	case "rm":
		index, err := strconv.Atoi(arg)
		if err != nil {
			fmt.Fprintln(r.Output, "usage: rm <index>")
			return
		}
		change, err := svc.RemoveFunction(ctx, sessionID, index)
		if err != nil {
			r.fail(err)
			return
		}
		fmt.Fprintf(r.Output, "removed %s\n", change.Function.Label)

	case "ls":
		state, err := svc.View(ctx, sessionID)
		if err != nil {
			r.fail(err)
			return
		}
		r.print(listMarkdown(state))

	case "domain":
		fields := strings.Fields(arg)
		if len(fields) != 2 {
			fmt.Fprintln(r.Output, "usage: domain <min> <max>")
			return
		}
		lo, err1 := strconv.ParseFloat(fields[0], 64)
		hi, err2 := strconv.ParseFloat(fields[1], 64)
		if err1 != nil || err2 != nil {
			fmt.Fprintln(r.Output, "usage: domain <min> <max>")
			return
		}
		change, err := svc.SetDomain(ctx, sessionID, domain.Domain{XMin: lo, XMax: hi})
		if err != nil {
			r.fail(err)
			return
		}
		fmt.Fprintf(r.Output, "x in [%g, %g]\n", change.State.Domain.XMin, change.State.Domain.XMax)

	case "calc", "=":
		fmt.Fprintln(r.Output, svc.Calculate(ctx, arg))

	case "at":
		r.at(ctx, svc, sessionID, arg)

	case "save":
		if r.Exporter == nil || arg == "" {
			fmt.Fprintln(r.Output, "usage: save <file.png|file.svg>")
			return
		}
		plot, err := svc.Plot(ctx, sessionID)
		if err != nil {
			r.fail(err)
			return
		}
		if err := r.Exporter(ctx, plot, arg); err != nil {
			r.fail(err)
			return
		}
		fmt.Fprintf(r.Output, "wrote %s\n", arg)

	default:
		fmt.Fprintf(r.Output, "unknown command %q (type help)\n", cmd)
	}
}

func (r *Runner) at(ctx context.Context, svc *Service, sessionID, arg string) {
	fields := strings.Fields(arg)
	if len(fields) != 2 {
		fmt.Fprintln(r.Output, "usage: at <index> <x>")
		return
	}
	index, err1 := strconv.Atoi(fields[0])
	x, err2 := strconv.ParseFloat(fields[1], 64)
	if err1 != nil || err2 != nil {
		fmt.Fprintln(r.Output, "usage: at <index> <x>")
		return
	}
	state, err := svc.View(ctx, sessionID)
	if err != nil {
		r.fail(err)
		return
	}
	if index < 0 || index >= len(state.Functions) {
		r.fail(domain.ErrIndexOutOfRange)
		return
	}
	points, err := svc.Sample(ctx, state.Functions[index].Expression, domain.Domain{XMin: x, XMax: x + 1}, 1)
	if err != nil {
		r.fail(err)
		return
	}
	if len(points) == 0 || points[0].X != x {
		fmt.Fprintf(r.Output, "undefined at x=%g\n", x)
		return
	}
	fmt.Fprintln(r.Output, domain.FormatPoint(points[0].X, points[0].Y))
}

func (r *Runner) fail(err error) {
	fmt.Fprintln(r.Output, domain.UserMessage(err))
}

func (r *Runner) print(markdown string) {
	output := markdown
	if r.Renderer != nil {
		if rendered, err := r.Renderer(markdown); err == nil {
			output = rendered
		}
	}
	fmt.Fprintln(r.Output, strings.TrimSpace(output))
}

func listMarkdown(state *domain.PlotState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**x in [%g, %g]**\n\n", state.Domain.XMin, state.Domain.XMax)
	if len(state.Functions) == 0 {
		b.WriteString("_no functions_\n")
		return b.String()
	}
	b.WriteString("| # | Function | Color |\n|---|---|---|\n")
	for _, v := range domain.Views(state.Functions) {
		fmt.Fprintf(&b, "| %d | `%s` | %s |\n", v.Index, v.Label, v.Color)
	}
	return b.String()
}
