package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/riverfjs/mdstream"
)

func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay [file]",
		Short: "Stream a file through a session and show every frame",
		Long: `replay feeds the input to a session a few bytes at a time, the way an
LLM streams tokens, and renders each frame. On a terminal the frame is
redrawn in place; otherwise frames are printed one after another.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			reg, err := loadRegistry(cfg.Registry)
			if err != nil {
				return err
			}
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return replay(ctx, cmd.OutOrStdout(), text, reg, cfg)
		},
	}
	cmd.Flags().String("registry", "", "Component catalog (YAML)")
	cmd.Flags().Int("chunk", 8, "Bytes per simulated token")
	cmd.Flags().Duration("delay", 30*time.Millisecond, "Pause between tokens")
	cmd.Flags().Int("width", 0, "Wrap width (0: terminal width, or no wrapping off a terminal)")
	cmd.Flags().String("color", "auto", "Color output: auto, always or never")
	cmd.Flags().String("style", "monokai", "Syntax highlighting style for code blocks")
	cmd.Flags().Bool("show-incomplete", false, "Show unterminated component invocations as raw text")
	return cmd
}

// terminalFd returns the descriptor of w when it is a terminal.
func terminalFd(w io.Writer) (int, bool) {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0, false
	}
	return int(f.Fd()), true
}

func newPainter(w io.Writer, cfg cliConfig, tty bool, fd int) *painter {
	var opts []termenv.OutputOption
	switch cfg.Color {
	case "never":
		opts = append(opts, termenv.WithProfile(termenv.Ascii))
	case "always":
		opts = append(opts, termenv.WithProfile(termenv.ANSI256))
	default:
		if !tty {
			opts = append(opts, termenv.WithProfile(termenv.Ascii))
		}
	}
	width := cfg.Width
	if width == 0 && tty {
		if cols, _, err := term.GetSize(fd); err == nil {
			width = cols
		}
	}
	return &painter{out: termenv.NewOutput(w, opts...), style: cfg.Style, width: width}
}

func replay(ctx context.Context, w io.Writer, text string, reg mdstream.Registry, cfg cliConfig) error {
	fd, tty := terminalFd(w)
	p := newPainter(w, cfg, tty, fd)

	engine := *mdstream.DefaultConfig()
	engine.HideIncompleteComponents = !cfg.ShowIncomplete
	s := mdstream.NewSession(
		mdstream.WithConfig(&engine),
		mdstream.WithRegistry(reg),
		mdstream.WithDocument(true),
		mdstream.WithErrorHandler(func(e mdstream.ComponentError) {
			mdstream.Logger.Warnf("%v", e)
		}),
	)

	if tty {
		p.out.HideCursor()
		defer p.out.ShowCursor()
	}
	n := 0
	return s.Replay(ctx, text, cfg.Chunk, func(f mdstream.Frame) error {
		n++
		if tty {
			p.out.ClearScreen()
			if _, err := fmt.Fprintln(w, p.paint(f)); err != nil {
				return err
			}
		} else if _, err := fmt.Fprintf(w, "--- frame %d ---\n%s\n", n, p.paint(f)); err != nil {
			return err
		}
		if cfg.Delay <= 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(cfg.Delay):
			return nil
		}
	})
}
