package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pion/logging"
	"github.com/spf13/cobra"

	"github.com/riverfjs/mdstream"
)

func newRootCmd() *cobra.Command {
	var debug bool
	root := &cobra.Command{
		Use:   "mdstream",
		Short: "Render markdown that is still being streamed",
		Long: `mdstream closes the markdown constructs a partial document leaves open
and extracts inline component invocations such as {{c:"Badge",p:{...}}}.

Examples:
  mdstream fix partial.md
  mdstream extract --registry components.yaml answer.md
  mdstream replay --chunk 4 --delay 20ms answer.md

Settings are read from flags, MDSTREAM_* environment variables and an
optional mdstream.yaml in the working directory.`,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
		SilenceUsage:      true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if debug {
				mdstream.SetLogger(logging.NewDefaultLeveledLoggerForScope("mdstream", logging.LogLevelDebug, cmd.ErrOrStderr()))
			}
		},
	}
	root.PersistentFlags().BoolVar(&debug, "debug", false, "Log tracker and extractor decisions to stderr")
	root.AddCommand(newFixCmd(), newExtractCmd(), newReplayCmd())
	return root
}

// readInput reads the named file, or stdin when no file or "-" is given.
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func loadRegistry(path string) (mdstream.Registry, error) {
	if path == "" {
		return nil, nil
	}
	reg, err := mdstream.LoadRegistry(path)
	if err != nil {
		return nil, err
	}
	return reg, nil
}
