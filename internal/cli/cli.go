// Package cli implements the command-line interface for log-parser.
package cli

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Justice4Joffrey/log-parser/pkg/source"
)

// Run executes the CLI with the given arguments.
func Run(args []string) error {
	return run(context.Background(), args, os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	a := &app{
		v:      viper.New(),
		stdout: stdout,
		stderr: stderr,
	}
	if args == nil {
		// cobra falls back to os.Args when given nil.
		args = []string{}
	}
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

// app holds the state shared by one invocation's commands.
type app struct {
	v      *viper.Viper
	stdout io.Writer
	stderr io.Writer

	opener   source.Opener
	settings settings
}

const usage = "usage: log-parser [flags] <command> FILE\ncommands: sync, async, generate"

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "log-parser",
		Short: "Summarize log records by their type field",
		Long: `Read a file of delimiter-separated JSON records and report the total
bytes per "type" value. The sync command reads records one at a time and
reports the line number of every record it could not parse; the async
command splits the input into batches that are parsed in parallel.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.configure(cmd)
		},
		RunE: func(*cobra.Command, []string) error {
			return errors.New(usage)
		},
	}

	pf := root.PersistentFlags()
	pf.String(keyConfig, "", "config file (default ./log-parser.yaml)")
	pf.Bool(keyJSON, false, "print the summary as JSON")
	pf.String(keyFormat, formatText, "output format: text, json or parquet")
	pf.String(keyOut, "", "write the summary to this file instead of stdout (required for parquet)")
	pf.StringP(keyDelimiter, "d", `\n`, `record delimiter: a character, an escape (\n \t \r \0) or a byte value`)
	pf.String(keyParser, "", "type extraction strategy (default window)")
	pf.String(keyMaxRecordSize, "64MiB", "maximum size of a single record, 0 for unlimited")
	pf.String(keyLogLevel, "warn", "log level: trace, debug, info, warn, error")
	pf.Bool(keyHumanLogs, false, "human-readable console logs")

	root.AddCommand(a.syncCmd(), a.asyncCmd(), a.generateCmd())
	return root
}
