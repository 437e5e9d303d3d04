package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"sophiatech.io/serialterm/syncutil"
)

const usage = `usage: serialterm [flags] <command> [args]

commands:
  ports                          list serial ports
  term                           interactive terminal (default)
  get MODULE KEY                 read a device parameter
  set MODULE KEY [VALUE]         write a device parameter, bare without VALUE
  schema                         show the parameter schema
  getall CARD MODULE             read every readable parameter of a module
  setall CARD MODULE KEY=VALUE…  write the writable parameters of a module
  script FILE                    run an automation script
  rules [toggle N]               list trigger rules, or toggle rule N
  sequences                      list send sequences

flags:
`

func newFlagSet(out io.Writer) *flag.FlagSet {
	fSet := flag.NewFlagSet("serialterm", flag.ContinueOnError)
	fSet.SetOutput(out)
	fSet.Usage = func() {
		fmt.Fprint(out, usage)
		fSet.PrintDefaults()
	}

	fSet.String("config", os.Getenv("SERIALTERM_CONFIG"), "TOML configuration file")
	fSet.String("port", "", "Serial port (e.g. /dev/ttyUSB0, COM3)")
	fSet.Int("baud", 115200, "Baud rate")
	fSet.Int("data-bits", 8, "Data bits (5-8)")
	fSet.String("parity", "None", "Parity (None, Even, Odd, Mark, Space)")
	fSet.String("stop-bits", "1", "Stop bits (1, 1.5, 2)")
	fSet.String("log-level", "warn", "Log level (trace, debug, info, warn, error)")
	fSet.String("log-file", "", "Also write logs to this rotated file")
	fSet.String("rules", "", "Trigger rule set file")
	fSet.String("sequences", "", "Send sequence set file")
	fSet.String("schema", "", "Parameter schema file")
	fSet.String("display", "ASCII", "Display encoding (ASCII, HEX, Decimal)")
	fSet.Bool("no-color", false, "Disable colors and strip device ANSI codes")
	fSet.Bool("no-timestamps", false, "Hide timestamps")
	fSet.Bool("decimal-triggers", false, "Match Decimal triggers as byte substrings")
	return fSet
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "serialterm:", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fSet := newFlagSet(stderr)
	if err := fSet.Parse(args); err != nil {
		return err
	}

	fs := afero.NewOsFs()
	config, err := LoadConfig(
		WithDefaults(),
		WithFile(fs, fSet.Lookup("config").Value.String()),
		WithEnv(),
		WithFlags(fSet),
	)
	if err != nil {
		return err
	}

	closer, err := setupLogging(config, stderr)
	if err != nil {
		return err
	}
	defer closer.Close()

	a := &app{config: config, fs: fs, stdin: stdin, stdout: stdout}

	cmd, rest := "term", []string(nil)
	if fSet.NArg() > 0 {
		cmd, rest = fSet.Arg(0), fSet.Args()[1:]
	}
	log.Debug().
		Str("command", cmd).
		Strs("args", rest).
		Bool("deadlock_detection", syncutil.Detecting()).
		Msg("starting")

	switch cmd {
	case "ports":
		return a.ports()
	case "term":
		return a.term(ctx)
	case "get":
		return a.get(ctx, rest)
	case "set":
		return a.set(ctx, rest)
	case "schema":
		return a.schema()
	case "getall":
		return a.getAll(ctx, rest)
	case "setall":
		return a.setAll(ctx, rest)
	case "script":
		return a.script(ctx, rest)
	case "rules":
		return a.rules(rest)
	case "sequences":
		return a.sequences()
	}
	fSet.Usage()
	return fmt.Errorf("unknown command %q", cmd)
}
