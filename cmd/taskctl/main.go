// taskctl is a command-line front end for the task manager API.
//
//	taskctl [--server URL] <command> [flags] [args]
//
// Commands: list, stats, add, toggle, edit, rm, reorder.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
)

const usage = `usage: taskctl [--server URL] <command> [flags] [args]

commands:
  list     [--search S] [--category C] [--priority P] [--tab T] [--sort K]
  stats
  add      <title> [--description D] [--priority P] [--category C] [--due DATE]
  toggle   <id>
  edit     <id> [--title T] [--description D] [--priority P] [--category C] [--due DATE | --clear-due]
  rm       <id>
  reorder  <id> <position> | <id> <id> ...   (position is 1-based)
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	defaultServer := os.Getenv("TASKS_API_URL")
	if defaultServer == "" {
		defaultServer = "http://localhost:5000"
	}

	var server string
	var verbose bool
	flagSet := pflag.NewFlagSet("taskctl", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.SetInterspersed(false)
	flagSet.StringVar(&server, "server", defaultServer, "task manager base URL (env TASKS_API_URL)")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "log client failures to stderr")
	flagSet.Usage = func() { fmt.Fprint(stderr, usage) }

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	rest := flagSet.Args()
	if len(rest) == 0 {
		fmt.Fprint(stderr, usage)
		return fmt.Errorf("missing command")
	}

	cli := newCLI(server, verbose, stdout, stderr)
	command, cmdArgs := rest[0], rest[1:]
	switch command {
	case "list", "ls":
		return cli.list(ctx, cmdArgs)
	case "stats":
		return cli.stats(ctx, cmdArgs)
	case "add":
		return cli.add(ctx, cmdArgs)
	case "toggle", "done":
		return cli.toggle(ctx, cmdArgs)
	case "edit":
		return cli.edit(ctx, cmdArgs)
	case "rm", "delete":
		return cli.remove(ctx, cmdArgs)
	case "reorder":
		return cli.reorder(ctx, cmdArgs)
	case "help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		fmt.Fprint(stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}
