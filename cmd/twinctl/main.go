// Command twinctl is a command-line client for a TwinForge server.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const defaultServer = "http://localhost:8000"

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// isTTY reports whether stdout is a terminal.
func isTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func main() {
	if !isTTY() {
		color.NoColor = true
	}
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, red("error: ")+err.Error())
		os.Exit(1)
	}
}

// cli holds the state shared by every subcommand.
type cli struct {
	server  string
	timeout time.Duration
	asJSON  bool
}

func (c *cli) client() *Client {
	return NewClient(c.server, c.timeout)
}

// emit writes v as indented JSON when --json is set and calls pretty
// otherwise.
func (c *cli) emit(w io.Writer, v any, pretty func()) error {
	if !c.asJSON {
		pretty()
		return nil
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "twinctl",
		Short:         "Command-line client for the TwinForge API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	server := os.Getenv("TWINFORGE_URL")
	if server == "" {
		server = defaultServer
	}
	root.PersistentFlags().StringVarP(&c.server, "server", "s", server, "server base URL (env TWINFORGE_URL)")
	root.PersistentFlags().DurationVar(&c.timeout, "timeout", 90*time.Second, "HTTP timeout per call")
	root.PersistentFlags().BoolVar(&c.asJSON, "json", false, "print raw JSON")

	root.AddCommand(
		newHealthCmd(c),
		newSubmitCmd(c),
		newJobCmd(c),
		newResponsesCmd(c),
		newStatusCmd(c),
	)
	return root
}
