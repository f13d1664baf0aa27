// Command reactor benchmarks and inspects the reactive runtime.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	rerrors "github.com/vango-dev/reactor/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┬─┐┌─┐┌─┐┌─┐┌┬┐┌─┐┬─┐
  ├┬┘├┤ ├─┤│   │ │ │├┬┘
  ┴└─└─┘┴ ┴└─┘ ┴ └─┘┴└─
`

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		format, _ := rootCmd.PersistentFlags().GetString("error-format")
		printError(os.Stderr, err, format)
		os.Exit(1)
	}
}

// printError renders err in the requested format: text (default), compact
// or json.
func printError(w io.Writer, err error, format string) {
	switch format {
	case "compact":
		fmt.Fprintln(w, rerrors.FromError(err).FormatCompact())
	case "json":
		fmt.Fprintln(w, rerrors.FromError(err).FormatJSON())
	default:
		rerrors.Fprint(w, err)
	}
}

func newRootCmd() *cobra.Command {
	var configPath, errorFormat string

	rootCmd := &cobra.Command{
		Use:   "reactor",
		Short: "Benchmark and inspect the reactive runtime",
		Long: `reactor drives the fine-grained reactive runtime from the command line.

  • bench    run graph workloads and report propagation cost
  • serve    run a workload behind the live graph inspector
  • explain  describe an error code`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"Config file or directory (default: reactor.yaml in the working directory)")
	rootCmd.PersistentFlags().StringVar(&errorFormat, "error-format", "text",
		"How failures are printed: text, compact or json")

	rootCmd.AddCommand(
		benchCmd(&configPath),
		serveCmd(&configPath),
		explainCmd(),
		versionCmd(),
	)
	return rootCmd
}

// printBanner prints the ASCII art banner.
func printBanner(w io.Writer) {
	fmt.Fprint(w, banner)
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
