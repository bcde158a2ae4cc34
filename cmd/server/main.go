/*
main.go - Application entry point

PURPOSE:

	Command-line entry point of the Erasmus+ Writer cost and workload engine.

COMMANDS:

	serve   Start the HTTP API and the workload monitor
	seed    Import the standard cost grid, optionally load a demo scenario

CONFIGURATION:

	--config path/to/engine.yaml (optional). Environment overrides:
	ERASMUS_DB_PATH, ERASMUS_PORT, ERASMUS_HOST, ERASMUS_ENV,
	ERASMUS_STANDARD_ROLE.

EXAMPLES:

	# Run with an in-memory database and demo data
	ERASMUS_DB_PATH=":memory:" ./server serve

	# Import the default grid into a file database
	./server seed --config configs/engine.yaml

SEE ALSO:
  - serve.go: Server startup and graceful shutdown
  - config/config.go: Configuration file format
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "server",
	Short: "Erasmus+ Writer cost and workload engine",
	Long:  "Resolves daily personnel rates for project members, computes monthly workload against declared capacity, and reports project cost by month.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: built-in defaults)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
