// Command conann is the experiment harness for the conann calibration
// core: it loads a dataset, trains a reference flat IVF index,
// calibrates a miss-rate threshold, and reports test-split error and
// probe efficiency to the log file naming convention the original
// FAISS-based harness used.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "conann",
	Short: "Run conformal calibration experiments against a reference IVF index",
}

func main() {
	rootCmd.AddCommand(errorCmd, variableKCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
