// Command optiq runs the iterative-analysis engine against a declarative
// problem description.
//
// Usage:
//
//	optiq run -i problem.yaml [-r restart.in] [-w restart.out]
//	          [-s stop-after-n-evals] [-o output]
//
// Exit codes: 0 success, 1 input error, 2 runtime error, 3 evaluation
// budget exceeded, 4 aborted.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Exit codes.
const (
	exitOK = iota
	exitInput
	exitRuntime
	exitBudget
	exitAborted
)

func main() {
	root := &cobra.Command{
		Use:           "optiq",
		Short:         "iterative systems analysis engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "optiq:", err)
		os.Exit(exitInput)
	}
}

// bindEnv wires the engine's environment surface: RANDOM_SEED overrides the
// configured seed when nonzero.
func bindEnv() *viper.Viper {
	v := viper.New()
	v.SetDefault("random_seed", int64(0))
	_ = v.BindEnv("random_seed", "RANDOM_SEED")
	return v
}
