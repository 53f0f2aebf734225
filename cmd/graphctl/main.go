// Command graphctl is the runtime facade's test harness and platform
// adapter named in spec.md §2's component table: it boots the demo resource
// graph, runs a task through it, dumps the store, and disposes, the way the
// teacher's examples/*/main.go files exercise a scope by hand but wrapped in
// a proper cobra CLI instead of a bare main().
package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	apprun "github.com/graphkernel/apprun"
	"github.com/graphkernel/apprun/examples/demo"
	"github.com/graphkernel/apprun/extensions"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "graphctl",
		Short: "Inspect and exercise an apprun dependency graph",
	}
	root.AddCommand(newRunCmd(), newInspectCmd(), newTreeCmd(), newStatsCmd())
	return root
}

func newRunCmd() *cobra.Command {
	var amount int
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Boot the demo graph, run its double task, and dispose",
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := demo.Run(cmd.Context(), amount)
			if err != nil {
				return err
			}
			fmt.Println(summary)
			return nil
		},
	}
	cmd.Flags().IntVar(&amount, "amount", 1, "amount added to the counter before doubling")
	return cmd
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Boot the demo graph and list every registered node with its metadata",
		RunE: func(cmd *cobra.Command, args []string) error {
			runtime, err := apprun.Run(cmd.Context(), demo.Root)
			if err != nil {
				return err
			}
			defer runtime.Dispose(cmd.Context())

			lines := runtime.Store().Inspect()
			sort.Strings(lines)
			for _, line := range lines {
				fmt.Println(line)
			}
			return nil
		},
	}
}

func newTreeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tree [node-id...]",
		Short: "Render the ownership chain of one or more nodes as a tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			runtime, err := apprun.Run(cmd.Context(), demo.Root)
			if err != nil {
				return err
			}
			defer runtime.Dispose(cmd.Context())

			targets := args
			if len(targets) == 0 {
				targets = []string{string(demo.Counter.ID()), string(demo.Double.ID())}
			}
			renderer := extensions.NewPolicyViolationTree(runtime.Store())
			fmt.Print(renderer.RenderForest(targets))
			return nil
		},
	}
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Boot the demo graph, run its task once, and print pool hit/miss counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			runtime, err := apprun.Run(ctx, demo.Root)
			if err != nil {
				return err
			}
			defer runtime.Dispose(ctx)

			if _, err := apprun.RunTask(ctx, runtime, demo.Double, demo.DoubleInput{Amount: 2}); err != nil {
				return err
			}

			eh, em, ih, im := runtime.PoolMetrics()
			fmt.Printf("emission pool: %d hits, %d misses\n", eh, em)
			fmt.Printf("invocation pool: %d hits, %d misses\n", ih, im)
			return nil
		},
	}
}
