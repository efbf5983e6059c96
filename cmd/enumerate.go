package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cwbudde/equimin/internal/contingency"
	"github.com/cwbudde/equimin/internal/merit"
)

var (
	enumCounts string
	enumFreeze string
	enumLimit  int
)

var enumerateCmd = &cobra.Command{
	Use:   "enumerate",
	Short: "List the pure strategy profiles of a game",
	Long: `Lists every pure strategy profile (contingency) of a game with the given
strategy counts per agent, in odometer order with the last agent varying
fastest. Agents pinned with --freeze keep their strategy.`,
	Example: `  equimin enumerate --counts 2,3,2 --freeze 2:2`,
	RunE:    runEnumerate,
}

var objectivesCmd = &cobra.Command{
	Use:   "objectives",
	Short: "List the registered objectives",
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range merit.Names() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
	},
}

func init() {
	enumerateCmd.Flags().StringVar(&enumCounts, "counts", "", "Strategy counts per agent, e.g. 2,3,2 (required)")
	enumerateCmd.Flags().StringVar(&enumFreeze, "freeze", "", "Pinned agents as agent:index pairs, e.g. 2:2,3:1")
	enumerateCmd.Flags().IntVar(&enumLimit, "limit", 0, "Stop after this many profiles (0 for all)")
	enumerateCmd.MarkFlagRequired("counts")

	rootCmd.AddCommand(enumerateCmd)
	rootCmd.AddCommand(objectivesCmd)
}

func runEnumerate(cmd *cobra.Command, args []string) error {
	counts, err := contingency.ParseCounts(enumCounts)
	if err != nil {
		return err
	}
	pins, err := contingency.ParsePins(enumFreeze)
	if err != nil {
		return err
	}
	e, err := contingency.New(counts)
	if err != nil {
		return err
	}
	if err := e.FreezeAll(pins); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printed := 0
	e.Walk(func(c []int) bool {
		fmt.Fprintln(out, contingency.Format(c))
		printed++
		return enumLimit == 0 || printed < enumLimit
	})
	return nil
}
