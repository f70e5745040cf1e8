package main

import (
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize a recorded metrics snapshot",
	Long: `Load the metrics snapshot from metrics_dir and print the learning
summary plus per-strategy, per-query-type, and per-pattern-type views.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, _, store, err := setup(true)
		if err != nil {
			return err
		}

		bold := color.New(color.Bold).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()

		sum := store.Aggregate()
		fmt.Println(bold("Learning summary"))
		fmt.Printf("  Cycles stored:          %d\n", sum.TotalCycles)
		fmt.Printf("  Queries analyzed:       %d\n", sum.TotalAnalyzedQueries)
		fmt.Printf("  Patterns identified:    %d\n", sum.TotalPatternsIdentified)
		fmt.Printf("  Parameters adjusted:    %d\n", sum.TotalParametersAdjusted)
		fmt.Printf("  Average cycle time:     %.3fs\n", sum.AverageCycleTime)
		fmt.Printf("  Optimizations recorded: %d\n", sum.TotalOptimizations)

		byStrategy := store.EffectivenessByStrategy()
		if len(byStrategy) > 0 {
			fmt.Printf("\n%s\n", bold("Effectiveness by strategy"))
			for _, name := range sortedNames(byStrategy) {
				s := byStrategy[name]
				fmt.Printf("  %-24s score %.3f  latency %.1f  (%d samples)\n",
					cyan(name), s.AverageScore, s.AverageLatency, s.Count)
			}
		}

		byType := store.EffectivenessByQueryType()
		if len(byType) > 0 {
			fmt.Printf("\n%s\n", bold("Effectiveness by query type"))
			for _, name := range sortedNames(byType) {
				s := byType[name]
				fmt.Printf("  %-24s score %.3f  latency %.1f  (%d samples)\n",
					cyan(name), s.AverageScore, s.AverageLatency, s.Count)
			}
		}

		patterns := store.PatternsByType()
		if len(patterns) > 0 {
			fmt.Printf("\n%s\n", bold("Query patterns by type"))
			for _, name := range sortedNames(patterns) {
				p := patterns[name]
				fmt.Printf("  %-24s %d records, %d matching queries, avg perf %.3f\n",
					cyan(name), p.Count, p.MatchingQueries, p.AveragePerformance)
			}
		}

		return nil
	},
}

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	rootCmd.AddCommand(reportCmd)
}
