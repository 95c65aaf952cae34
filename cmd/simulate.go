package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/egitsel/aprag/internal/ebars"
	"github.com/egitsel/aprag/internal/log"
	"github.com/egitsel/aprag/internal/state"
)

var simulateSequence string

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Replay a feedback sequence against an in-memory comprehension engine",
	Long: `Replays a comma-separated feedback sequence (category names or the
emoji 👍 😊 😐 ❌) through the scoring engine and prints the score
trajectory. Useful for tuning deltas and level thresholds without a
database.

Example:
  aprag simulate --sequence "good,good,confused,negative,negative,negative"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSimulate(simulateSequence)
	},
}

func init() {
	simulateCmd.Flags().StringVar(&simulateSequence, "sequence",
		"good,excellent,good,confused,negative,negative,negative,good",
		"comma-separated feedback categories or emoji")
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(sequence string) error {
	logger := log.NewNop()
	calc := ebars.NewCalculator(state.NewMemoryStore(), logger)
	adapter := ebars.NewPromptAdapter(calc, logger)
	handler := ebars.NewHandler(calc, adapter, state.NewMemoryRecorder(), logger)

	key := ebars.Key{StudentID: "sim", SessionID: "sim"}
	ctx := context.Background()

	fmt.Printf("%-4s %-10s %8s %8s %8s  %-16s %s\n",
		"#", "feedback", "prev", "delta", "score", "level", "adjustment")

	for i, raw := range strings.Split(sequence, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		category, ok := ebars.ParseCategory(raw)
		if !ok {
			return fmt.Errorf("unknown feedback %q", raw)
		}

		result, err := handler.ProcessFeedback(ctx, key, category, "")
		if err != nil {
			return fmt.Errorf("processing feedback: %w", err)
		}

		u := result.Update
		marker := ""
		if u.LevelChanged {
			marker = fmt.Sprintf("  (%s -> %s)", u.PreviousLevel, u.NewLevel)
		}
		fmt.Printf("%-4d %-10s %8.1f %+8.1f %8.1f  %-16s %s%s\n",
			i+1, string(category), u.PreviousScore, u.Delta, u.NewScore,
			string(u.NewLevel), string(u.AdjustmentType), marker)
	}

	return nil
}
