// Command quiz takes the personality test in a terminal, against a server or
// fully offline.
package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	serverURL    string
	offline      bool
	respondentID string
	bankFile     string
	verbose      bool
	timings      = defaultTimings()
)

var rootCmd = &cobra.Command{
	Use:   "quiz",
	Short: "Take the adaptive personality test",
	Long: `Answer the questionnaire one question at a time. After the sixth answer the
remaining questions are personalized; type "s" while they load to skip.

By default the test runs against a quiz server. With --offline the selection
engine runs in-process over the built-in question bank.`,
	SilenceUsage: true,
	RunE:         runQuiz,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show your most recent results",
	RunE:  runHistory,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "http://localhost:8080", "Quiz server URL")
	rootCmd.PersistentFlags().StringVarP(&respondentID, "respondent", "r", "", "Respondent id (default: a new one)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.Flags().BoolVar(&offline, "offline", false, "Run the selection engine in-process")
	rootCmd.Flags().StringVarP(&bankFile, "file", "f", "", "YAML question bank for --offline (default: built-in bank)")
	rootCmd.Flags().DurationVar(&timings.AutoAdvanceAfter, "auto-advance", timings.AutoAdvanceAfter, "Continue without personalization after this long")
	rootCmd.Flags().DurationVar(&timings.AbortAfter, "abort-after", timings.AbortAfter, "Cancel the personalization request after this long")
	rootCmd.Flags().DurationVar(&timings.ConfirmDelay, "confirm-delay", timings.ConfirmDelay, "Pause before the first personalized question")

	rootCmd.AddCommand(historyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

type timingFlags struct {
	AutoAdvanceAfter time.Duration
	AbortAfter       time.Duration
	ConfirmDelay     time.Duration
}
