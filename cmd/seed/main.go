// Command seed loads a question bank into MongoDB.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"adaptivequiz/internal/config"
	"adaptivequiz/internal/logging"
	"adaptivequiz/internal/model"
	"adaptivequiz/internal/questionbank"
	"adaptivequiz/internal/repository"
	"adaptivequiz/internal/service"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

var (
	bankFile string
	dryRun   bool
	timeout  time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "seed",
	Short: "Replace the question catalog with a question bank",
	Long: `Validate a YAML question bank and write it to the questions collection,
replacing the current catalog. Without --file the built-in bank is used.`,
	SilenceUsage: true,
	RunE:         runSeed,
}

func init() {
	rootCmd.Flags().StringVarP(&bankFile, "file", "f", "", "YAML question bank (default: built-in bank)")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate and print the bank without writing")
	rootCmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Operation timeout")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogDevelopment)
	if err != nil {
		return err
	}
	defer logger.Sync()

	questions, err := loadBank()
	if err != nil {
		return err
	}
	logger.Info("loaded question bank", zap.Int("questions", len(questions)), zap.String("source", bankSource()))

	if dryRun {
		for _, q := range questions {
			fmt.Fprintf(cmd.OutOrStdout(), "%2d. [%s] %s (%s, weight %.1f)\n", q.Position+1, q.Trait, q.Text, q.ID, q.Weight)
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	defer client.Disconnect(context.Background())

	db := client.Database(cfg.MongoDatabase)
	questionSvc := service.NewQuestionService(repository.NewQuestionRepo(db))
	if err := questionSvc.Seed(ctx, questions); err != nil {
		return fmt.Errorf("failed to seed questions: %w", err)
	}

	logger.Info("seeded question catalog",
		zap.String("database", cfg.MongoDatabase),
		zap.Int("questions", len(questions)))
	return nil
}

func loadBank() ([]model.Question, error) {
	if bankFile == "" {
		return questionbank.Default()
	}
	return questionbank.LoadFile(bankFile)
}

func bankSource() string {
	if bankFile == "" {
		return "built-in"
	}
	return bankFile
}
