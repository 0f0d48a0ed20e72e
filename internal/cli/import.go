package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"quizbot/internal/config"
	"quizbot/internal/infra/postgres"
	"quizbot/internal/logging"
)

// NewImportCmd moves the flat-file questions.json / scores.json data into
// Postgres, so a file-backed deployment can be promoted to a database-backed
// one without losing anyone's score.
func NewImportCmd(configPath *string) *cobra.Command {
	var questionsPath, scoresPath string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import questions.json and scores.json into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}
			logger := logging.New(cfg.Log.Level, cfg.Log.Pretty)

			if questionsPath == "" {
				questionsPath = cfg.Questions.File
			}
			if scoresPath == "" {
				scoresPath = cfg.Scores.File
			}

			db := openBun(cfg.Postgres.URL)
			defer db.Close()

			if err := migrateDB(ctx, db); err != nil {
				return err
			}

			if _, err := os.Stat(questionsPath); err == nil {
				n, err := postgres.ImportQuestions(ctx, db, questionsPath)
				if err != nil {
					return fmt.Errorf("import questions: %w", err)
				}
				logger.Info().Int("inserted", n).Str("file", questionsPath).Msg("questions imported")
			} else {
				logger.Warn().Str("file", questionsPath).Msg("questions file not found, skipping")
			}

			if _, err := os.Stat(scoresPath); err == nil {
				n, err := postgres.ImportScores(ctx, db, scoresPath)
				if err != nil {
					return fmt.Errorf("import scores: %w", err)
				}
				logger.Info().Int("written", n).Str("file", scoresPath).Msg("scores imported")
			} else {
				logger.Warn().Str("file", scoresPath).Msg("scores file not found, skipping")
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&questionsPath, "questions", "", "path to questions.json (defaults to config)")
	cmd.Flags().StringVar(&scoresPath, "scores", "", "path to scores.json (defaults to config)")
	return cmd
}
