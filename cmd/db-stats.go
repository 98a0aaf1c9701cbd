package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/jon4hz/eduquest/internal/database"
	"github.com/jon4hz/eduquest/internal/engine"
	"github.com/spf13/cobra"
)

var dbStatsCmd = &cobra.Command{
	Use:   "db-stats",
	Short: "Show database statistics",
	Long:  `Display counts of users, topics, sessions and history events.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db := loadConfigAndDB()
		defer db.Close() //nolint: errcheck

		e, err := engine.New(cmd.Context(), cfg, db)
		if err != nil {
			return fmt.Errorf("failed to create engine: %w", err)
		}
		defer e.Close() //nolint: errcheck

		stats, err := e.Stats(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get database stats: %w", err)
		}

		fmt.Println("Database Statistics:")
		fmt.Printf("Users: %s\n", humanize.Comma(stats.Users))
		fmt.Printf("Topics (draft): %s\n", humanize.Comma(stats.Topics[database.TopicStatusDraft]))
		fmt.Printf("Topics (pending review): %s\n", humanize.Comma(stats.Topics[database.TopicStatusPendingReview]))
		fmt.Printf("Topics (approved): %s\n", humanize.Comma(stats.Topics[database.TopicStatusApproved]))
		fmt.Printf("Sessions: %s\n", humanize.Comma(stats.Sessions))
		fmt.Printf("Quiz Questions: %s\n", humanize.Comma(stats.QuizQuestions))
		fmt.Printf("Sessions of deleted users: %s\n", humanize.Comma(stats.OrphanSessions))
		fmt.Printf("History Events: %s\n", humanize.Comma(stats.HistoryEvents))

		events, err := e.History(cmd.Context(), 5)
		if err == nil && len(events) > 0 {
			fmt.Println("\nRecent Events:")
			for _, ev := range events {
				fmt.Printf("  %s  %-24s %s (%s)\n",
					ev.CreatedAt.Format("2006-01-02 15:04:05"), ev.EventType, ev.Subject, humanize.Time(ev.CreatedAt))
			}
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbStatsCmd)
}
