package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"diagnostic-lead-service/internal/catalog"
	"diagnostic-lead-service/internal/config"
	"diagnostic-lead-service/internal/domain"
	pgstore "diagnostic-lead-service/internal/infra/postgres"
	redisstore "diagnostic-lead-service/internal/infra/redis"
	"diagnostic-lead-service/internal/logging"
)

// NewQuizzesCmd groups the catalog maintenance commands.
func NewQuizzesCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quizzes",
		Short: "Inspect and publish quiz variants",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Validate the embedded catalog and print its variants",
		RunE: func(cmd *cobra.Command, args []string) error {
			defs, err := catalog.Load()
			if err != nil {
				return err
			}
			return printQuizzes(cmd.OutOrStdout(), defs)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "seed",
		Short: "Upsert the embedded catalog into Postgres and drop cached copies",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return fmt.Errorf("postgres url not configured")
			}
			logger := logging.New(serviceName, cfg.Log.Level)
			if err := runMigrationsWithConfig(ctx, cfg, logger); err != nil {
				return err
			}

			defs, err := catalog.Load()
			if err != nil {
				return err
			}
			pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
			if err != nil {
				return err
			}
			defer pool.Close()

			var cache *redisstore.QuizRepository
			if cfg.Redis.Addr != "" {
				client := redis.NewClient(&redis.Options{
					Addr:     cfg.Redis.Addr,
					Password: cfg.Redis.Password,
					DB:       cfg.Redis.DB,
				})
				defer client.Close()
				cache = redisstore.NewQuizRepository(client, nil, 0)
			}

			loader := pgstore.NewQuizLoader(pool)
			for _, id := range catalog.IDs(defs) {
				if err := loader.SaveQuiz(ctx, defs[id]); err != nil {
					return err
				}
				if cache != nil {
					if err := cache.Invalidate(ctx, id); err != nil {
						logger.WithError(err).WithField("quiz", id).Warn("cache invalidation failed")
					}
				}
				logger.WithField("quiz", id).Info("quiz seeded")
			}
			return nil
		},
	})
	return cmd
}

func printQuizzes(out io.Writer, defs map[string]domain.QuizDefinition) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tQUESTIONS\tMAX\tLEVELS")
	for _, id := range catalog.IDs(defs) {
		s := defs[id].Summary()
		levels := ""
		for i, r := range s.Levels {
			if i > 0 {
				levels += ", "
			}
			levels += fmt.Sprintf("%s [%s-%s]", r.Level.ID, r.Min, r.Max)
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", id, s.QuestionCount, s.MaxScore, levels)
	}
	return w.Flush()
}
