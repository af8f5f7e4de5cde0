package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/bidan/registry/internal/config"
	"github.com/bidan/registry/internal/domain/normalize"
	"github.com/bidan/registry/internal/platform/db"
	"github.com/bidan/registry/internal/platform/locale"
	"github.com/bidan/registry/internal/platform/reminder"
	"github.com/bidan/registry/internal/platform/sandbox"
	"github.com/bidan/registry/migrations"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run postgres store migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			target, _ := cmd.Flags().GetInt("to")
			return withMigrator(cmd.Context(), func(ctx context.Context, m *db.Migrator) error {
				var (
					count int
					err   error
				)
				if target > 0 {
					count, err = m.UpTo(ctx, target)
				} else {
					count, err = m.Up(ctx)
				}
				if err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", count)
				return nil
			})
		},
	}
	upCmd.Flags().Int("to", 0, "Stop after this migration version (0 applies all)")
	cmd.AddCommand(upCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withMigrator(cmd.Context(), func(ctx context.Context, m *db.Migrator) error {
				statuses, err := m.Status(ctx)
				if err != nil {
					return fmt.Errorf("failed to get migration status: %w", err)
				}
				printMigrationStatus(cmd.OutOrStdout(), statuses)
				return nil
			})
		},
	})

	return cmd
}

func withMigrator(ctx context.Context, fn func(context.Context, *db.Migrator) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.Store != config.StorePostgres {
		return fmt.Errorf("migrations apply to STORE=%s only (current STORE=%q)", config.StorePostgres, cfg.Store)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	pool, err := db.NewPool(ctx, db.PoolConfig{URL: cfg.DatabaseURL, MaxConns: cfg.DBMaxConns, MinConns: cfg.DBMinConns})
	if err != nil {
		return err
	}
	defer pool.Close()

	return fn(ctx, db.NewMigrator(pool, migrations.FS))
}

func printMigrationStatus(w io.Writer, statuses []db.MigrationStatus) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tNAME\tSTATUS\tAPPLIED AT")
	for _, s := range statuses {
		status, appliedAt := "pending", ""
		if s.Applied {
			status = "applied"
			if s.Modified {
				status = "applied (modified)"
			}
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", s.Version, s.Name, status, appliedAt)
	}
	tw.Flush()
}

func normalizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "normalize",
		Short: "Normalise visit dates and ages from the command line",
	}
	cmd.PersistentFlags().String("lang", "id", "Language for display text (id, en)")
	cmd.PersistentFlags().Bool("json", false, "Print one JSON object per input")

	cmd.AddCommand(&cobra.Command{
		Use:   "date <raw>...",
		Short: "Parse dates and print the input-control and display forms",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, asJSON, err := normalizeFlags(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				for _, raw := range args {
					if err := enc.Encode(normalize.Date(raw, loc)); err != nil {
						return err
					}
				}
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			for _, raw := range args {
				r := normalize.Date(raw, loc)
				input := r.Input
				if !r.Valid {
					input = "-"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", raw, input, r.Display)
			}
			return tw.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "age <raw>...",
		Short: "Parse ages and print the formatted age and category",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, asJSON, err := normalizeFlags(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				for _, raw := range args {
					if err := enc.Encode(normalize.Age(raw, loc)); err != nil {
						return err
					}
				}
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			for _, raw := range args {
				r := normalize.Age(raw, loc)
				fmt.Fprintf(tw, "%s\t%s\t%s\n", raw, r.Display, r.CategoryLabel)
			}
			return tw.Flush()
		},
	})

	return cmd
}

func normalizeFlags(cmd *cobra.Command) (*locale.Localizer, bool, error) {
	lang, _ := cmd.Flags().GetString("lang")
	asJSON, _ := cmd.Flags().GetBool("json")
	catalog, err := locale.Load("id")
	if err != nil {
		return nil, false, err
	}
	return catalog.For(lang), asJSON, nil
}

func remindCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remind",
		Short: "Check once for today's unserved patients",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(cfg.Env)
			catalog, err := locale.Load(cfg.Locale)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			st, err := openStore(ctx, cfg, logger, nil)
			if err != nil {
				return err
			}
			defer st.Close()
			svc, err := newVisitService(cfg, st.repo)
			if err != nil {
				return err
			}

			rem := reminder.New(svc, catalog.For(cfg.Locale), nil, logger)
			if err := attachWebhooks(rem, cfg, logger); err != nil {
				return err
			}
			res, err := rem.Run(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, res.Message)
			for _, name := range res.Names {
				fmt.Fprintf(out, "- %s\n", name)
			}
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every visit to an XLSX workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			outPath, _ := cmd.Flags().GetString("out")
			if outPath == "" {
				return fmt.Errorf("--out is required")
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(cfg.Env)
			catalog, err := locale.Load(cfg.Locale)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			st, err := openStore(ctx, cfg, logger, nil)
			if err != nil {
				return err
			}
			defer st.Close()
			svc, err := newVisitService(cfg, st.repo)
			if err != nil {
				return err
			}

			f, err := os.Create(outPath)
			if err != nil {
				return fmt.Errorf("create %s: %w", outPath, err)
			}
			if err := svc.Export(ctx, f, catalog.For(cfg.Locale)); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", outPath)
			return nil
		},
	}
	cmd.Flags().StringP("out", "o", "", "Output .xlsx path")
	return cmd
}

func seedCmd() *cobra.Command {
	def := sandbox.DefaultSeedConfig()
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Append synthetic visits for demos and local development",
		RunE: func(cmd *cobra.Command, args []string) error {
			seedCfg := sandbox.SeedConfig{}
			seedCfg.Count, _ = cmd.Flags().GetInt("count")
			seedCfg.Days, _ = cmd.Flags().GetInt("days")
			seedCfg.ServedRatio, _ = cmd.Flags().GetFloat64("served")
			seedCfg.Seed, _ = cmd.Flags().GetInt64("seed")
			if err := seedCfg.Validate(); err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.IsProduction() {
				return fmt.Errorf("seed refuses to write to a production register")
			}
			logger := newLogger(cfg.Env)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()
			st, err := openStore(ctx, cfg, logger, nil)
			if err != nil {
				return err
			}
			defer st.Close()
			svc, err := newVisitService(cfg, st.repo)
			if err != nil {
				return err
			}

			res, err := sandbox.Seed(ctx, svc, svc.Today(), seedCfg)
			if res != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d visits (%d served) in %s\n", res.Rows, res.Served, res.Duration.Round(time.Millisecond))
			}
			return err
		},
	}
	cmd.Flags().Int("count", def.Count, "Number of visits")
	cmd.Flags().Int("days", def.Days, "Spread visit dates over the last N days")
	cmd.Flags().Float64("served", def.ServedRatio, "Share of visits with therapy recorded")
	cmd.Flags().Int64("seed", 0, "Random seed, 0 for time based")
	return cmd
}
