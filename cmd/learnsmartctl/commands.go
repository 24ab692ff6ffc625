package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jCool10/LearnSmart-sub001/internal/app"
	"github.com/jCool10/LearnSmart-sub001/internal/pkg/dbctx"
	"github.com/jCool10/LearnSmart-sub001/internal/seed"
)

var (
	seedFile       string
	roadmapFlag    string
	emailFlag      string
	roleFlag       string
	includeRetired bool

	rootCmd = &cobra.Command{
		Use:           "learnsmartctl",
		Short:         "Operations tooling for the LearnSmart backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or update database tables and indexes",
		RunE:  runMigrate,
	}
	seedCmd = &cobra.Command{
		Use:   "seed",
		Short: "Load categories, roadmaps and lessons from a YAML catalog",
		RunE:  runSeed,
	}
	recalculateCmd = &cobra.Command{
		Use:   "recalculate",
		Short: "Recompute enrollment progress for one roadmap or all of them",
		RunE:  runRecalculate,
	}
	promoteCmd = &cobra.Command{
		Use:   "promote",
		Short: "Change a user's role",
		RunE:  runPromote,
	}
	pruneTokensCmd = &cobra.Command{
		Use:   "prune-tokens",
		Short: "Delete expired refresh token rows",
		RunE:  runPruneTokens,
	}
)

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "seed/catalog.yaml", "catalog YAML file")
	recalculateCmd.Flags().StringVar(&roadmapFlag, "roadmap", "", "roadmap id (default: every roadmap)")
	recalculateCmd.Flags().BoolVar(&includeRetired, "include-inactive", false, "also recalculate deactivated roadmaps")
	promoteCmd.Flags().StringVar(&emailFlag, "email", "", "user email")
	promoteCmd.Flags().StringVar(&roleFlag, "role", "admin", "new role (user|admin)")
	_ = promoteCmd.MarkFlagRequired("email")

	rootCmd.AddCommand(migrateCmd, seedCmd, recalculateCmd, promoteCmd, pruneTokensCmd)
}

// withApp opens the application without serving HTTP and closes it after fn.
func withApp(fn func(ctx context.Context, a *app.App) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	a, err := app.New(ctx, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	return withApp(func(ctx context.Context, a *app.App) error {
		if err := a.DB.AutoMigrateAll(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
		return nil
	})
}

func runSeed(cmd *cobra.Command, _ []string) error {
	catalog, err := seed.LoadFile(seedFile)
	if err != nil {
		return err
	}
	return withApp(func(ctx context.Context, a *app.App) error {
		s := seed.NewSeeder(a.Log, a.Repos.Category, a.Repos.Roadmap, a.Services.Category, a.Services.Roadmap, a.Services.Lesson)
		res, err := s.Apply(ctx, catalog)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "categories=%d roadmaps=%d lessons=%d skipped=%d\n",
			res.Categories, res.Roadmaps, res.Lessons, res.Skipped)
		return nil
	})
}

func runRecalculate(cmd *cobra.Command, _ []string) error {
	var ids []uuid.UUID
	if raw := strings.TrimSpace(roadmapFlag); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid --roadmap: %w", err)
		}
		ids = append(ids, id)
	}
	return withApp(func(ctx context.Context, a *app.App) error {
		if len(ids) == 0 {
			all, err := a.Repos.Roadmap.ListIDs(dbctx.New(ctx), !includeRetired)
			if err != nil {
				return err
			}
			ids = all
		}
		total := 0
		for _, id := range ids {
			n, err := a.Services.Progress.RecalculateAll(ctx, id)
			if err != nil {
				return fmt.Errorf("roadmap %s: %w", id, err)
			}
			total += n
		}
		fmt.Fprintf(cmd.OutOrStdout(), "recalculated %d enrollments across %d roadmaps\n", total, len(ids))
		return nil
	})
}

func runPromote(cmd *cobra.Command, _ []string) error {
	return withApp(func(ctx context.Context, a *app.App) error {
		u, err := a.Services.User.SetRole(ctx, emailFlag, roleFlag)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", u.Email, u.Role)
		return nil
	})
}

func runPruneTokens(cmd *cobra.Command, _ []string) error {
	return withApp(func(ctx context.Context, a *app.App) error {
		n, err := a.Repos.UserToken.FullDeleteExpired(dbctx.New(ctx), time.Now().UTC())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %d expired tokens\n", n)
		return nil
	})
}
