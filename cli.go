package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ViniZap4/tonote-server/config"
	"github.com/ViniZap4/tonote-server/domain"
	"github.com/ViniZap4/tonote-server/filesystem"
	"github.com/ViniZap4/tonote-server/store"
)

func newMigrateCmd(envFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup(*envFile)
			if err != nil {
				return err
			}
			if err := store.MigrateUp(cfg.DatabaseURL); err != nil {
				return err
			}
			log.Info().Msg("migrations applied")
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down [steps]",
		Short: "Roll back migrations, one step by default",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps := 1
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n < 1 {
					return fmt.Errorf("steps must be a positive number, got %q", args[0])
				}
				steps = n
			}
			cfg, log, err := setup(*envFile)
			if err != nil {
				return err
			}
			if err := store.MigrateDown(cfg.DatabaseURL, steps); err != nil {
				return err
			}
			log.Info().Int("steps", steps).Msg("migrations rolled back")
			return nil
		},
	})
	return cmd
}

func requirePostgres(cfg config.Config) error {
	if cfg.Storage != config.StoragePostgres {
		return errors.New("this command needs TONOTE_STORAGE=postgres")
	}
	return nil
}

func newExportCmd(envFile *string) *cobra.Command {
	var email, dir string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a user's notes to markdown files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup(*envFile)
			if err != nil {
				return err
			}
			if err := requirePostgres(cfg); err != nil {
				return err
			}
			ctx := cmd.Context()
			db, closeDB, err := openBackend(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer closeDB()

			user, err := db.GetUserByEmail(ctx, domain.NormalizeEmail(email))
			if err != nil {
				return fmt.Errorf("find %s: %w", email, err)
			}
			notes, err := db.ListNotes(ctx, user.ID)
			if err != nil {
				return err
			}
			n, err := filesystem.ExportAll(dir, notes)
			if err != nil {
				return err
			}
			log.Info().Int("notes", n).Str("dir", dir).Msg("export finished")
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account to export")
	cmd.Flags().StringVar(&dir, "dir", "./export", "target directory")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newImportCmd(envFile *string) *cobra.Command {
	var email, dir string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Create notes for a user from a directory of markdown files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup(*envFile)
			if err != nil {
				return err
			}
			if err := requirePostgres(cfg); err != nil {
				return err
			}
			ctx := cmd.Context()
			db, closeDB, err := openBackend(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer closeDB()

			user, err := db.GetUserByEmail(ctx, domain.NormalizeEmail(email))
			if err != nil {
				return fmt.Errorf("find %s: %w", email, err)
			}
			files, err := filesystem.ListNotes(dir)
			if err != nil {
				return err
			}

			imported := 0
			for _, f := range files {
				in, err := filesystem.ToInput(f)
				if err != nil {
					log.Warn().Err(err).Str("title", f.Title).Msg("skipping note")
					continue
				}
				note, err := db.CreateNote(ctx, user.ID, in)
				if err != nil {
					return err
				}
				if f.IsArchived {
					if _, err := db.SetArchived(ctx, user.ID, note.ID, true); err != nil {
						return err
					}
				}
				imported++
			}
			log.Info().Int("notes", imported).Int("skipped", len(files)-imported).Msg("import finished")
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account to import into")
	cmd.Flags().StringVar(&dir, "dir", "./export", "directory of .md files")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
