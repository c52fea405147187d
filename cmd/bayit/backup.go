package main

import (
	"database/sql"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/bayitbeseder/bayit/internal/backup"
	"github.com/bayitbeseder/bayit/internal/database"
	"github.com/bayitbeseder/bayit/internal/store"
)

func newBackupManager(a *app, db *sql.DB) *backup.Manager {
	c := a.cfg.Backup
	return backup.NewManager(backup.Config{
		S3: backup.S3Config{
			Endpoint:  c.S3Endpoint,
			Bucket:    c.S3Bucket,
			Region:    c.S3Region,
			AccessKey: c.S3AccessKey,
			SecretKey: c.S3SecretKey,
		},
		Passphrase:    c.Passphrase,
		RetentionDays: c.RetentionDays,
		Interval:      c.Interval,
	}, db, store.NewBackupStore(db), a.logger.With("component", "backup"))
}

func newBackupCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Encrypted off-site database backups",
	}

	// withManager opens the database and hands a backup manager to fn.
	withManager := func(fn func(*cobra.Command, []string, *backup.Manager) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			db, err := database.Open(a.cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()
			return fn(cmd, args, newBackupManager(a, db))
		}
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Take a backup now and prune old ones",
		RunE: withManager(func(cmd *cobra.Command, args []string, m *backup.Manager) error {
			b, err := m.Run(cmd.Context())
			if err != nil {
				return err
			}
			if err := m.Cleanup(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "backup %d uploaded to %s (%d bytes)\n", b.ID, b.S3Key, b.SizeBytes)
			return nil
		}),
	})

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List recorded backups, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.Open(a.cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			backups, err := store.NewBackupStore(db).List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSTARTED\tSTATUS\tBYTES\tKEY")
			for _, b := range backups {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", b.ID, b.StartedAt.Format(time.RFC3339), b.Status, b.SizeBytes, b.S3Key)
			}
			return tw.Flush()
		},
	}
	list.Flags().IntVar(&limit, "limit", 20, "maximum number of backups to show")
	cmd.AddCommand(list)

	cmd.AddCommand(&cobra.Command{
		Use:   "restore <id> <dest>",
		Short: "Download, decrypt and verify a backup into dest",
		Long: `Writes the restored database to dest. Stop the server and move dest over
BAYIT_DB_PATH to complete the restore.`,
		Args: cobra.ExactArgs(2),
		RunE: withManager(func(cmd *cobra.Command, args []string, m *backup.Manager) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid backup id %q", args[0])
			}
			if err := m.Restore(cmd.Context(), id, args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "backup %d restored to %s\n", id, args[1])
			return nil
		}),
	})

	return cmd
}
