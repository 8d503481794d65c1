package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pointdash/pointdash/internal/dataset"
	"github.com/pointdash/pointdash/internal/points"
	"github.com/pointdash/pointdash/internal/store"
)

var importCmd = &cobra.Command{
	Use:   "import <dataset>",
	Short: "Replace a user's points with a dataset file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := dataset.LoadFile(args[0])
		if err != nil {
			return err
		}
		return withUser(cmd, func(ctx context.Context, svc *points.Service, userID string) error {
			u, err := svc.Replace(ctx, userID, f.Points, "")
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d points (seq %d)\n", len(u.Points), u.Seq)
			return nil
		})
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a user's points as JSON or YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		return withUser(cmd, func(ctx context.Context, svc *points.Service, userID string) error {
			pts, _, err := svc.List(ctx, userID)
			if err != nil {
				return err
			}
			return dataset.Encode(cmd.OutOrStdout(), &dataset.File{Points: pts}, dataset.Format(format))
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{importCmd, exportCmd} {
		c.Flags().String("db", os.Getenv("DATABASE_URL"), "Database URL (defaults to $DATABASE_URL)")
		c.Flags().String("email", "", "Email of the account")
		_ = c.MarkFlagRequired("email")
		rootCmd.AddCommand(c)
	}
	exportCmd.Flags().String("format", string(dataset.FormatYAML), "Output format (json or yaml)")
}

// withUser opens the database, resolves --email and runs fn.
func withUser(cmd *cobra.Command, fn func(ctx context.Context, svc *points.Service, userID string) error) error {
	dbURL, _ := cmd.Flags().GetString("db")
	email, _ := cmd.Flags().GetString("email")
	email = strings.ToLower(strings.TrimSpace(email))
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	db, err := store.Open(ctx, dbURL)
	if err != nil {
		return err
	}
	defer db.Close()

	user, err := db.GetUserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("look up %s: %w", email, err)
	}
	return fn(ctx, points.NewService(db, points.WithLogger(loggerFor(cmd))), user.ID)
}
