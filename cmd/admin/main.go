// Command admin manages admin profiles. It is the only way to grant
// capabilities; the HTTP API never does.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"sheetdesk/internal/config"
	"sheetdesk/internal/database"
	"sheetdesk/internal/logger"
	"sheetdesk/internal/models"
	"sheetdesk/internal/services"
)

// openFunc connects to the store behind the profile commands. The returned
// func releases it.
type openFunc func(ctx context.Context) (services.AdminProfileServicer, func(), error)

func main() {
	if err := newRootCommand(openDatabase, os.Stdout).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func openDatabase(_ context.Context) (services.AdminProfileServicer, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg.Env)
	manager, err := database.NewManager(database.NewConfig(cfg), log)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		_ = manager.Close()
		logger.Sync(log)
	}
	return services.NewAdminProfileService(manager.DB()), closeFn, nil
}

func newRootCommand(open openFunc, out io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "admin",
		Short:         "Grant, revoke and list admin profiles",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newGrantCommand(open, out))
	cmd.AddCommand(newRevokeCommand(open, out))
	cmd.AddCommand(newListCommand(open, out))
	return cmd
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func newGrantCommand(open openFunc, out io.Writer) *cobra.Command {
	var (
		userID string
		role   string
		perms  []string
	)

	cmd := &cobra.Command{
		Use:   "grant",
		Short: "Create or replace a user's admin profile",
		Long: "Create or replace a user's admin profile. Without --perm the profile gets " +
			strings.Join(models.DefaultCapabilities.Names(), ", ") + ".",
		RunE: func(cmd *cobra.Command, args []string) error {
			set := models.DefaultCapabilities
			if len(perms) > 0 {
				var err error
				if set, err = models.ParseCapabilities(perms); err != nil {
					return err
				}
			}

			ctx := commandContext(cmd)
			svc, closeFn, err := open(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			profile, err := svc.Grant(ctx, userID, models.AdminRole(role), set)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "granted %s to %s: %s\n", profile.Role, profile.UserID, strings.Join(profile.Permissions.Names(), ","))
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "ID of the user to promote")
	cmd.Flags().StringVar(&role, "role", string(models.AdminRoleAdmin), "Admin role (admin or super_admin)")
	cmd.Flags().StringSliceVar(&perms, "perm", nil, "Capability to grant; repeat or comma-separate")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newRevokeCommand(open openFunc, out io.Writer) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "revoke",
		Short: "Remove a user's admin profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			svc, closeFn, err := open(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := svc.Revoke(ctx, userID); err != nil {
				return err
			}
			fmt.Fprintf(out, "revoked admin profile of %s\n", userID)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "ID of the user to demote")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newListCommand(open openFunc, out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List admin profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			svc, closeFn, err := open(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			profiles, err := svc.List(ctx)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "USER\tROLE\tPERMISSIONS")
			for _, p := range profiles {
				fmt.Fprintf(w, "%s\t%s\t%s\n", p.UserID, p.Role, strings.Join(p.Permissions.Names(), ","))
			}
			return w.Flush()
		},
	}
}
