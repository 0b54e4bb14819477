// Command cleanup wipes projects and ratings from the SQL backend.
package main

import (
	"fmt"
	"log"

	"github.com/getstreetcred/backend/config"
	"github.com/getstreetcred/backend/storage/backend"
	"github.com/getstreetcred/backend/storage/sqlstore"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		log.Fatalf("❌ %v", err)
	}
}

func newRootCommand() *cobra.Command {
	var (
		users bool
		yes   bool
	)

	cmd := &cobra.Command{
		Use:          "cleanup",
		Short:        "Delete every project and rating",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to wipe data without --yes")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			store, err := backend.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			sql, ok := store.(*sqlstore.Store)
			if !ok {
				return fmt.Errorf("cleanup only supports the sql backend, got %s", store.Name())
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Start cleanup...")
			if err := sql.Wipe(cmd.Context(), users); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "✅ Deleted all ratings and projects")
			if users {
				fmt.Fprintln(cmd.OutOrStdout(), "✅ Deleted all users")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&users, "users", false, "also delete every user")
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the wipe")

	return cmd
}
