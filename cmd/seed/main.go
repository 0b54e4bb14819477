// Command seed inserts the sample project catalogue.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/getstreetcred/backend/config"
	"github.com/getstreetcred/backend/seed"
	"github.com/getstreetcred/backend/storage"
	"github.com/getstreetcred/backend/storage/backend"
	"github.com/getstreetcred/backend/storage/postgrest"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		log.Fatalf("❌ %v", err)
	}
}

func newRootCommand() *cobra.Command {
	var owner string

	cmd := &cobra.Command{
		Use:          "seed",
		Short:        "Insert the sample project catalogue",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			store, err := backend.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			return runSeed(cmd.Context(), store, owner, cmd)
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "username (email) that will own the seeded projects")

	cmd.AddCommand(&cobra.Command{
		Use:   "schema",
		Short: "Print the SQL the postgrest backend expects",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), postgrest.SchemaSQL)
		},
	})

	return cmd
}

func runSeed(ctx context.Context, store storage.Storage, owner string, cmd *cobra.Command) error {
	var ownerID *string
	if owner != "" {
		user, err := store.GetUserByUsername(ctx, owner)
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("owner %q does not exist", owner)
		}
		if err != nil {
			return err
		}
		ownerID = &user.ID
	}

	projects, err := seed.Insert(ctx, store, ownerID)
	for _, p := range projects {
		fmt.Fprintf(cmd.OutOrStdout(), "✅ %s (%s)\n", p.Name, p.ID)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d projects into %s\n", len(projects), store.Name())
	return nil
}
