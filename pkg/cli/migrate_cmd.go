package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"sqlguard/internal/app"
	internaldb "sqlguard/internal/db"
)

func newMigrateCmd() *cobra.Command {
	var seedUser string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the schema of the managed tables",
		Example: `  # Create or upgrade the schema
  sqlguard migrate

  # Also create a default organisation and an admin account
  sqlguard migrate --seed admin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := loadRuntime()
			if err != nil {
				return err
			}
			defer rt.close()

			ctx := cmd.Context()
			db, err := rt.openDB(ctx)
			if err != nil {
				return err
			}
			dialect := internaldb.Dialect(rt.cfg.DBDriver)
			if err := internaldb.RunMigrations(db, dialect); err != nil {
				return err
			}
			v, err := internaldb.MigrationVersion(db, dialect)
			if err != nil {
				return err
			}

			out := map[string]any{"schema_version": v}
			if seedUser != "" {
				a, err := rt.wire(ctx)
				if err != nil {
					return err
				}
				seeded, err := app.Seed(ctx, a.Engine, seedUser)
				if err != nil {
					return fmt.Errorf("seed: %w", err)
				}
				if seeded != nil {
					out["org_id"] = seeded.OrgID
					out["user_id"] = seeded.UserID
				}
			}

			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), out)
			}
			return printDetail(cmd.OutOrStdout(), []string{"schema_version", "org_id", "user_id"}, out)
		},
	}
	cmd.Flags().StringVar(&seedUser, "seed", "", "Create a default organisation and this admin user when no users exist")
	return cmd
}
