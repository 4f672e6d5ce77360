package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and the default site",
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	site, err := rt.prepare(cmd.Context())
	if err != nil {
		return err
	}

	sites, err := rt.store.Sites().List(cmd.Context())
	if err != nil {
		return err
	}
	domains := make([]string, 0, len(sites))
	for _, s := range sites {
		domains = append(domains, s.Domain)
	}

	rt.log.Info("database migrated",
		zap.Uint("default_site_id", site.ID),
		zap.String("default_site", site.Domain),
		zap.Strings("sites", domains),
	)
	return nil
}
