package cli

import (
	"errors"
	"fmt"

	"github.com/sifan077/bookmarks/internal/app/search"
	"github.com/sifan077/bookmarks/internal/app/service"
	infraNATS "github.com/sifan077/bookmarks/internal/infra/nats"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Publish every bookmark on every site to the search index",
	RunE:  runReindex,
}

func runReindex(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	if !rt.cfg.NATS.Enabled {
		return errors.New("reindex needs nats.enabled=true")
	}
	conn, js, err := infraNATS.Connect(rt.cfg.NATS)
	if err != nil {
		return err
	}
	defer conn.Drain()

	svc := service.NewBookmarkService(service.BookmarkServiceDeps{
		Store:   rt.store,
		Indexer: search.NewPublisher(js, rt.cfg.NATS.SubjectPrefix),
		Logger:  rt.log.Named("bookmarks"),
	})

	n, err := svc.Reindex(cmd.Context())
	if err != nil {
		return err
	}
	rt.log.Info("reindex finished", zap.Int("bookmarks", n))
	fmt.Fprintf(cmd.OutOrStdout(), "indexed %d bookmarks\n", n)
	return nil
}
