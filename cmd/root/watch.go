package root

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docker/itemd/pkg/cli"
	"github.com/docker/itemd/pkg/store"
	"github.com/docker/itemd/pkg/watch"
)

type watchFlags struct {
	storePath string
}

func newWatchCmd() *cobra.Command {
	var flags watchFlags

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print a summary every time the item store changes",
		Long:  "Watch the item document and print a one line summary whenever it is rewritten, by this or any other process. Stops on interrupt.",
		Example: `  itemd watch
  itemd watch --store ./items.json`,
		GroupID: "advanced",
		Args:    cobra.NoArgs,
		RunE:    flags.runWatchCommand,
	}

	cmd.Flags().StringVarP(&flags.storePath, "store", "s", "", "Path to the item document (default from config, else ~/.itemd/items.json)")

	return cmd
}

func (f *watchFlags) runWatchCommand(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cli.NewPrinter(cmd.OutOrStdout())

	location := f.storePath
	if location == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		location = cfg.GetStore()
	}
	if location == store.MemoryLocation {
		return fmt.Errorf("cannot watch the in-memory store")
	}

	events, err := watch.New(location).Watch(ctx)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", location, err)
	}

	out.Println("Watching " + location)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			out.Println(watch.Summary(ev))
		}
	}
}
