package root

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/docker/itemd/pkg/cli"
	"github.com/docker/itemd/pkg/item"
	"github.com/docker/itemd/pkg/service"
	"github.com/docker/itemd/pkg/store"
)

type itemFlags struct {
	storePath string
}

func newItemCmd() *cobra.Command {
	var flags itemFlags

	cmd := &cobra.Command{
		Use:   "item",
		Short: "Manage items directly in the item store",
		Long:  "Create, inspect, update and delete items without going through the HTTP server",
		Example: `  itemd item list
  itemd item add --title Milk --price 2.5 --category grocery
  itemd item toggle 3f1c2a`,
		GroupID: "core",
		Aliases: []string{"items"},
	}

	cmd.PersistentFlags().StringVarP(&flags.storePath, "store", "s", "", `Path to the item document (default from config, else ~/.itemd/items.json)`)

	cmd.AddCommand(newItemListCmd(&flags))
	cmd.AddCommand(newItemGetCmd(&flags))
	cmd.AddCommand(newItemAddCmd(&flags))
	cmd.AddCommand(newItemUpdateCmd(&flags))
	cmd.AddCommand(newItemToggleCmd(&flags))
	cmd.AddCommand(newItemRmCmd(&flags))

	return cmd
}

// location resolves the item document from --store or the user config.
func (f *itemFlags) location() (string, error) {
	if f.storePath != "" {
		return f.storePath, nil
	}
	cfg, err := loadConfig()
	if err != nil {
		return "", err
	}
	return cfg.GetStore(), nil
}

func (f *itemFlags) service() (*service.Service, string, error) {
	location, err := f.location()
	if err != nil {
		return nil, "", err
	}
	if location == store.MemoryLocation {
		return nil, "", errors.New("the in-memory store is only available to `itemd serve`")
	}
	return service.New(store.Open(location)), location, nil
}

func itemNotFound(cmd *cobra.Command, id string) error {
	err := fmt.Errorf("item %q not found", id)
	cli.NewPrinter(cmd.ErrOrStderr()).PrintError(err)
	return RuntimeError{Err: err}
}

func newItemListCmd(flags *itemFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List all items",
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, location, err := flags.service()
			if err != nil {
				return err
			}

			items, err := svc.List(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(items)
			}

			out := cli.NewPrinter(cmd.OutOrStdout())
			out.PrintItems(items)
			if fi, err := os.Stat(location); err == nil {
				out.PrintStoreInfo(location, fi.Size())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the items as a JSON array")

	return cmd
}

func newItemGetCmd(flags *itemFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a single item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := flags.service()
			if err != nil {
				return err
			}

			it, found, err := svc.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !found {
				return itemNotFound(cmd, args[0])
			}

			cli.NewPrinter(cmd.OutOrStdout()).PrintItem(it)
			return nil
		},
	}
}

func newItemAddCmd(flags *itemFlags) *cobra.Command {
	var fields item.Fields

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create an item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, _, err := flags.service()
			if err != nil {
				return err
			}

			it, err := svc.Create(cmd.Context(), fields)
			if err != nil {
				return err
			}

			cli.NewPrinter(cmd.OutOrStdout()).PrintOK(fmt.Sprintf("added %s (%s)", it.Title, it.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&fields.Title, "title", "", "Title of the item")
	cmd.Flags().Float64Var(&fields.Price, "price", 0, "Price of the item")
	cmd.Flags().StringVar(&fields.Category, "category", "", "Category of the item")
	cmd.Flags().StringVar(&fields.Description, "description", "", "Description of the item")
	cmd.Flags().BoolVar(&fields.IsComplete, "complete", false, "Create the item already completed")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

func newItemUpdateCmd(flags *itemFlags) *cobra.Command {
	var fields item.Fields

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of an item",
		Long:  "Change fields of an item. Only the flags that are passed are updated.",
		Example: `  itemd item update 3f1c2a --price 3.10
  itemd item update 3f1c2a --title "Oat milk" --category ""`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch := patchFromFlags(cmd, fields)
			if patch.IsEmpty() {
				return errors.New("nothing to update: pass at least one of --title, --price, --category, --description or --complete")
			}

			svc, _, err := flags.service()
			if err != nil {
				return err
			}

			it, found, err := svc.Update(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			if !found {
				return itemNotFound(cmd, args[0])
			}

			cli.NewPrinter(cmd.OutOrStdout()).PrintOK(fmt.Sprintf("updated %s (%s)", it.Title, it.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&fields.Title, "title", "", "New title")
	cmd.Flags().Float64Var(&fields.Price, "price", 0, "New price")
	cmd.Flags().StringVar(&fields.Category, "category", "", "New category")
	cmd.Flags().StringVar(&fields.Description, "description", "", "New description")
	cmd.Flags().BoolVar(&fields.IsComplete, "complete", false, "New completion state")

	return cmd
}

// patchFromFlags keeps only the fields whose flag was set on the command line.
func patchFromFlags(cmd *cobra.Command, fields item.Fields) item.Patch {
	var patch item.Patch
	changed := cmd.Flags().Changed
	if changed("title") {
		patch.Title = &fields.Title
	}
	if changed("price") {
		patch.Price = &fields.Price
	}
	if changed("category") {
		patch.Category = &fields.Category
	}
	if changed("description") {
		patch.Description = &fields.Description
	}
	if changed("complete") {
		patch.IsComplete = &fields.IsComplete
	}
	return patch
}

func newItemToggleCmd(flags *itemFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id> [true|false]",
		Short: "Set or flip the completion flag of an item",
		Long:  "Set the completion flag of an item to the given value, or flip it when no value is given",
		Example: `  itemd item toggle 3f1c2a
  itemd item toggle 3f1c2a false`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]

			var value *bool
			if len(args) == 2 {
				v, err := strconv.ParseBool(args[1])
				if err != nil {
					return fmt.Errorf("invalid completion value %q: must be true or false", args[1])
				}
				value = &v
			}

			svc, _, err := flags.service()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if value == nil {
				current, found, err := svc.Get(ctx, id)
				if err != nil {
					return err
				}
				if !found {
					return itemNotFound(cmd, id)
				}
				flipped := !current.IsComplete
				value = &flipped
			}

			it, found, err := svc.SetCompletion(ctx, id, *value)
			if err != nil {
				return err
			}
			if !found {
				return itemNotFound(cmd, id)
			}

			state := "pending"
			if it.IsComplete {
				state = "done"
			}
			cli.NewPrinter(cmd.OutOrStdout()).PrintOK(fmt.Sprintf("%s is %s", it.Title, state))
			return nil
		},
	}
}

func newItemRmCmd(flags *itemFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Short:   "Delete an item",
		Aliases: []string{"delete"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := flags.service()
			if err != nil {
				return err
			}

			deleted, err := svc.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !deleted {
				return itemNotFound(cmd, args[0])
			}

			cli.NewPrinter(cmd.OutOrStdout()).PrintOK("deleted " + args[0])
			return nil
		},
	}
}
