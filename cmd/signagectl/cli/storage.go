package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newStorageCommand(rt *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "storage",
		Short: "Inspect the media bucket",
	}
	cmd.AddCommand(newStorageListCommand(rt))
	return cmd
}

func newStorageListCommand(rt *state) *cobra.Command {
	return &cobra.Command{
		Use:   "ls [prefix]",
		Short: "List bucket objects",
		Long:  "Lists objects under prefix, usually a business id.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefix := ""
			if len(args) == 1 {
				prefix = args[0]
			}
			store, err := rt.openStore(cmd.Context())
			if err != nil {
				return err
			}
			objects, err := store.List(cmd.Context(), prefix)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, o := range objects {
				fmt.Fprintf(w, "%s\t%d\t%s\n", o.Path, o.Size, o.UpdatedAt.Format("2006-01-02 15:04:05"))
			}
			fmt.Fprintf(w, "%d object(s) in %s\n", len(objects), store.Bucket())
			return w.Flush()
		},
	}
}
