package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/tablecast/signage/internal/database"
	"github.com/tablecast/signage/internal/modules/storage/media"
)

func newReconcileCommand(rt *state) *cobra.Command {
	var (
		apply  bool
		prefix string
		minAge time.Duration
	)

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Compare the bucket with media rows",
		Long:  "Reports bucket objects without a media row and rows whose object is gone. With --apply, orphan objects older than --min-age are deleted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := rt.openStore(cmd.Context())
			if err != nil {
				return err
			}
			db, err := rt.openDB()
			if err != nil {
				return err
			}
			defer func() { _ = database.Close(db) }()

			rep, err := media.NewReconciler(db, store, rt.logger).Sweep(cmd.Context(), media.SweepOptions{
				Apply:  apply,
				MinAge: minAge,
				Prefix: prefix,
			})
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(rep); err != nil {
				return err
			}
			if len(rep.Failed) > 0 {
				return fmt.Errorf("%d orphan(s) could not be deleted", len(rep.Failed))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "delete orphan objects")
	cmd.Flags().StringVar(&prefix, "prefix", "", "only consider paths under this prefix")
	cmd.Flags().DurationVar(&minAge, "min-age", 24*time.Hour, "skip orphans younger than this")
	return cmd
}
