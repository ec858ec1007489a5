package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/tablecast/signage/internal/database"
	"github.com/tablecast/signage/internal/pkg/redis"
)

func newCheckCommand(rt *state) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check every configured dependency",
		Long:  "Pings the database, redis (when configured) and the media bucket, and reports whether an AI provider key is set.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			out := cmd.OutOrStdout()
			failed := 0

			report := func(name string, err error) {
				if err != nil {
					failed++
					fmt.Fprintf(out, "%-9s FAIL  %v\n", name, err)
					return
				}
				fmt.Fprintf(out, "%-9s ok\n", name)
			}

			db, err := rt.openDB()
			if err == nil {
				err = database.Ping(db)
				_ = database.Close(db)
			}
			report("database", err)

			if rt.cfg.Redis.Enabled() {
				rc, err := redis.Connect(ctx, rt.cfg.Redis.URL)
				if err == nil {
					_ = rc.Close()
				}
				report("redis", err)
			} else {
				fmt.Fprintf(out, "%-9s skip  not configured\n", "redis")
			}

			store, err := rt.openStore(ctx)
			if err == nil {
				err = store.Ping(ctx)
			}
			report("storage", err)

			checkAI(out, rt.cfg.AI.Provider, rt.cfg.AI.APIKey)

			if failed > 0 {
				return fmt.Errorf("%d check(s) failed", failed)
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 15*time.Second, "overall timeout")
	return cmd
}

func checkAI(out io.Writer, provider, key string) {
	if key == "" {
		fmt.Fprintf(out, "%-9s skip  no api key for %s\n", "ai", provider)
		return
	}
	fmt.Fprintf(out, "%-9s ok    %s key present\n", "ai", provider)
}
