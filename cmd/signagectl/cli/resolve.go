package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/tablecast/signage/internal/pkg/signedurl"
)

func newResolveCommand() *cobra.Command {
	var (
		server      string
		token       string
		concurrency int
		timeout     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "resolve <path>...",
		Short: "Resolve media paths to signed URLs",
		Long:  "Asks a running server to sign every path concurrently. Output is one line per path, in argument order.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if server == "" {
				server = os.Getenv("SITE_URL")
			}
			if server == "" {
				return fmt.Errorf("--server or SITE_URL is required")
			}
			client := signedurl.New(server, signedurl.Options{
				Timeout:     timeout,
				Concurrency: concurrency,
				Token:       token,
			})

			failed := 0
			out := cmd.OutOrStdout()
			for _, r := range client.ResolveMany(cmd.Context(), args) {
				if r.URL == nil {
					failed++
					fmt.Fprintf(out, "%s\tERROR\t%s\n", r.Path, r.Error)
					continue
				}
				fmt.Fprintf(out, "%s\t%s\n", r.Path, *r.URL)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d path(s) failed", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "server base URL (default $SITE_URL)")
	cmd.Flags().StringVar(&token, "token", "", "bearer token")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "max in-flight requests (0 = unbounded)")
	cmd.Flags().DurationVar(&timeout, "timeout", 15*time.Second, "per-request timeout")
	return cmd
}
