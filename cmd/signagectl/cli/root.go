package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tablecast/signage/internal/config"
	"github.com/tablecast/signage/internal/pkg/logging"
	"go.uber.org/zap"
)

type VersionInfo struct {
	Version string
	Commit  string
}

// state is filled by the root command before any subcommand runs.
type state struct {
	cfg    *config.AppConfig
	logger *zap.Logger
}

func NewRootCommand(info VersionInfo) *cobra.Command {
	var (
		path     string
		logLevel string
	)
	rt := &state{}

	cmd := &cobra.Command{
		Use:           "signagectl",
		Short:         "Signage operations tool",
		Long:          "Diagnostics and maintenance for the signage service: dependency checks, bucket listing, media reconciliation and signed URL resolution.",
		SilenceErrors: true,
		SilenceUsage:  true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadDotEnv(); err != nil {
				return err
			}
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			logger, err := logging.New(logging.Options{Level: logLevel, Dev: true})
			if err != nil {
				return err
			}
			rt.cfg = cfg
			rt.logger = logger
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&path, "config", config.DefaultConfigPath, "config file")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	cmd.Version = fmt.Sprintf("%s.%s", info.Version, info.Commit)

	cmd.AddCommand(newCheckCommand(rt))
	cmd.AddCommand(newStorageCommand(rt))
	cmd.AddCommand(newReconcileCommand(rt))
	cmd.AddCommand(newResolveCommand())
	cmd.AddCommand(newRenderCardCommand())

	return cmd
}

var errMissingCredentials = errors.New("storage credentials are missing")

// requireStorage fails fast when the configured driver has no credentials.
func (rt *state) requireStorage() error {
	if rt.cfg.Storage.HasCredentials() {
		return nil
	}
	switch rt.cfg.Storage.Driver {
	case config.StorageGCS:
		return fmt.Errorf("%w: set STORAGE_GCS_CREDENTIALS_FILE or GOOGLE_APPLICATION_CREDENTIALS", errMissingCredentials)
	default:
		return fmt.Errorf("%w: set STORAGE_ACCESS_KEY_ID and STORAGE_SECRET_ACCESS_KEY", errMissingCredentials)
	}
}
