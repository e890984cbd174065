// Package storectl implements the storefront operator CLI.
package storectl

import (
	"context"
	"fmt"
	"io"

	entrypoint "github.com/louisbranch/storefront/internal/platform/cmd"
	"github.com/louisbranch/storefront/internal/platform/logging"
	"github.com/louisbranch/storefront/internal/services/shop/storage/sqlite"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Config holds storectl settings shared by every subcommand.
type Config struct {
	DBPath string `env:"STOREFRONT_DB_PATH" envDefault:"data/storefront.db"`
}

type options struct {
	cfg    Config
	logger *zap.Logger
}

// NewRootCommand builds the storectl command tree.
func NewRootCommand(logger *zap.Logger) (*cobra.Command, error) {
	opts := &options{logger: logging.OrNop(logger)}
	if err := entrypoint.ParseConfig(&opts.cfg); err != nil {
		return nil, err
	}

	root := &cobra.Command{
		Use:           "storectl",
		Short:         "Operate a storefront database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.cfg.DBPath, "db-path", opts.cfg.DBPath, "SQLite database path")

	root.AddCommand(
		newMigrateCommand(opts),
		newAdminCommand(opts),
		newSeedCommand(opts),
		newSessionKeyCommand(),
	)
	return root, nil
}

// Execute runs storectl with args, writing command output to out.
func Execute(ctx context.Context, args []string, out io.Writer, logger *zap.Logger) error {
	root, err := NewRootCommand(logger)
	if err != nil {
		return err
	}
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(out)
	return root.ExecuteContext(ctx)
}

// openStore opens and migrates the configured database.
func (o *options) openStore(ctx context.Context) (*sqlite.Store, error) {
	store, err := sqlite.Open(ctx, o.cfg.DBPath, o.logger.Named("storage"))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", o.cfg.DBPath, err)
	}
	return store, nil
}

func newMigrateCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database and apply pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := opts.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "database %s is up to date\n", opts.cfg.DBPath)
			return nil
		},
	}
}
