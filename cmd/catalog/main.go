package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Clark-Hu/movie-catalog/internal/config"
	"github.com/Clark-Hu/movie-catalog/internal/logging"
	"github.com/Clark-Hu/movie-catalog/internal/shell"
	"github.com/Clark-Hu/movie-catalog/internal/store"
)

// app carries the state shared by every command once PersistentPreRunE has run.
type app struct {
	configPath string
	file       string
	verbose    bool

	cfg    config.Config
	logger *zap.Logger
	store  *store.Store
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "catalog",
		Short: "Manage a personal horror movie catalog stored in a CSV file",
		Long: `catalog keeps a movie collection in one CSV file
(title,year,director,rating,runtimeMinutes,votes,watched).

Run without arguments to start the interactive menu.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return shell.New(a.store, cmd.InOrStdin(), cmd.OutOrStdout()).Run()
		},
	}

	root.PersistentFlags().StringVarP(&a.file, "file", "f", "", "Catalog CSV file (default from MOVIES_FILE or movies.csv)")
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML config file (or set CATALOG_CONFIG)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newListCmd(a),
		newAddCmd(a),
		newDeleteCmd(a),
		newEditCmd(a),
		newImportCmd(a),
		newScarinessCmd(a),
		newServeCmd(a),
	)
	return root
}

func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if a.file != "" {
		cfg.CatalogPath = a.file
	}
	if a.verbose {
		cfg.LogLevel = "debug"
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	a.cfg = cfg
	a.logger = logger
	a.store = store.New(cfg.CatalogPath, store.Options{Logger: logger})
	return nil
}

// movieIndex converts a 1-based catalog number into a store index.
func (a *app) movieIndex(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("movie number must be an integer, got %q", arg)
	}
	if total := a.store.Len(); n < 1 || n > total {
		return 0, fmt.Errorf("movie number %d out of range (catalog has %d movies)", n, total)
	}
	return n - 1, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
