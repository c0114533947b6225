// Package cli contains all commands for the fleetcli binary.
package cli

import (
	"net/http"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fleetwatch/go-fleet-client/api"
	"github.com/fleetwatch/go-fleet-client/drivers"
	"github.com/fleetwatch/go-fleet-client/internal/config"
	"github.com/fleetwatch/go-fleet-client/routes"
	"github.com/fleetwatch/go-fleet-client/session"
	"github.com/fleetwatch/go-fleet-client/storage"
	"github.com/fleetwatch/go-fleet-client/team"
	"github.com/fleetwatch/go-fleet-client/tokens"
	"github.com/fleetwatch/go-fleet-client/vehicles"
)

var (
	apiURL  string
	dataDir string
	verbose bool
	version = "dev"

	app *appContext
)

// appContext holds the wired client stack shared by all commands.
type appContext struct {
	cfg        *config.Config
	logger     zerolog.Logger
	controller *session.Controller
	vehicles   *vehicles.Service
	routes     *routes.Service
	drivers    *drivers.Service
	team       *team.Service
}

var rootCmd = &cobra.Command{
	Use:   "fleetcli",
	Short: "Fleet management client",
	Long: `fleetcli is a command-line client for the fleet-management backend.

It keeps a persistent session (token pair and user) across runs, silently
refreshing expired access tokens, and exposes the vehicle, route, driver,
and team operations of the API.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initApp(cmd)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string reported by the version command.
func SetVersion(v string) {
	version = v
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "backend base URL (default from FLEET_API_URL)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "session state directory (default from FLEET_DATA_DIR)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	_ = viper.BindPFlag("FLEET_API_URL", rootCmd.PersistentFlags().Lookup("api-url"))
	_ = viper.BindPFlag("FLEET_DATA_DIR", rootCmd.PersistentFlags().Lookup("data-dir"))
}

// initApp loads config, wires the client stack, and restores any persisted
// session.
func initApp(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if apiURL != "" {
		cfg.APIBaseURL = apiURL
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}

	level := zerolog.WarnLevel
	if parsed, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && cfg.LogLevel != "" {
		level = parsed
	}
	if verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	store, err := storage.NewFileStore(cfg.DataDir)
	if err != nil {
		return err
	}
	tokenStore, err := tokens.NewStore(store)
	if err != nil {
		return err
	}
	client, err := api.NewClient(cfg.APIBaseURL, tokenStore,
		api.WithLogger(logger),
		api.WithHTTPClient(&http.Client{Timeout: cfg.Timeout()}),
	)
	if err != nil {
		return err
	}
	controller, err := session.NewController(client, tokenStore, store, session.WithLogger(logger))
	if err != nil {
		return err
	}

	controller.Bootstrap(cmd.Context())

	app = &appContext{
		cfg:        cfg,
		logger:     logger,
		controller: controller,
		vehicles:   vehicles.NewService(client),
		routes:     routes.NewService(client),
		drivers:    drivers.NewService(client),
		team:       team.NewService(client),
	}
	return nil
}
