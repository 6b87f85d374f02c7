package app

import (
	"crypto/rand"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/afero"

	"github.com/jeremyhahn/home-ca/pkg/config"
	"github.com/jeremyhahn/home-ca/pkg/logging"
)

var (
	Name       = "home-ca"
	Version    string
	GitHash    string
	BuildDate  string
	Repository = "https://github.com/jeremyhahn/home-ca"
)

type App struct {
	Config     *config.Config
	ConfigFile string
	DebugFlag  bool
	Fs         afero.Fs
	LogFile    afero.File
	Logger     *logging.Logger
	Random     io.Reader
}

type AppInitParams struct {
	ConfigFile      string
	LogFile         string
	OutputDirectory string
	Debug           bool
}

func NewApp() *App {
	return &App{
		Fs:     afero.NewOsFs(),
		Random: rand.Reader,
	}
}

// Initializes the logger and loads the platform configuration file,
// applying command line overrides.
func (app *App) Init(initParams *AppInitParams) (*App, error) {

	app.DebugFlag = initParams.Debug
	app.ConfigFile = initParams.ConfigFile
	if app.ConfigFile == "" {
		app.ConfigFile = config.DEFAULT_CONFIG_FILE
	}

	level := slog.LevelInfo
	if app.DebugFlag {
		level = slog.LevelDebug
	}
	if initParams.LogFile != "" {
		logFile, err := app.Fs.OpenFile(
			initParams.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, err
		}
		app.LogFile = logFile
	}
	app.Logger = logging.NewLogger(level, app.LogFile)

	cfg, err := config.Load(app.Fs, app.ConfigFile)
	if err != nil {
		return nil, err
	}

	// Output directory precedence: command line, config file, default
	if initParams.OutputDirectory != "" {
		cfg.OutputDirectory = initParams.OutputDirectory
	}

	app.Config = cfg
	app.Logger.Debug("Loaded configuration",
		"file", app.ConfigFile,
		"output_directory", cfg.OutputDirectory,
		"hosts", len(cfg.Hosts))

	return app, nil
}
