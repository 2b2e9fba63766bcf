package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/lchen64/pid-diffusion/internal/config"
	"github.com/lchen64/pid-diffusion/internal/ctxlog"
	"github.com/lchen64/pid-diffusion/internal/defaults"
	"github.com/lchen64/pid-diffusion/internal/launch"
	"github.com/lchen64/pid-diffusion/internal/registry"
)

// defaultDefaultsPath is the implicit defaults file looked up in the
// working directory when no -defaults flag is given.
const defaultDefaultsPath = "pidlaunch.toml"

// App encapsulates the application's dependencies, configuration, and
// lifecycle.
type App struct {
	outW      io.Writer
	errW      io.Writer
	logger    *slog.Logger
	registry  *registry.Registry
	model     *config.Model
	converter config.Converter
	defaults  *defaults.Defaults
	appConfig *Config
	spawner   launch.Spawner
	notifier  *Notifier
	status    *statusServer
}

// Option customizes an App, primarily for tests.
type Option func(*App)

// WithSpawner replaces the process spawner. Tests use this to observe
// launches without running anything.
func WithSpawner(s launch.Spawner) Option {
	return func(a *App) { a.spawner = s }
}

// WithNotifier replaces the run-event notifier.
func WithNotifier(n *Notifier) Option {
	return func(a *App) { a.notifier = n }
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and
// registry. Configuration failures are fatal startup errors and panic;
// the caller recovers them into a clean exit.
func NewApp(outW, errW io.Writer, appConfig *Config, loader config.Loader, opts ...Option) *App {
	defs, err := loadDefaults(appConfig)
	if err != nil {
		panic(err)
	}

	logFormat := firstNonEmpty(appConfig.LogFormat, defs.LogFormat, "text")
	logLevel := firstNonEmpty(appConfig.LogLevel, defs.LogLevel, "info")
	logger := newLogger(logLevel, logFormat, errW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	// Load all configuration into the format-agnostic model first.
	configPaths := []string{}
	if appConfig.TrainersPath != "" {
		configPaths = append(configPaths, appConfig.TrainersPath)
	}
	configPaths = append(configPaths, appConfig.PlanPath)

	model, converter, err := loader.Load(ctx, configPaths...)
	if err != nil {
		// A failure to load config is a fatal startup error.
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}
	logger.Debug("Configuration loaded and translated into unified model.")

	reg := registry.New()
	reg.PopulateFromModel(model)
	if err := reg.ValidateRegistry(ctx, model); err != nil {
		panic(err)
	}
	logger.Debug("Registry validation passed.",
		"trainers", len(reg.TrainerRegistry), "runs", len(model.Plan.Runs))

	app := &App{
		outW:      outW,
		errW:      errW,
		logger:    logger,
		registry:  reg,
		model:     model,
		converter: converter,
		defaults:  defs,
		appConfig: appConfig,
		spawner:   &launch.ExecSpawner{ShowProgress: true},
	}
	for _, opt := range opts {
		opt(app)
	}
	if app.notifier == nil {
		app.notifier = NewNotifier(defs.NotifyURL)
	}
	return app
}

// Registry returns the application's registry. This is primarily for
// testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Model returns the loaded configuration model. This is primarily for
// testing.
func (a *App) Model() *config.Model {
	return a.model
}

// loadDefaults resolves the defaults file: an explicit path must exist,
// the implicit one may be absent.
func loadDefaults(appConfig *Config) (*defaults.Defaults, error) {
	if appConfig.DefaultsPath != "" {
		return defaults.Load(appConfig.DefaultsPath)
	}
	return defaults.LoadIfPresent(defaultDefaultsPath)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// environBase returns the inherited process environment. A variable so
// tests can shrink it.
var environBase = os.Environ
