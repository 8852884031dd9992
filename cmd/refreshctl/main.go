package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/gofiber/fiber/v2"
	router "github.com/goliatone/go-router"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	refresh "github.com/goliatone/go-datasource-refresh/components/refresh"
	"github.com/goliatone/go-datasource-refresh/components/refresh/gorouter"
	"github.com/goliatone/go-datasource-refresh/pkg/extension"
	"github.com/goliatone/go-datasource-refresh/pkg/host"
	"github.com/goliatone/go-datasource-refresh/pkg/settings"
	"github.com/goliatone/go-datasource-refresh/pkg/tableau"
)

type cli struct {
	Debug    bool        `help:"Enable development logging." env:"REFRESH_DEBUG"`
	Store    storeFlags  `embed:"" prefix:"store-"`
	Serve    serveCmd    `cmd:"" help:"Serve the extension page and its API."`
	Refresh  refreshCmd  `cmd:"" help:"Refresh every data source of the manifest dashboard once."`
	Settings settingsCmd `cmd:"" help:"Inspect or change persisted settings."`
}

type storeFlags struct {
	Driver   string `default:"file" enum:"memory,file,sqlite" env:"REFRESH_STORE_DRIVER" help:"Settings store driver (memory, file, sqlite)."`
	Location string `default:"refresh-settings.yaml" env:"REFRESH_STORE_LOCATION" help:"YAML path or SQLite DSN for the settings store."`
}

type hostFlags struct {
	Manifest      string `required:"" type:"existingfile" env:"REFRESH_MANIFEST" help:"Dashboard manifest YAML."`
	DefaultServer string `env:"REFRESH_DEFAULT_SERVER" help:"Server used when the settings-server value is blank."`
}

// runtime carries process-wide collaborators into command Run methods.
type runtime struct {
	ctx    context.Context
	logger *zap.Logger
	store  storeFlags
	out    io.Writer
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "refreshctl: load .env: %v\n", err)
	}
	var args cli
	kctx := kong.Parse(&args,
		kong.Description("Refresh every data source of a dashboard and manage extension settings."),
		kong.UsageOnError(),
	)
	logger, err := newLogger(args.Debug)
	kctx.FatalIfErrorf(err)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err = kctx.Run(&runtime{ctx: ctx, logger: logger, store: args.Store, out: os.Stdout})
	kctx.FatalIfErrorf(err)
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func (rt *runtime) openStore() (refresh.Settings, error) {
	store, err := settings.Open(rt.ctx, settings.Config{Driver: rt.store.Driver, Location: rt.store.Location})
	if err != nil {
		return nil, err
	}
	overlay, err := settings.LoadEnv(nil)
	if err != nil {
		return nil, err
	}
	view := overlay.Overlay(store)
	if keys := view.Overridden(); len(keys) > 0 {
		rt.logger.Info("settings_env_overlay", zap.Strings("keys", keys))
	}
	return view, nil
}

func (rt *runtime) newExtension(flags hostFlags, renderer refresh.Renderer, basePath, events string) (*extension.Extension, error) {
	manifest, err := host.ReadManifest(flags.Manifest)
	if err != nil {
		return nil, err
	}
	store, err := rt.openStore()
	if err != nil {
		return nil, err
	}
	manifestHost := host.NewManifestHost(host.ManifestHostOptions{
		Manifest: manifest,
		Settings: store,
		Logger:   rt.logger,
	})
	return extension.New(extension.Config{
		Host:          manifestHost,
		SignInClient:  tableau.NewHTTPClient(tableau.HTTPConfig{DefaultServer: flags.DefaultServer}),
		DefaultServer: flags.DefaultServer,
		Renderer:      renderer,
		BasePath:      basePath,
		Events:        events,
		Logger:        rt.logger,
	})
}

type serveCmd struct {
	Host      hostFlags `embed:""`
	Addr      string    `default:":8080" env:"REFRESH_ADDR" help:"Listen address."`
	BasePath  string    `default:"/extension" env:"REFRESH_BASE_PATH" help:"Mount point of the extension routes."`
	Transport string    `default:"router" enum:"router,http" help:"HTTP stack: go-router on fiber, or net/http."`
}

func (cmd *serveCmd) Run(rt *runtime) error {
	renderer, err := refresh.NewTemplateRenderer()
	if err != nil {
		return fmt.Errorf("refreshctl: template renderer: %w", err)
	}
	events := refresh.EventsSSE
	if cmd.Transport == "router" {
		events = refresh.EventsWebSocket
	}
	ext, err := rt.newExtension(cmd.Host, renderer, cmd.BasePath, events)
	if err != nil {
		return err
	}
	defer ext.Close()
	if err := ext.Bootstrap(rt.ctx); err != nil {
		// the page reports initialization failures; keep serving
		rt.logger.Error("extension_bootstrap_failed", zap.Error(err))
	}

	rt.logger.Info("extension_routes_ready",
		zap.String("addr", cmd.Addr),
		zap.String("page", cmd.BasePath+"/refresh"),
		zap.String("transport", cmd.Transport),
	)
	if cmd.Transport == "http" {
		srv := &http.Server{Addr: cmd.Addr, Handler: ext.Handler(), ReadHeaderTimeout: 10 * time.Second}
		return serveUntilDone(rt.ctx, srv.ListenAndServe, endStreams(ext, srv.Shutdown))
	}
	server := router.NewFiberAdapter()
	if err := gorouter.Register(gorouter.Config[*fiber.App]{
		Router:     server.Router(),
		Controller: ext.Controller(),
		API:        ext.Executor(),
		Broadcast:  ext.Broadcast(),
		BasePath:   cmd.BasePath,
	}); err != nil {
		return fmt.Errorf("refreshctl: register routes: %w", err)
	}
	return serveUntilDone(rt.ctx, func() error { return server.Serve(cmd.Addr) }, endStreams(ext, server.Shutdown))
}

// serveUntilDone runs serve until it fails or ctx ends, then calls shutdown
// with a bounded grace period.
func serveUntilDone(ctx context.Context, serve func() error, shutdown func(context.Context) error) error {
	errs := make(chan error, 1)
	go func() { errs <- serve() }()
	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		return shutdown(shutdownCtx)
	}
}

// endStreams closes event subscriptions first so open streams do not hold the shutdown.
func endStreams(ext *extension.Extension, shutdown func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		ext.Broadcast().Close()
		return shutdown(ctx)
	}
}

type refreshCmd struct {
	Host hostFlags `embed:""`
}

func (cmd *refreshCmd) Run(rt *runtime) error {
	ext, err := rt.newExtension(cmd.Host, nil, "", "")
	if err != nil {
		return err
	}
	if err := ext.Bootstrap(rt.ctx); err != nil {
		return err
	}
	sources, err := ext.Service().DataSources()
	if err != nil {
		return err
	}
	refreshErr := ext.Refresh(rt.ctx)
	ext.Close()
	if refreshErr != nil {
		return refreshErr
	}
	fmt.Fprintf(rt.out, "✓ Refreshed %d data sources on %s\n", sources.Len(), ext.Service().DashboardName())
	return nil
}

type settingsCmd struct {
	Get  settingsGetCmd  `cmd:"" help:"Print one setting."`
	Set  settingsSetCmd  `cmd:"" help:"Store and save one setting."`
	List settingsListCmd `cmd:"" help:"Print every stored setting."`
}

type settingsGetCmd struct {
	Key string `arg:"" help:"Setting key (e.g. settings-site)."`
}

func (cmd *settingsGetCmd) Run(rt *runtime) error {
	if !refresh.KnownKey(cmd.Key) {
		return fmt.Errorf("%w: %s", refresh.ErrUnknownSetting, cmd.Key)
	}
	store, err := rt.openStore()
	if err != nil {
		return err
	}
	fmt.Fprintln(rt.out, store.Get(cmd.Key))
	return nil
}

type settingsSetCmd struct {
	Key   string `arg:"" help:"Setting key (e.g. settings-site)."`
	Value string `arg:"" help:"New value. For settings-type use an option id."`
}

func (cmd *settingsSetCmd) Run(rt *runtime) error {
	store, err := rt.openStore()
	if err != nil {
		return err
	}
	form := refresh.NewSettingsForm(refresh.SettingsFormOptions{Settings: store, Logger: rt.logger})
	if cmd.Key == refresh.KeyType {
		err = form.SelectType(rt.ctx, cmd.Value)
	} else {
		err = form.UpdateField(rt.ctx, cmd.Key, cmd.Value)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(rt.out, "✓ Saved %s\n", cmd.Key)
	return nil
}

type settingsListCmd struct{}

func (cmd *settingsListCmd) Run(rt *runtime) error {
	store, err := rt.openStore()
	if err != nil {
		return err
	}
	return printSettings(rt.out, store)
}

func printSettings(out io.Writer, store refresh.Settings) error {
	for _, key := range refresh.AllKeys() {
		value := store.Get(key)
		if key == refresh.KeyPassword || key == refresh.KeyPAT {
			value = mask(value)
		}
		if _, err := fmt.Fprintf(out, "%s=%s\n", key, value); err != nil {
			return err
		}
	}
	return nil
}

func mask(value string) string {
	if value == "" {
		return ""
	}
	return "********"
}
