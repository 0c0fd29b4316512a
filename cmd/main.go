package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/viper"

	"dialbed/internal/device"
	"dialbed/internal/handlers"
	"dialbed/internal/input/hw"
	"dialbed/internal/logger"
	"dialbed/internal/mqtt"
	"dialbed/internal/nav"
	"dialbed/internal/recon"
	"dialbed/internal/repository"
	"dialbed/internal/repository/db"
	"dialbed/internal/server"
	"dialbed/internal/service"
	"dialbed/internal/setpoint"
	"dialbed/internal/wifi"
)

func main() {
	log := logger.Get(logger.InfoLevel)

	if err := loadConfig(); err != nil {
		log.Fatalw("error reading config", "err", err)
	}

	conn, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repos := repository.NewRepository(conn)
	model := setpoint.New()
	if s, lerr := repos.Settings.Load(ctx); lerr != nil {
		log.Warnw("load settings failed; starting from defaults", "err", lerr)
	} else {
		model.Restore(s)
	}

	services, zonesSvc, err := service.NewService(repos, model, pairingConfig(), log)
	if err != nil {
		log.Fatalw("failed to init services", "err", err)
	}

	startTelemetry(ctx, model, log)
	startReconciliation(ctx, model, repos, log)
	startDeviceLoop(ctx, model, zonesSvc, repos, log)

	srv := &server.Server{}
	apiHandler := handlers.NewHandler(services, log)
	runHTTPServer(srv, viper.GetString("port"), apiHandler, log)

	waitForShutdown(cancel, srv, log)
}

func loadConfig() error {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")
	viper.SetDefault("remote.request_timeout", recon.DefaultRequestTimeout)
	viper.SetDefault("mqtt.client_id", "dialbed")
	viper.SetDefault("gpio.chip", "gpiochip0")
	return viper.ReadInConfig()
}

func openDB(log *logger.Logger) (*sql.DB, error) {
	path := viper.GetString("db.path")
	if path == "" {
		log.Infow("db.path not set in config; using default file", "default", "dialbed.db")
		path = "dialbed.db"
	}
	return db.Open(path)
}

func pairingConfig() service.PairingConfig {
	return service.PairingConfig{
		PIN:        viper.GetString("pairing.pin"),
		SigningKey: viper.GetString("pairing.signing_key"),
		TokenTTL:   viper.GetDuration("pairing.token_ttl"),
	}
}

// startTelemetry wires the MQTT pump when a broker is configured.
func startTelemetry(ctx context.Context, model *setpoint.Model, log *logger.Logger) {
	broker := viper.GetString("mqtt.broker")
	if broker == "" {
		log.Infow("mqtt.broker not set; telemetry disabled")
		return
	}

	pub, err := mqtt.NewRealPublisher(broker, viper.GetString("mqtt.client_id"))
	if err != nil {
		log.Errorw("mqtt connect failed; telemetry disabled", "broker", broker, "err", err)
		return
	}

	pump := mqtt.NewPump(model, pub, log.Named("mqtt"))
	model.OnChange(pump.Notify)
	go func() {
		pump.Run(ctx)
		if cerr := pub.Close(); cerr != nil {
			log.Warnw("mqtt close failed", "err", cerr)
		}
	}()
}

func startReconciliation(ctx context.Context, model *setpoint.Model, repos *repository.Repository, log *logger.Logger) {
	client := recon.NewClient(viper.GetDuration("remote.request_timeout"), model.Side)
	engine := recon.New(model, client, repos.Events, log.Named("recon"), recon.Config{
		Debounce:     viper.GetDuration("remote.debounce"),
		Cooldown:     viper.GetDuration("remote.cooldown"),
		BaseInterval: viper.GetDuration("remote.base_interval"),
		MaxInterval:  viper.GetDuration("remote.max_interval"),
	})
	go engine.Run(ctx)
}

func startDeviceLoop(ctx context.Context, model *setpoint.Model, store nav.SettingsStore, repos *repository.Repository, log *logger.Logger) {
	src := openInputSource(log)
	bright := device.NewBrightness(backlight(log), log.Named("display"))
	machine := nav.New(model, store, wifiManager(), bright, repos.Events, log.Named("nav"))
	loop := device.NewLoop(src, machine, bright, log.Named("device"))
	go loop.Run(ctx)
}

// openInputSource prefers the GPIO-backed encoder; without one the device
// loop idles on a blank fake and the HTTP surface stays fully usable.
func openInputSource(log *logger.Logger) hw.Source {
	src, err := hw.NewEncoderSource(
		viper.GetString("gpio.chip"),
		viper.GetInt("gpio.pin_a"),
		viper.GetInt("gpio.pin_b"),
		viper.GetInt("gpio.pin_btn"),
	)
	if err != nil {
		log.Warnw("gpio input unavailable; running headless", "err", err)
		return hw.NewFakeSource(nil)
	}
	return src
}

func wifiManager() wifi.Manager {
	return wifi.Unsupported{}
}

// backlight returns the brightness sink. Without a panel driver the level
// changes are only logged.
func backlight(log *logger.Logger) device.Backlight {
	return backlightLogger{log: log.Named("backlight")}
}

type backlightLogger struct {
	log *logger.Logger
}

func (b backlightLogger) SetBrightness(level uint8) error {
	b.log.Debugw("set brightness", "level", level)
	return nil
}

func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		if err := srv.Run(port, handler.InitRoutes()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down...")

	cancel()

	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
