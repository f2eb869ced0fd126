// Command lutron-bridge classifies Lutron RadioRA 2 keypad button activity
// and publishes it to MQTT.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/sanity-io/litter"
	"golang.org/x/sync/errgroup"

	"github.com/sweeney/lutron-bridge/internal/bus"
	"github.com/sweeney/lutron-bridge/internal/config"
	"github.com/sweeney/lutron-bridge/internal/gpio"
	"github.com/sweeney/lutron-bridge/internal/logbook"
	"github.com/sweeney/lutron-bridge/internal/logging"
	"github.com/sweeney/lutron-bridge/internal/logic"
	"github.com/sweeney/lutron-bridge/internal/lutron"
	"github.com/sweeney/lutron-bridge/internal/mqtt"
	"github.com/sweeney/lutron-bridge/internal/status"
	"github.com/sweeney/lutron-bridge/internal/web"
)

var version = "dev"

const (
	fetchTimeout    = 30 * time.Second
	statusInterval  = time.Second
	shutdownTimeout = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "/etc/lutron-bridge/config.yaml", "Path to the YAML configuration file")
	printConfig := flag.Bool("print-config", false, "Print the effective configuration and exit")
	listButtons := flag.Bool("list-buttons", false, "Print the buttons found in the integration database and exit")

	flag.Parse()

	if err := run(*configPath, *printConfig, *listButtons, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, printConfig, listButtons bool, out io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if printConfig {
		fmt.Fprintln(out, litter.Sdump(cfg.Redacted()))
		return nil
	}

	log := logging.New(cfg.Logging, version)

	fetchCtx, cancelFetch := context.WithTimeout(context.Background(), fetchTimeout)
	buttons, err := lutron.FetchButtons(fetchCtx, &http.Client{}, cfg.LutronXMLURL())
	cancelFetch()
	if err != nil {
		return fmt.Errorf("load buttons: %w", err)
	}

	if listButtons {
		printButtons(out, buttons)
		return nil
	}

	lb, err := logbook.Open(cfg.Logbook.Path, cfg.Logbook.MaxEntries, logging.Component(log, "logbook"))
	if err != nil {
		return err
	}
	defer lb.Close()

	publisher, err := mqtt.NewRealPublisher(mqtt.Options{
		Broker:     cfg.MQTT.Broker,
		ClientID:   cfg.MQTT.ClientID,
		Username:   cfg.MQTT.Username,
		Password:   cfg.MQTT.Password,
		BufferSize: cfg.MQTT.BufferSize,
	}, logging.Component(log, "mqtt"))
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		Repeater:         cfg.LutronAddr(),
		Broker:           cfg.MQTT.Broker,
		HTTPAddr:         cfg.HTTP.Addr,
		EventName:        cfg.Buttons.EventName,
		HeartbeatMs:      cfg.Heartbeat.Milliseconds(),
		LongPressMs:      cfg.Buttons.LongPress.Milliseconds(),
		SuperLongPressMs: cfg.Buttons.SuperLongPress.Milliseconds(),
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	observers := []bus.Observer{tracker}
	var srv *web.Server
	if cfg.HTTP.Addr != "" {
		srv = web.New(cfg.HTTP.Addr, tracker, lb, logging.Component(log, "web"))
		observers = append(observers, srv)
	}
	sink := bus.New(publisher, observers...)

	buttonLog := logging.Component(log, "buttons")
	opts := logic.Options{
		EventName:      cfg.Buttons.EventName,
		LongPress:      cfg.Buttons.LongPress,
		SuperLongPress: cfg.Buttons.SuperLongPress,
		OnTimerError: func(b logic.Button, err error) {
			buttonLog.Error().Err(err).Str("button", b.FullID()).Msg("timed emission failed")
		},
	}

	conn := lutron.NewConn(lutron.Config{
		Addr:           cfg.LutronAddr(),
		Username:       cfg.Lutron.Username,
		Password:       cfg.Lutron.Password,
		ReconnectDelay: cfg.Lutron.ReconnectDelay,
	}, logging.Component(log, "lutron"))
	classifiers := wireButtons(conn, buttons, sink, lb, opts)

	if len(cfg.GPIO.Buttons) > 0 {
		lines := gpioLines(cfg.GPIO.Buttons)
		gpioClassifiers, handler := wireGPIO(lines, sink, lb, opts, buttonLog)
		watcher, err := gpio.NewRealWatcher(cfg.GPIO.Chip, cfg.GPIO.Debounce, lines, handler)
		if err != nil {
			return fmt.Errorf("init gpio: %w", err)
		}
		defer watcher.Close()
		classifiers = append(classifiers, gpioClassifiers...)
	}
	// Deferred after the publisher and logbook, so it runs before they close.
	defer stopClassifiers(classifiers)
	tracker.SetButtons(len(classifiers))

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startup := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startup); err != nil {
		log.Error().Err(err).Msg("failed to publish startup event")
	} else {
		log.Info().Msg("published startup event")
	}

	log.Info().
		Int("buttons", len(classifiers)).
		Str("repeater", cfg.LutronAddr()).
		Str("broker", cfg.MQTT.Broker).
		Dur("heartbeat", cfg.Heartbeat).
		Msg("started")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return conn.Run(gctx)
	})

	if srv != nil {
		g.Go(func() error {
			log.Info().Str("addr", cfg.HTTP.Addr).Msg("http status server listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			sctx, scancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer scancel()
			return srv.Shutdown(sctx)
		})
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	statusTicker := time.NewTicker(statusInterval)
	defer statusTicker.Stop()
	var heartbeat <-chan time.Time
	if cfg.Heartbeat > 0 {
		hb := time.NewTicker(cfg.Heartbeat)
		defer hb.Stop()
		heartbeat = hb.C
	}

	g.Go(func() error {
		defer cancel()
		return runLoop(gctx, loopDeps{
			publisher: publisher,
			mqtt:      publisher,
			lutron:    conn,
			tracker:   tracker,
			log:       log,
			now:       time.Now,
		}, statusTicker.C, heartbeat, sigCh)
	})

	return g.Wait()
}

// connStatus reports whether an upstream connection is active.
type connStatus interface {
	IsConnected() bool
}

type loopDeps struct {
	publisher mqtt.Publisher
	mqtt      connStatus
	lutron    connStatus
	tracker   *status.Tracker
	log       zerolog.Logger
	now       func() time.Time
}

// runLoop refreshes connection status, publishes heartbeats and publishes
// SHUTDOWN when a signal arrives or ctx is cancelled.
func runLoop(ctx context.Context, d loopDeps, tick, heartbeat <-chan time.Time, sig <-chan os.Signal) error {
	refresh := func() {
		d.tracker.SetMQTTConnected(d.mqtt.IsConnected())
		d.tracker.SetLutronConnected(d.lutron.IsConnected())
	}

	shutdown := func(reason string) {
		refresh()
		snap := d.tracker.Snapshot()
		event := mqtt.SystemEvent{
			Timestamp:  d.now(),
			Event:      "SHUTDOWN",
			Reason:     reason,
			Retained:   true,
			RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", reason),
		}
		if err := d.publisher.PublishSystem(event); err != nil {
			d.log.Error().Err(err).Msg("failed to publish shutdown event")
		} else {
			d.log.Info().Str("reason", reason).Msg("published shutdown event")
		}
	}

	for {
		select {
		case s := <-sig:
			d.log.Info().Stringer("signal", s).Msg("shutting down")
			shutdown(signalName(s))
			return nil

		case <-ctx.Done():
			d.log.Info().Msg("stopping")
			shutdown("STOPPED")
			return nil

		case <-tick:
			refresh()

		case <-heartbeat:
			refresh()
			if net := readNetworkInfo(); net != nil {
				d.tracker.SetNetwork(net)
			}
			snap := d.tracker.Snapshot()
			c := snap.Counts
			d.log.Info().
				Dur("uptime", snap.Uptime().Truncate(time.Second)).
				Int64("pressed", c.Pressed).
				Int64("released", c.Released).
				Int64("long_pressed", c.LongPressed).
				Int64("super_long_pressed", c.SuperLongPressed).
				Msg("heartbeat")

			hb := mqtt.SystemEvent{
				Timestamp:  d.now(),
				Event:      "HEARTBEAT",
				RawPayload: status.FormatStatusEvent(snap, "HEARTBEAT", ""),
			}
			if err := d.publisher.PublishSystem(hb); err != nil {
				d.log.Error().Err(err).Msg("heartbeat publish error")
			}
		}
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	default:
		return "UNKNOWN"
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
