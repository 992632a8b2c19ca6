package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sweeney/pushbutton/internal/button"
	"github.com/sweeney/pushbutton/internal/config"
	"github.com/sweeney/pushbutton/internal/gpio"
	"github.com/sweeney/pushbutton/internal/logic"
	"github.com/sweeney/pushbutton/internal/mqtt"
	"github.com/sweeney/pushbutton/internal/status"
	"github.com/sweeney/pushbutton/internal/web"
)

// openButton opens the configured GPIO backend and wraps it in a Button.
func openButton(cfg *config.Config) (*button.Button, gpio.Input, error) {
	in, err := gpio.Open(cfg.GPIO.Backend, cfg.GPIO.Chip)
	if err != nil {
		return nil, nil, fmt.Errorf("init gpio: %w", err)
	}
	return button.New(in, button.NewSystemClock(), cfg.ButtonConfig()), in, nil
}

func printState(cfg *config.Config) error {
	btn, in, err := openButton(cfg)
	if err != nil {
		return err
	}
	defer in.Close()

	pressed := btn.IsPressed()
	if err := in.Err(); err != nil {
		return fmt.Errorf("read gpio: %w", err)
	}
	fmt.Printf("pin %d: %s\n", btn.Pin(), logic.StateOf(pressed))
	return nil
}

func waitForClick(cfg *config.Config) error {
	btn, in, err := openButton(cfg)
	if err != nil {
		return err
	}
	defer in.Close()

	log.Infof("waiting for a press and release on pin %d", btn.Pin())
	btn.WaitForButton()
	fmt.Println("clicked")
	return nil
}

func runDaemon(cfg *config.Config) error {
	btn, in, err := openButton(cfg)
	if err != nil {
		return err
	}
	defer in.Close()

	// Configure the pin before anything is published so a busy or missing
	// line fails at startup.
	btn.IsPressed()
	if err := in.Err(); err != nil {
		return fmt.Errorf("read gpio: %w", err)
	}

	var publisher mqtt.Publisher = nopPublisher{}
	var mqttStatus mqtt.ConnectionStatus
	if cfg.MQTT.Broker != "" {
		p, err := mqtt.NewRealPublisher(mqtt.Options{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Topic:    cfg.MQTT.Topic,
		})
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		defer p.Close()
		publisher, mqttStatus = p, p
	}

	bc := cfg.ButtonConfig()
	tracker := status.NewTracker(time.Now(), status.Config{
		Pin:          bc.Pin,
		PullUp:       bc.PullUp,
		DefaultState: bc.DefaultState.String(),
		Backend:      cfg.GPIO.Backend,
		PollMs:       cfg.Poll.Milliseconds(),
		DebounceMs:   int64(logic.DebounceInterval),
		HeartbeatMs:  cfg.Heartbeat.Milliseconds(),
		Broker:       cfg.MQTT.Broker,
		HTTPAddr:     cfg.HTTP.Addr,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}
	if mqttStatus != nil {
		tracker.SetMQTTConnected(mqttStatus.IsConnected())
	}

	// Publish startup event with full status snapshot
	startup := mqtt.SystemEvent{
		Timestamp:  time.Now(),
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(tracker.Snapshot(), "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startup); err != nil {
		log.Warnf("failed to publish startup event: %v", err)
	} else {
		log.Infof("published startup event")
	}

	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Errorf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Infof("http status server listening on %s", cfg.HTTP.Addr)
	}

	log.Infof("started: pin=%d pull-up=%v idle=%s backend=%s poll=%v broker=%s heartbeat=%v",
		bc.Pin, bc.PullUp, bc.DefaultState, cfg.GPIO.Backend, cfg.Poll, cfg.MQTT.Broker, cfg.Heartbeat)

	ticker := time.NewTicker(cfg.Poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	return runLoop(btn, in, publisher, mqttStatus, tracker, cfg.Heartbeat, time.Now, ticker.C, sigCh)
}

// runLoop polls the button on every tick until a signal arrives.
// Each tick feeds one sample to each debounce machine. It fails fast if the
// first read of the pin left an error on in, since a pin that never
// configured reads a fixed level and would never produce an event.
func runLoop(btn *button.Button, in gpio.Input, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	hb := logic.NewHeartbeat(now())
	var counts logic.EventCounts
	state := logic.StateOf(btn.IsPressed())
	if err := in.Err(); err != nil {
		return fmt.Errorf("read gpio: %w", err)
	}

	refresh := func() {
		if tracker == nil {
			return
		}
		press, release := btn.Phases()
		tracker.Update(state, press, release, counts)
		if mqttStatus != nil {
			tracker.SetMQTTConnected(mqttStatus.IsConnected())
		}
	}
	refresh()

	emit := func(t time.Time, typ logic.EventType) {
		counts.Count(typ)
		event := logic.Event{Timestamp: t, Type: typ, Pin: btn.Pin(), State: state}
		log.Infof("event: %s (pin %d)", typ, event.Pin)
		if tracker != nil {
			tracker.RecordEvent(event)
		}
		if err := publisher.Publish(event); err != nil {
			// Don't crash on publish failure
			log.Warnf("publish error: %v", err)
		}
	}

	for {
		select {
		case s := <-sig:
			log.Infof("received %v, shutting down", s)
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName(s),
				Retained:  true,
			}
			if tracker != nil {
				refresh()
				event.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "SHUTDOWN", event.Reason)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Warnf("failed to publish shutdown event: %v", err)
			} else {
				log.Infof("published shutdown event")
			}
			return nil

		case <-tick:
			t := now()
			if btn.GetSingleDebouncedPress() {
				state = logic.StatePressed
				emit(t, logic.EventPress)
			}
			if btn.GetSingleDebouncedRelease() {
				state = logic.StateReleased
				emit(t, logic.EventRelease)
			}

			if hbData := hb.Check(t, heartbeat, counts); hbData != nil {
				log.Infof("heartbeat: uptime=%v presses=%d releases=%d",
					hbData.Uptime, hbData.Counts.Presses, hbData.Counts.Releases)

				hbEvent := mqtt.SystemEvent{
					Timestamp: hbData.Timestamp,
					Event:     "HEARTBEAT",
				}
				if tracker != nil {
					// Refresh network info for heartbeat
					if net := readNetworkInfo(); net != nil {
						tracker.SetNetwork(net)
					}
					refresh()
					hbEvent.RawPayload = status.FormatStatusEvent(tracker.Snapshot(), "HEARTBEAT", "")
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Warnf("heartbeat publish error: %v", err)
				}
			}

			refresh()
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

// nopPublisher is used when MQTT is disabled.
type nopPublisher struct{}

func (nopPublisher) Publish(logic.Event) error            { return nil }
func (nopPublisher) PublishSystem(mqtt.SystemEvent) error { return nil }
func (nopPublisher) Close() error                         { return nil }

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
	s := strings.TrimSpace(os.Getenv(envNetworkStatus))
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
