// Command pushbutton debounces a GPIO pushbutton and publishes presses and
// releases to MQTT.
package main

import (
	"fmt"
	"os"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/sweeney/pushbutton/internal/config"
)

const defaultConfigFile = "/etc/pushbutton/pushbutton.yaml"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func newApp() *cli.App {
	app := &cli.App{
		Name:  "pushbutton",
		Usage: "debounce a GPIO pushbutton and publish presses to MQTT",
		UsageText: "pushbutton [global options] [run|state|wait]" +
			"\n\nEXAMPLE:" +
			"\n\tpushbutton --config /etc/pushbutton/pushbutton.yaml run" +
			"\n\tpushbutton --pin 27 --default-state low state",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Value: defaultConfigFile, Usage: "load configuration from `FILE` (ignored if missing and not set explicitly)"},
			&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Usage: "`LEVEL` (panic|fatal|error|warn|info|debug|trace)"},
			&cli.IntFlag{Name: "pin", Usage: "BCM pin number of the button"},
			&cli.BoolFlag{Name: "pull-up", Usage: "enable the internal pull-up resistor"},
			&cli.StringFlag{Name: "default-state", Usage: "pin level while released (high|low)"},
			&cli.StringFlag{Name: "backend", Usage: "GPIO driver (gpiocdev|periph)"},
			&cli.StringFlag{Name: "chip", Usage: "GPIO character device for the gpiocdev backend"},
			&cli.StringFlag{Name: "broker", Usage: `MQTT broker address ("" disables MQTT)`},
			&cli.StringFlag{Name: "topic", Usage: "MQTT base topic"},
			&cli.StringFlag{Name: "http", Usage: `HTTP status address ("" disables)`},
			&cli.DurationFlag{Name: "poll", Usage: "GPIO polling interval"},
			&cli.DurationFlag{Name: "heartbeat", Usage: "heartbeat interval in whole seconds (0 to disable)"},
		},
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "poll the button and publish events (default)",
				Action: withConfig(runDaemon),
			},
			{
				Name:   "state",
				Usage:  "print whether the button is pressed right now and exit",
				Action: withConfig(printState),
			},
			{
				Name:   "wait",
				Usage:  "block until the button is pressed and released, then exit",
				Action: withConfig(waitForClick),
			},
		},
		Action: withConfig(runDaemon),
	}

	sort.Sort(cli.FlagsByName(app.Flags))
	return app
}

// withConfig loads the config file, applies flag overrides and sets up
// logging before calling fn.
func withConfig(fn func(*config.Config) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		if err := cfg.SetupLogging(); err != nil {
			return err
		}
		if cfg.Log.Output != os.Stderr && cfg.Log.Output != os.Stdout {
			defer cfg.Log.Output.Close()
		}
		return fn(cfg)
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.New()

	path := c.String("config")
	if !c.IsSet("config") {
		if _, err := os.Stat(path); err != nil {
			path = ""
		}
	}
	if err := cfg.Load(path); err != nil {
		return nil, err
	}

	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	if c.IsSet("pin") {
		cfg.Button.Pin = c.Int("pin")
	}
	if c.IsSet("pull-up") {
		cfg.Button.PullUp = c.Bool("pull-up")
	}
	if c.IsSet("default-state") {
		cfg.Button.DefaultState = c.String("default-state")
	}
	if c.IsSet("backend") {
		cfg.GPIO.Backend = c.String("backend")
	}
	if c.IsSet("chip") {
		cfg.GPIO.Chip = c.String("chip")
	}
	if c.IsSet("broker") {
		cfg.MQTT.Broker = c.String("broker")
	}
	if c.IsSet("topic") {
		cfg.MQTT.Topic = c.String("topic")
	}
	if c.IsSet("http") {
		cfg.HTTP.Addr = c.String("http")
	}
	if c.IsSet("poll") {
		d := c.Duration("poll")
		if d%time.Millisecond != 0 {
			return nil, fmt.Errorf("poll must be a whole number of milliseconds, got %v", d)
		}
		cfg.PollMs = int(d / time.Millisecond)
	}
	if c.IsSet("heartbeat") {
		d := c.Duration("heartbeat")
		if d%time.Second != 0 {
			return nil, fmt.Errorf("heartbeat must be a whole number of seconds, got %v", d)
		}
		cfg.HeartbeatS = int(d / time.Second)
	}

	if err := cfg.Finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}
