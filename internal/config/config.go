// Package config loads the externally-adjustable options for the
// control core: environment variables first, then an optional YAML
// file for fleet-wide defaults, then CLI flags, each layer overriding
// the one before it.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// PIDGains mirrors the tuned Kp/Ki/Kd/saturation tuple for one axis.
type PIDGains struct {
	Kp  float64 `yaml:"kp"`
	Ki  float64 `yaml:"ki"`
	Kd  float64 `yaml:"kd"`
	Sat float64 `yaml:"sat"`
}

// Config holds every recognized tuning option plus the ambient
// transport/telemetry knobs this implementation adds.
type Config struct {
	TruckID         int  `yaml:"truck_id"`
	EnableMessaging bool `yaml:"enable_messaging"`
	AllowReverse    bool `yaml:"allow_reverse"`

	FilterWindow int `yaml:"filter_window"`

	PeriodSim    time.Duration `yaml:"period_sim"`
	PeriodSensor time.Duration `yaml:"period_sensor"`
	PeriodLogic  time.Duration `yaml:"period_logic"`
	PeriodNav    time.Duration `yaml:"period_nav"`
	PeriodRoute  time.Duration `yaml:"period_route"`
	PeriodFault  time.Duration `yaml:"period_fault"`
	PeriodLog    time.Duration `yaml:"period_log"`

	PIDLinear  PIDGains `yaml:"pid_linear"`
	PIDAngular PIDGains `yaml:"pid_angular"`

	Tau              float64 `yaml:"tau"`
	TempWarn         float64 `yaml:"temp_warn"`
	TempCrit         float64 `yaml:"temp_crit"`
	FaultProbability float64 `yaml:"fault_probability"`
	WaypointAccept   float64 `yaml:"waypoint_accept_radius"`
	CruiseVelocity   float64 `yaml:"cruise_velocity"`

	RingCapacity  int `yaml:"ring_capacity"`
	CommandQueueN int `yaml:"command_queue_capacity"`

	BrokerURL  string `yaml:"broker_url"`
	MQTTUser   string `yaml:"mqtt_user"`
	MQTTPass   string `yaml:"mqtt_pass"`
	CSVPath    string `yaml:"csv_path"`
	StatusAddr string `yaml:"status_addr"`

	ConfigFile string `yaml:"-"`
}

// Default returns the factory-tuned defaults.
func Default() Config {
	return Config{
		TruckID:      1,
		FilterWindow: 5,

		PeriodSim:    50 * time.Millisecond,
		PeriodSensor: 100 * time.Millisecond,
		PeriodLogic:  100 * time.Millisecond,
		PeriodNav:    50 * time.Millisecond,
		PeriodRoute:  500 * time.Millisecond,
		PeriodFault:  500 * time.Millisecond,
		PeriodLog:    1 * time.Second,

		PIDLinear:  PIDGains{Kp: 0.5, Ki: 0.1, Kd: 0.05, Sat: 10},
		PIDAngular: PIDGains{Kp: 1.0, Ki: 0.05, Kd: 0.2, Sat: 1},

		Tau:              0.5,
		TempWarn:         95,
		TempCrit:         120,
		FaultProbability: 1e-3,
		WaypointAccept:   2.0,
		CruiseVelocity:   5.0,

		RingCapacity:  100,
		CommandQueueN: 32,

		BrokerURL:  "tcp://localhost:1883",
		CSVPath:    "",
		StatusAddr: "",
	}
}

// Load applies env vars (TRUCKCTL_* prefix), then an optional YAML file
// named by --config or TRUCKCTL_CONFIG, then CLI flags from args, in
// that increasing order of precedence.
func Load(args []string) (Config, error) {
	cfg := Default()

	applyEnv(&cfg)

	fs := pflag.NewFlagSet("truckctl", pflag.ContinueOnError)
	configFile := fs.String("config", envOr("TRUCKCTL_CONFIG", ""), "path to YAML config file")
	truckID := fs.Int("truck-id", cfg.TruckID, "truck identifier")
	enableMessaging := fs.Bool("messaging", cfg.EnableMessaging, "enable the MQTT messaging adapter")
	allowReverse := fs.Bool("allow-reverse", cfg.AllowReverse, "permit negative velocity setpoints")
	brokerURL := fs.String("broker-url", cfg.BrokerURL, "MQTT broker URL")
	csvPath := fs.String("csv-path", cfg.CSVPath, "telemetry CSV sink path")
	statusAddr := fs.String("status-addr", cfg.StatusAddr, "websocket status endpoint listen address, empty disables it")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	if *configFile != "" {
		if err := applyYAMLFile(&cfg, *configFile); err != nil {
			return cfg, err
		}
	}

	fs.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "truck-id":
			cfg.TruckID = *truckID
		case "messaging":
			cfg.EnableMessaging = *enableMessaging
		case "allow-reverse":
			cfg.AllowReverse = *allowReverse
		case "broker-url":
			cfg.BrokerURL = *brokerURL
		case "csv-path":
			cfg.CSVPath = *csvPath
		case "status-addr":
			cfg.StatusAddr = *statusAddr
		}
	})
	cfg.ConfigFile = *configFile

	return cfg, nil
}

func applyYAMLFile(cfg *Config, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v, ok := os.LookupEnv("TRUCKCTL_TRUCK_ID"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.TruckID = n
		}
	}
	if v, ok := os.LookupEnv("TRUCKCTL_MESSAGING"); ok {
		cfg.EnableMessaging = v == "1" || v == "true"
	}
	if v, ok := os.LookupEnv("TRUCKCTL_BROKER_URL"); ok {
		cfg.BrokerURL = v
	}
	if v, ok := os.LookupEnv("TRUCKCTL_MQTT_USER"); ok {
		cfg.MQTTUser = v
	}
	if v, ok := os.LookupEnv("TRUCKCTL_MQTT_PASS"); ok {
		cfg.MQTTPass = v
	}
	if v, ok := os.LookupEnv("TRUCKCTL_CSV_PATH"); ok {
		cfg.CSVPath = v
	}
	if v, ok := os.LookupEnv("TRUCKCTL_STATUS_ADDR"); ok {
		cfg.StatusAddr = v
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
