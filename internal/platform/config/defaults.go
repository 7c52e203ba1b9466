package config

// Default returns the configuration used when a YAML file omits a section.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			IP:        "0.0.0.0",
			Port:      5683,
			PathPart1: "data",
			PathPart2: "logs",
			Auth: AuthConfig{
				CredentialsFile: "credentials.txt",
				TokenTTLSeconds: 3600,
				SweepSeconds:    0,
			},
			Sink: SinkConfig{
				Driver: "file",
				File:   FileSinkConfig{Path: "coap_logging.txt"},
				Redis:  RedisSinkConfig{Key: "telewatch:records"},
			},
		},
		Log: LogConfig{
			Level: "info",
			Dir:   "logs",
			File:  "telewatch.log",
		},
		Web: WebConfig{
			Enabled: false,
			Port:    8080,
		},
		Agent: AgentConfig{
			ServerAddr:      "127.0.0.1:5683",
			PathPart1:       "data",
			PathPart2:       "logs",
			LogFiles:        nil,
			PeriodSeconds:   15,
			TimeoutSeconds:  10,
			TokenTTLSeconds: 3600,
			RotatePolicy:    RotateAlways,
		},
		Sensor: SensorConfig{
			ID:            "sensor-1",
			TargetAddr:    "127.0.0.1:5684",
			BindAddr:      "0.0.0.0:5684",
			PathPart1:     "sensor",
			PathPart2:     "data",
			DataFile:      "data/sensor_data.json",
			LogFile:       "data/sensor_events.log",
			PeriodSeconds: 15,
		},
	}
}

// Rotate policy values accepted by AgentConfig.RotatePolicy.
const (
	RotateAlways    = "always"
	RotateOnSuccess = "on_success"
)
