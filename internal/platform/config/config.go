package config

// Config is the root configuration shared by the telewatch binaries. Each
// process reads its own YAML file but they share one schema, so an agent
// config simply leaves the server/sensor sections at defaults.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
	Web    WebConfig    `yaml:"web"`
	Agent  AgentConfig  `yaml:"agent"`
	Sensor SensorConfig `yaml:"sensor"`
}

type ServerConfig struct {
	IP        string     `yaml:"ip"`
	Port      int        `yaml:"port"`
	PathPart1 string     `yaml:"path_part1"`
	PathPart2 string     `yaml:"path_part2"`
	Auth      AuthConfig `yaml:"auth"`
	Sink      SinkConfig `yaml:"sink"`
}

type AuthConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	// TokenTTLSeconds bounds how long an issued token stays valid.
	TokenTTLSeconds int `yaml:"token_ttl_seconds"`
	// SweepSeconds enables the background expiry sweep; 0 keeps eviction
	// purely lazy.
	SweepSeconds int `yaml:"sweep_seconds"`
}

type SinkConfig struct {
	Driver string          `yaml:"driver"`
	File   FileSinkConfig  `yaml:"file,omitempty"`
	SQLite SQLiteConfig    `yaml:"sqlite,omitempty"`
	Redis  RedisSinkConfig `yaml:"redis,omitempty"`
}

type FileSinkConfig struct {
	Path string `yaml:"path"`
}

type SQLiteConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisSinkConfig struct {
	Addr       string `yaml:"addr"`
	Username   string `yaml:"username,omitempty"`
	Password   string `yaml:"password,omitempty"`
	DB         int    `yaml:"db,omitempty"`
	Key        string `yaml:"key,omitempty"`
	MaxEntries int    `yaml:"max_entries,omitempty"`
}

type LogConfig struct {
	Level string `yaml:"log_level"`
	Dir   string `yaml:"log_dir"`
	File  string `yaml:"log_file"`
}

type WebConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type AgentConfig struct {
	ServerAddr      string   `yaml:"server_addr"`
	PathPart1       string   `yaml:"path_part1"`
	PathPart2       string   `yaml:"path_part2"`
	Username        string   `yaml:"username"`
	Password        string   `yaml:"password"`
	LogFiles        []string `yaml:"log_files"`
	PeriodSeconds   int      `yaml:"period_seconds"`
	TimeoutSeconds  int      `yaml:"timeout_seconds"`
	TokenTTLSeconds int      `yaml:"token_ttl_seconds"`
	// RotatePolicy is "always" (rotate after every cycle, matching the
	// field deployments) or "on_success" (rotate only after a confirmed
	// delivery, trading disk growth for no data loss).
	RotatePolicy string `yaml:"rotate_policy"`
}

type SensorConfig struct {
	ID            string `yaml:"id"`
	TargetAddr    string `yaml:"target_addr"`
	BindAddr      string `yaml:"bind_addr"`
	PathPart1     string `yaml:"path_part1"`
	PathPart2     string `yaml:"path_part2"`
	DataFile      string `yaml:"data_file"`
	LogFile       string `yaml:"log_file"`
	PeriodSeconds int    `yaml:"period_seconds"`
}
