package domain

// Config holds the complete Lanewatch configuration.
type Config struct {
	// Server settings
	Server ServerConfig `json:"server"`

	// DataDir is the directory holding the seven CSV tables.
	DataDir string `json:"dataDir"`

	// Component configurations
	Cache CacheConfig `json:"cache"`
	Model ModelConfig `json:"model"`

	// Observability
	Logging LoggingConfig `json:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	ReadTimeout  int    `json:"readTimeout"`  // seconds
	WriteTimeout int    `json:"writeTimeout"` // seconds
}

// ModelConfig controls the predictive-model collaborators. The seed is a
// configuration parameter rather than an embedded literal so tests can
// vary it.
type ModelConfig struct {
	Seed         int64   `json:"seed"`
	TestFraction float64 `json:"testFraction"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json, text
}

// DefaultConfig returns the default configuration: local data directory,
// in-memory result cache, fixed model seed.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30,
			WriteTimeout: 30,
		},
		DataDir: "./data",
		Cache: CacheConfig{
			Type:         "memory",
			LocalMaxSize: 256,
			LocalTTL:     300, // seconds
		},
		Model: ModelConfig{
			Seed:         42,
			TestFraction: 0.2,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
