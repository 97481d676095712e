package config

type Config struct {
	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`
	NATSURL  string `mapstructure:"nats_url"`

	DatabaseDSN string `mapstructure:"database_dsn"`
	JWTSecret   string `mapstructure:"jwt_secret"`

	// CryptoSecret keys at-rest encryption of message content. Empty disables
	// it and messages are stored as plain text.
	CryptoSecret string `mapstructure:"crypto_secret"`

	// Policy knobs. Zero values fall back to the defaults below.
	ActivityWindowSeconds int `mapstructure:"activity_window_seconds"`
	SampleIntervalSeconds int `mapstructure:"sample_interval_seconds"`
	SampleWindow          int `mapstructure:"sample_window"`
}

// WithDefaults fills zero-valued policy fields: rooms count as active for 60s
// after their last message, resources are sampled every 60s, and the last 60
// samples are retained.
func (c Config) WithDefaults() Config {
	if c.ActivityWindowSeconds == 0 {
		c.ActivityWindowSeconds = 60
	}
	if c.SampleIntervalSeconds == 0 {
		c.SampleIntervalSeconds = 60
	}
	if c.SampleWindow == 0 {
		c.SampleWindow = 60
	}
	return c
}
