package types

type Config struct {
	Environment     string `envconfig:"ENVIRONMENT" default:"development"`
	ServerPort      uint   `envconfig:"SERVER_PORT" default:"8080"`
	DatabaseURL     string `envconfig:"DATABASE_URL"`
	ReadTimeoutSec  uint   `envconfig:"READ_TIMEOUT_SEC" default:"10"`
	WriteTimeoutSec uint   `envconfig:"WRITE_TIMEOUT_SEC" default:"15"`

	// Device identity cookie
	DeviceCookieName   string `envconfig:"DEVICE_COOKIE_NAME" default:"locallink_device"`
	DeviceCookieMaxAge int    `envconfig:"DEVICE_COOKIE_MAX_AGE_SEC" default:"31536000"` // 1 year

	// Cookie encryption keys (base64 encoded)
	// openssl rand -base64 32
	// to generate values
	CookieHashKey  string `envconfig:"COOKIE_HASH_KEY"`  // 32 or 64 bytes
	CookieBlockKey string `envconfig:"COOKIE_BLOCK_KEY"` // 16, 24, or 32 bytes

	// Anti-spam: creations allowed per device per trailing hour
	RateLimitPerHour int `envconfig:"RATE_LIMIT_PER_HOUR" default:"5"`
}
