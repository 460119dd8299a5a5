package internal

import "time"

type Config struct {
	Host                 string        `env:"HOST"`
	Port                 int           `env:"PORT,required=true"`
	BadgerFilepath       string        `env:"BADGER_FILEPATH,required=true"`
	LogLevel             string        `env:"LOG_LEVEL,required=true"`
	EventBufferSize      int           `env:"EVENT_BUFFER_SIZE,required=true"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,required=true"`
	DeliveryTimeout      time.Duration `env:"DELIVERY_TIMEOUT,required=true"`
	TypingTTL            time.Duration `env:"TYPING_TTL"`
	TypingSweepInterval  time.Duration `env:"TYPING_SWEEP_INTERVAL"`
	TelemetryInterval    time.Duration `env:"TELEMETRY_INTERVAL"`
	MaxContentLength     int           `env:"MAX_CONTENT_LENGTH,required=true"`
	CensoredWordsPath    string        `env:"CENSORED_WORDS_PATH"`
	CensoredChar         string        `env:"CENSORED_CHAR"`
	AllowedOrigins       string        `env:"ALLOWED_ORIGINS"`
	JWTSecret            string        `env:"JWT_SECRET,required=true"`
	RateRPS              float64       `env:"RATE_RPS"`
	RateBurst            int           `env:"RATE_BURST"`
}
