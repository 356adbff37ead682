package main

import "time"

// appConfig selects the channel layer and tunes delivery. When RedisURL is
// set the Redis layer is used so several chatserver processes share rooms;
// otherwise the in-memory layer serves a single process.
type appConfig struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	RedisURL string `env:"REDIS_URL" envDefault:""`

	ChannelCapacity int           `env:"CHANNEL_CAPACITY" envDefault:"100"`
	MessageExpiry   time.Duration `env:"MESSAGE_EXPIRY" envDefault:"1m"`
}
