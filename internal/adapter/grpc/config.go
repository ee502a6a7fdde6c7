package grpc

import "time"

type Config struct {
	Addr            string        `env:"GRPC_ADDR,default=:8080" validate:"required"`
	APIToken        string        `env:"API_TOKEN,default=dev-token" validate:"required"`
	RateLimitRPS    float64       `env:"RATE_LIMIT_RPS,default=50" validate:"gt=0"`
	RateLimitBurst  int           `env:"RATE_LIMIT_BURST,default=100" validate:"gt=0"`
	RateLimitIdle   time.Duration `env:"RATE_LIMIT_IDLE,default=10m" validate:"gt=0"`
	ShutdownTimeout time.Duration `env:"GRPC_SHUTDOWN_TIMEOUT,default=10s"`
}
