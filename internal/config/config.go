package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server  ServerConfig
	Redis   RedisConfig
	Backend BackendConfig
	Payment PaymentConfig
	Session SessionConfig
	Public  PublicConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// BackendConfig points at the resource API that owns users, offers,
// bookings and tickets.
type BackendConfig struct {
	BaseURL string
	Timeout time.Duration
}

type PaymentConfig struct {
	Delay time.Duration
}

type SessionConfig struct {
	TTL time.Duration
}

// PublicConfig carries the externally reachable base URL embedded in
// ticket QR codes.
type PublicConfig struct {
	BaseURL string
}

func New() (*Config, error) {
	const op = "config.New"

	_ = godotenv.Load()

	serverHost := os.Getenv("SERVER_HOST")
	if serverHost == "" {
		serverHost = "localhost"
	}

	serverPortStr := os.Getenv("SERVER_PORT")
	if serverPortStr == "" {
		serverPortStr = "8080"
	}

	serverPort, err := strconv.Atoi(serverPortStr)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid SERVER_PORT: %w", op, err)
	}

	serverCfg := ServerConfig{
		Host: serverHost,
		Port: serverPort,
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	redisDB := 0
	if s := os.Getenv("REDIS_DB"); s != "" {
		redisDB, err = strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid REDIS_DB: %w", op, err)
		}
	}

	redisCfg := RedisConfig{
		Addr:     redisAddr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       redisDB,
	}

	apiBaseURL := os.Getenv("API_BASE_URL")
	if apiBaseURL == "" {
		return nil, fmt.Errorf("%s: missing API_BASE_URL", op)
	}

	apiTimeout := 10 * time.Second
	if s := os.Getenv("API_TIMEOUT_SEC"); s != "" {
		sec, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid API_TIMEOUT_SEC: %w", op, err)
		}
		apiTimeout = time.Duration(sec) * time.Second
	}

	backendCfg := BackendConfig{
		BaseURL: apiBaseURL,
		Timeout: apiTimeout,
	}

	paymentDelay := 1500 * time.Millisecond
	if s := os.Getenv("PAYMENT_DELAY_MS"); s != "" {
		ms, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid PAYMENT_DELAY_MS: %w", op, err)
		}
		paymentDelay = time.Duration(ms) * time.Millisecond
	}

	sessionTTL := 30 * time.Minute
	if s := os.Getenv("SESSION_TTL_MIN"); s != "" {
		min, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid SESSION_TTL_MIN: %w", op, err)
		}
		sessionTTL = time.Duration(min) * time.Minute
	}

	publicBaseURL := os.Getenv("PUBLIC_BASE_URL")
	if publicBaseURL == "" {
		publicBaseURL = fmt.Sprintf("http://%s:%d", serverHost, serverPort)
	}

	return &Config{
		Server:  serverCfg,
		Redis:   redisCfg,
		Backend: backendCfg,
		Payment: PaymentConfig{Delay: paymentDelay},
		Session: SessionConfig{TTL: sessionTTL},
		Public:  PublicConfig{BaseURL: publicBaseURL},
	}, nil
}
