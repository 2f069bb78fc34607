// config реализует конфигурацию social-client: загрузка из YAML/ENV с предсказуемым приоритетом.
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config корневая конфигурация клиента.
// Приоритет источников:
//  1. явный путь, переданный в MustLoad/Load;
//  2. переменная окружения CONFIG_PATH;
//  3. файл ./local.yaml из рабочей директории;
//  4. переменные окружения.
type Config struct {
	Env        string           `yaml:"env" env:"ENV" env-default:"local"`
	HTTP       HTTPConfig       `yaml:"http"`
	Gateway    GatewayConfig    `yaml:"gateway"`
	Realtime   RealtimeConfig   `yaml:"realtime"`
	Presence   PresenceConfig   `yaml:"presence"`
	Reconciler ReconcilerConfig `yaml:"reconciler"`
	Auth       AuthConfig       `yaml:"auth"`
	Timeouts   TimeoutConfig    `yaml:"timeouts"`
}

// TimeoutConfig общий дедлайн обработки запроса локального API.
type TimeoutConfig struct {
	Service time.Duration `yaml:"service" env:"SERVICE_TIMEOUT" env-default:"10s"`
}

// HTTPConfig локальный управляющий API (health/metrics/команды UI-оболочки).
type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"127.0.0.1"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"50095"`
}

// Addr возвращает адрес в формате host:port.
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, h.Port)
}

// GatewayConfig REST API бэкенда.
type GatewayConfig struct {
	BaseURL   string        `yaml:"base_url" env:"GATEWAY_BASE_URL" env-required:"true"`
	Timeout   time.Duration `yaml:"timeout" env:"GATEWAY_TIMEOUT" env-default:"10s"`
	UserAgent string        `yaml:"user_agent" env:"GATEWAY_USER_AGENT" env-default:"social-client"`
}

// RealtimeConfig сокет присутствия и заявок в друзья.
// Реконнект: экспоненциальная задержка с джиттером от ReconnectInitial до ReconnectMax,
// число попыток не ограничено.
type RealtimeConfig struct {
	URL                 string        `yaml:"url" env:"REALTIME_URL" env-required:"true"`
	HandshakeTimeout    time.Duration `yaml:"handshake_timeout" env:"REALTIME_HANDSHAKE_TIMEOUT" env-default:"10s"`
	ReconnectInitial    time.Duration `yaml:"reconnect_initial" env:"REALTIME_RECONNECT_INITIAL" env-default:"1s"`
	ReconnectMax        time.Duration `yaml:"reconnect_max" env:"REALTIME_RECONNECT_MAX" env-default:"60s"`
	ReconnectMultiplier float64       `yaml:"reconnect_multiplier" env:"REALTIME_RECONNECT_MULTIPLIER" env-default:"2"`
	ReconnectJitter     float64       `yaml:"reconnect_jitter" env:"REALTIME_RECONNECT_JITTER" env-default:"0.5"`
}

// PresenceConfig периодичность heartbeat.
type PresenceConfig struct {
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval" env:"PRESENCE_HEARTBEAT_INTERVAL" env-default:"30s"`
}

// ReconcilerConfig таймаут одного запроса переключения.
type ReconcilerConfig struct {
	RequestTimeout time.Duration `yaml:"request_timeout" env:"RECONCILER_REQUEST_TIMEOUT" env-default:"15s"`
}

// AuthConfig начальный токен; в рабочем приложении его подставляет Auth-слой.
type AuthConfig struct {
	Token string `yaml:"token" env:"AUTH_TOKEN"`
}

// MustLoad обёртка над Load с panic при ошибке.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

// Load загружает конфигурацию по приоритету:
// 1) явный путь; 2) CONFIG_PATH; 3) ./local.yaml; 4) ENV.
// После чтения файла накладываем ENV-переменные поверх значений из YAML.
func Load(path string) (*Config, error) {
	var cfg Config

	readFile := func(p string) (*Config, error) {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		return &cfg, nil
	}

	var (
		c   *Config
		err error
	)

	switch {
	case path != "":
		c, err = readFile(path)
	case os.Getenv("CONFIG_PATH") != "":
		c, err = readFile(os.Getenv("CONFIG_PATH"))
	default:
		if _, statErr := os.Stat("local.yaml"); statErr == nil {
			c, err = readFile("local.yaml")
			break
		}

		if err = cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
		}
		c = &cfg
	}

	if err != nil {
		return nil, err
	}

	if err := c.validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// validate базовая валидация значений.
func (c *Config) validate() error {
	if err := validateURL(c.Gateway.BaseURL, "http", "https"); err != nil {
		return fmt.Errorf("gateway.base_url: %w", err)
	}

	if err := validateURL(c.Realtime.URL, "ws", "wss"); err != nil {
		return fmt.Errorf("realtime.url: %w", err)
	}

	if c.Gateway.Timeout <= 0 {
		return fmt.Errorf("gateway.timeout must be > 0")
	}

	if c.Presence.HeartbeatInterval < time.Second {
		return fmt.Errorf("presence.heartbeat_interval must be at least 1s")
	}

	if c.Realtime.ReconnectInitial <= 0 {
		return fmt.Errorf("realtime.reconnect_initial must be > 0")
	}

	if c.Realtime.ReconnectMax < c.Realtime.ReconnectInitial {
		return fmt.Errorf("realtime.reconnect_max must be >= realtime.reconnect_initial")
	}

	if c.Realtime.ReconnectMultiplier < 1 {
		return fmt.Errorf("realtime.reconnect_multiplier must be >= 1")
	}

	if c.Realtime.ReconnectJitter < 0 || c.Realtime.ReconnectJitter > 1 {
		return fmt.Errorf("realtime.reconnect_jitter must be within [0, 1]")
	}

	if c.Reconciler.RequestTimeout <= 0 {
		return fmt.Errorf("reconciler.request_timeout must be > 0")
	}

	return nil
}

func validateURL(raw string, schemes ...string) error {
	if raw == "" {
		return fmt.Errorf("is required")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	if u.Host == "" {
		return fmt.Errorf("missing host")
	}

	for _, s := range schemes {
		if u.Scheme == s {
			return nil
		}
	}

	return fmt.Errorf("unsupported scheme %q", u.Scheme)
}
