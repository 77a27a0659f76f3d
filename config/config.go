package config

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Binance   BinanceConfig   `mapstructure:"binance"`
	CoinGecko CoinGeckoConfig `mapstructure:"coingecko"`
	Server    ServerConfig    `mapstructure:"server"`
	Terminal  TerminalConfig  `mapstructure:"terminal"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	News      NewsConfig      `mapstructure:"news"`
	SMTP      SMTPConfig      `mapstructure:"smtp"`
	Log       LogConfig       `mapstructure:"log"`
}

type BinanceConfig struct {
	REST RESTConfig `mapstructure:"rest"`
	WS   WSConfig   `mapstructure:"ws"`
}

type RESTConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type WSConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type CoinGeckoConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// TerminalConfig holds the knobs for a live terminal session.
type TerminalConfig struct {
	CandleLimit    int           `mapstructure:"candle_limit"`     // candles in the initial snapshot
	DepthLimit     int           `mapstructure:"depth_limit"`      // REST depth snapshot size
	BookDepth      int           `mapstructure:"book_depth"`       // displayed order book levels per side
	TapeCapacity   int           `mapstructure:"tape_capacity"`    // trade tape ring size
	TradesLimit    int           `mapstructure:"trades_limit"`     // recent trades in the initial snapshot
	ReconnectBase  time.Duration `mapstructure:"reconnect_base"`   // first reconnect delay
	ReconnectMax   time.Duration `mapstructure:"reconnect_max"`    // backoff cap
	ViewPushPeriod time.Duration `mapstructure:"view_push_period"` // SSE view-model push cadence
}

type RateLimitConfig struct {
	RedisAddr   string        `mapstructure:"redis_addr"` // empty: in-memory fallback
	RedisDB     int           `mapstructure:"redis_db"`
	MaxRequests int           `mapstructure:"max_requests"`
	Window      time.Duration `mapstructure:"window"`
}

type NewsSource struct {
	ID      string `mapstructure:"id"`
	Name    string `mapstructure:"name"`
	URL     string `mapstructure:"url"`
	Kind    string `mapstructure:"kind"` // "rss" or "binance_announcements"
	Enabled bool   `mapstructure:"enabled"`
}

type NewsConfig struct {
	Sources []NewsSource  `mapstructure:"sources"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type SMTPConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	User string `mapstructure:"user"`
	Pass string `mapstructure:"pass"`
	From string `mapstructure:"from"`
}

// LogConfig defines the logger configuration options.
type LogConfig struct {
	Level       string `mapstructure:"level"`       // log level: "debug", "info", "warn", "error"
	Format      string `mapstructure:"format"`      // log format: "json" or "console"
	OutputFile  string `mapstructure:"output_file"` // file path to store logs (optional)
	Environment string `mapstructure:"environment"` // environment: "dev" or "prod"
}

// Load loads application configuration using Viper.
// A .env file, if present, is loaded first so secrets (SMTP, Redis) can
// stay out of config.yaml; environment variables override file values.
func Load() *Config {
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config") // config.yaml
	v.SetConfigType("yaml")

	ex, _ := os.Executable()
	if strings.Contains(ex, "go-build") {
		pwd, _ := os.Getwd()
		v.AddConfigPath(filepath.Join(pwd, "../../config"))
	} else {
		v.AddConfigPath(filepath.Join(filepath.Dir(ex), "../config"))
	}
	v.AddConfigPath("./config")

	// Support environment variables with dot notation (e.g., BINANCE_WS_URL)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Fatalf("failed to read config: %v", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Fatalf("failed to unmarshal config: %v", err)
	}

	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("binance.rest.base_url", "https://api.binance.com/api/v3")
	v.SetDefault("binance.rest.timeout", 10*time.Second)
	v.SetDefault("binance.ws.url", "wss://stream.binance.com:9443")
	v.SetDefault("binance.ws.timeout", 10*time.Second)
	v.SetDefault("coingecko.base_url", "https://api.coingecko.com/api/v3")
	v.SetDefault("coingecko.timeout", 10*time.Second)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("terminal.candle_limit", 500)
	v.SetDefault("terminal.depth_limit", 50)
	v.SetDefault("terminal.book_depth", 20)
	v.SetDefault("terminal.tape_capacity", 200)
	v.SetDefault("terminal.trades_limit", 80)
	v.SetDefault("terminal.reconnect_base", time.Second)
	v.SetDefault("terminal.reconnect_max", 10*time.Second)
	v.SetDefault("terminal.view_push_period", 250*time.Millisecond)
	v.SetDefault("ratelimit.max_requests", 5)
	v.SetDefault("ratelimit.window", 10*time.Minute)
	v.SetDefault("news.timeout", 8*time.Second)
}
