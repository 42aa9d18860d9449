package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	DB        DBConfig        `mapstructure:"db"`
	Game      GameConfig      `mapstructure:"game"`
	PriceFeed PriceFeedConfig `mapstructure:"price_feed"`
	Retention RetentionConfig `mapstructure:"retention"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

// GameConfig drives the bet lifecycle engine. SweepInterval is the fallback
// sweep loop; the primary sweep trigger is each price ingestion cycle.
type GameConfig struct {
	SettleDuration time.Duration `mapstructure:"settle_duration"`
	SweepGrace     time.Duration `mapstructure:"sweep_grace"`
	SweepInterval  time.Duration `mapstructure:"sweep_interval"`
	SweepBatchSize int           `mapstructure:"sweep_batch_size"`
}

type PriceFeedConfig struct {
	PollInterval  time.Duration      `mapstructure:"poll_interval"`
	Currencies    []string           `mapstructure:"currencies"`
	HistoryPoints int                `mapstructure:"history_points"`
	Binance       BinanceConfig      `mapstructure:"binance"`
	ExchangeRate  ExchangeRateConfig `mapstructure:"exchange_rate"`
	CoinGecko     CoinGeckoConfig    `mapstructure:"coingecko"`
}

type BinanceConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Symbol    string        `mapstructure:"symbol"`
	Timeout   time.Duration `mapstructure:"timeout"`
	StreamURL string        `mapstructure:"stream_url"`
	UseStream bool          `mapstructure:"use_stream"`
}

type ExchangeRateConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type CoinGeckoConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type RetentionConfig struct {
	TickMaxAge  time.Duration `mapstructure:"tick_max_age"`
	CleanupSpec string        `mapstructure:"cleanup_spec"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("BTCGAME")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":5000")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("game.settle_duration", "60s")
	v.SetDefault("game.sweep_grace", "100ms")
	v.SetDefault("game.sweep_interval", "15s")
	v.SetDefault("game.sweep_batch_size", 200)
	v.SetDefault("price_feed.poll_interval", "15s")
	v.SetDefault("price_feed.currencies", []string{"usd", "eur", "gbp"})
	v.SetDefault("price_feed.history_points", 12)
	v.SetDefault("price_feed.binance.base_url", "https://api.binance.com")
	v.SetDefault("price_feed.binance.symbol", "BTCUSDT")
	v.SetDefault("price_feed.binance.timeout", "10s")
	v.SetDefault("price_feed.binance.stream_url", "wss://stream.binance.com:9443/ws/btcusdt@trade")
	v.SetDefault("price_feed.binance.use_stream", false)
	v.SetDefault("price_feed.exchange_rate.base_url", "https://api.exchangerate-api.com")
	v.SetDefault("price_feed.exchange_rate.timeout", "10s")
	v.SetDefault("price_feed.coingecko.base_url", "https://api.coingecko.com")
	v.SetDefault("price_feed.coingecko.timeout", "15s")
	v.SetDefault("retention.tick_max_age", "24h")
	v.SetDefault("retention.cleanup_spec", "@every 10m")

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	normalize(&cfg)
	return cfg, nil
}

func normalize(cfg *Config) {
	if cfg.Game.SettleDuration <= 0 {
		cfg.Game.SettleDuration = 60 * time.Second
	}
	if cfg.Game.SweepGrace < 0 {
		cfg.Game.SweepGrace = 100 * time.Millisecond
	}
	if cfg.PriceFeed.PollInterval <= 0 {
		cfg.PriceFeed.PollInterval = 15 * time.Second
	}
	out := make([]string, 0, len(cfg.PriceFeed.Currencies))
	for _, c := range cfg.PriceFeed.Currencies {
		c = strings.ToLower(strings.TrimSpace(c))
		if c != "" {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		out = []string{"usd"}
	}
	cfg.PriceFeed.Currencies = out
}
