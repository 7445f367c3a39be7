// Package config loads runtime configuration from environment
// variables and an optional YAML file, with sane simulation defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config keeps the runtime configuration for a run.
type Config struct {
	Market MarketConfig `mapstructure:"market"`
	Sim    SimConfig    `mapstructure:"sim"`
	Tape   TapeConfig   `mapstructure:"tape"`
	Outbox OutboxConfig `mapstructure:"outbox"`
	Kafka  KafkaConfig  `mapstructure:"kafka"`
	GRPC   GRPCConfig   `mapstructure:"grpc"`
}

// MarketConfig fixes the instrument's parameters. Prices are decimal
// strings; ticks are derived via TickSize.
type MarketConfig struct {
	InitialPrice string  `mapstructure:"initial_price"`
	TickSize     string  `mapstructure:"tick_size"`
	Spread       float64 `mapstructure:"spread"`
	QuoteQty     int64   `mapstructure:"quote_qty"`

	initialPrice decimal.Decimal
	tickSize     decimal.Decimal
}

// SimConfig shapes the random order flow and its pacing.
type SimConfig struct {
	Seed           int64         `mapstructure:"seed"`
	OrderQty       int64         `mapstructure:"order_qty"`
	LimitDeviation float64       `mapstructure:"limit_deviation"`
	Interval       time.Duration `mapstructure:"interval"`
	Orders         int           `mapstructure:"orders"`
}

type TapeConfig struct {
	Dir             string        `mapstructure:"dir"`
	SegmentSize     int64         `mapstructure:"segment_size"`
	SegmentDuration time.Duration `mapstructure:"segment_duration"`
}

type OutboxConfig struct {
	Dir string `mapstructure:"dir"`
}

type KafkaConfig struct {
	Brokers           []string      `mapstructure:"brokers"`
	TradeTopic        string        `mapstructure:"trade_topic"`
	QuoteTopic        string        `mapstructure:"quote_topic"`
	PublishInterval   time.Duration `mapstructure:"publish_interval"`
	BroadcastInterval time.Duration `mapstructure:"broadcast_interval"`
	Enabled           bool          `mapstructure:"enabled"`
}

type GRPCConfig struct {
	Addr string `mapstructure:"addr"`
}

// Load builds Config from defaults, MARKETSIM_* environment variables,
// and an optional config file path.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("market.initial_price", "100.0")
	v.SetDefault("market.tick_size", "0.0001")
	v.SetDefault("market.spread", 0.005)
	v.SetDefault("market.quote_qty", 100)

	v.SetDefault("sim.seed", 0)
	v.SetDefault("sim.order_qty", 10)
	v.SetDefault("sim.limit_deviation", 0.01)
	v.SetDefault("sim.interval", 100*time.Millisecond)
	v.SetDefault("sim.orders", 0)

	v.SetDefault("tape.dir", "./data/tape")
	v.SetDefault("tape.segment_size", int64(2*1024*1024))
	v.SetDefault("tape.segment_duration", time.Minute)

	v.SetDefault("outbox.dir", "./data/outbox")

	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.trade_topic", "marketsim.trades")
	v.SetDefault("kafka.quote_topic", "marketsim.quotes")
	v.SetDefault("kafka.publish_interval", time.Second)
	v.SetDefault("kafka.broadcast_interval", 250*time.Millisecond)
	v.SetDefault("kafka.enabled", false)

	v.SetDefault("grpc.addr", ":50051")

	v.SetEnvPrefix("MARKETSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var err error
	c.Market.initialPrice, err = decimal.NewFromString(c.Market.InitialPrice)
	if err != nil {
		return fmt.Errorf("parse market.initial_price: %w", err)
	}
	c.Market.tickSize, err = decimal.NewFromString(c.Market.TickSize)
	if err != nil {
		return fmt.Errorf("parse market.tick_size: %w", err)
	}
	if !c.Market.initialPrice.IsPositive() {
		return errors.New("market.initial_price must be positive")
	}
	if !c.Market.tickSize.IsPositive() {
		return errors.New("market.tick_size must be positive")
	}
	if c.Market.Spread <= 0 || c.Market.Spread >= 1 {
		return errors.New("market.spread must be in (0,1)")
	}
	if c.Sim.LimitDeviation <= 0 || c.Sim.LimitDeviation >= 1 {
		return errors.New("sim.limit_deviation must be in (0,1)")
	}
	if c.Sim.OrderQty <= 0 {
		return errors.New("sim.order_qty must be positive")
	}
	return nil
}

// TickSize returns the parsed tick size.
func (m MarketConfig) TickSizeDecimal() decimal.Decimal {
	return m.tickSize
}

// InitialPriceTicks converts the configured initial price to ticks.
func (m MarketConfig) InitialPriceTicks() int64 {
	return m.ToTicks(m.initialPrice)
}

// ToTicks converts a decimal price to ticks, rounding to the nearest.
func (m MarketConfig) ToTicks(d decimal.Decimal) int64 {
	return d.Div(m.tickSize).Round(0).IntPart()
}

// ToPrice converts ticks back to a decimal price.
func (m MarketConfig) ToPrice(ticks int64) decimal.Decimal {
	return m.tickSize.Mul(decimal.NewFromInt(ticks))
}
