package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/alejandrodnm/polygrid/internal/align"
	"github.com/alejandrodnm/polygrid/internal/domain"
)

// Config es la configuración completa del backtester.
type Config struct {
	Strategy StrategyConfig          `yaml:"strategy"`
	Search   domain.GridSearchConfig `yaml:"search"`
	Storage  StorageConfig           `yaml:"storage"`
	Log      LogConfig               `yaml:"log"`
}

// StrategyConfig son los parámetros base de la estrategia. Los umbrales
// entry/exit son los defaults para simulaciones sueltas; la búsqueda los
// sustituye por cada combinación del retículo.
type StrategyConfig struct {
	EntryThreshold      float64 `yaml:"entry_threshold"`
	ExitThreshold       float64 `yaml:"exit_threshold"`
	BetAmount           float64 `yaml:"bet_amount"`
	FeePerTrade         float64 `yaml:"fee_per_trade"`
	SlippageRate        float64 `yaml:"slippage_rate"`
	ExcludeFirstSeconds int     `yaml:"exclude_first_seconds"`
	ExcludeLastSeconds  int     `yaml:"exclude_last_seconds"`
	UseMarketQuote      bool    `yaml:"use_market_quote"`

	// AlignToleranceSeconds es la media ventana de casado pronóstico↔cotización.
	AlignToleranceSeconds int `yaml:"align_tolerance_seconds"`
}

// StorageConfig controla de dónde se lee el dataset.
type StorageConfig struct {
	DSN string `yaml:"dsn"` // ruta al archivo SQLite del dataset

	// MarketSource: "quotes" (cotizaciones periódicas) o "trades" (prints).
	MarketSource string `yaml:"market_source"`
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga la configuración desde el archivo YAML y el archivo .env si existe.
// Los valores del .env sobreescriben los del YAML para las keys que correspondan.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	return &cfg, nil
}

// DomainStrategy devuelve la configuración de estrategia en tipos del dominio.
func (c *Config) DomainStrategy() domain.StrategyConfig {
	return domain.StrategyConfig{
		EntryThreshold:      c.Strategy.EntryThreshold,
		ExitThreshold:       c.Strategy.ExitThreshold,
		BetAmount:           c.Strategy.BetAmount,
		FeePerTrade:         c.Strategy.FeePerTrade,
		SlippageRate:        c.Strategy.SlippageRate,
		ExcludeFirstSeconds: c.Strategy.ExcludeFirstSeconds,
		ExcludeLastSeconds:  c.Strategy.ExcludeLastSeconds,
		UseMarketQuote:      c.Strategy.UseMarketQuote,
	}
}

// AlignConfig devuelve la configuración del alineador.
func (c *Config) AlignConfig() align.Config {
	return align.Config{
		Tolerance:    time.Duration(c.Strategy.AlignToleranceSeconds) * time.Second,
		ExcludeFirst: time.Duration(c.Strategy.ExcludeFirstSeconds) * time.Second,
		ExcludeLast:  time.Duration(c.Strategy.ExcludeLastSeconds) * time.Second,
	}
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("DATASET_DSN"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("SEARCH_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Search.Seed = seed
		}
	}
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	if cfg.Strategy.EntryThreshold <= 0 {
		cfg.Strategy.EntryThreshold = 0.15
	}
	if cfg.Strategy.ExitThreshold <= 0 {
		cfg.Strategy.ExitThreshold = 0.05
	}
	if cfg.Strategy.BetAmount <= 0 {
		cfg.Strategy.BetAmount = 100
	}
	if cfg.Strategy.AlignToleranceSeconds <= 0 {
		cfg.Strategy.AlignToleranceSeconds = 60
	}
	if cfg.Search.Grid.EntryStep <= 0 {
		cfg.Search.Grid = domain.GridConfig{
			EntryMin: 0.05, EntryMax: 0.30, EntryStep: 0.05,
			ExitMin: 0.01, ExitMax: 0.15, ExitStep: 0.02,
		}
	}
	if cfg.Search.Ratios == (domain.SplitRatios{}) {
		cfg.Search.Ratios = domain.SplitRatios{Train: 0.6, Validation: 0.2, Test: 0.2}
	}
	if cfg.Search.Seed == 0 {
		cfg.Search.Seed = 42
	}
	if cfg.Search.TopN <= 0 {
		cfg.Search.TopN = 10
	}
	if cfg.Search.MinTradeCount <= 0 {
		cfg.Search.MinTradeCount = 5
	}
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "dataset.db"
	}
	if cfg.Storage.MarketSource == "" {
		cfg.Storage.MarketSource = "quotes"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
