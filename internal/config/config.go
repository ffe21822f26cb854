package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"shipping-estimate-service/internal/domain"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port            string        `mapstructure:"port" validate:"required,numeric"`
	LogLevel        string        `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
	CORSOrigins     []string      `mapstructure:"cors_allowed_origins" validate:"min=1"`

	// Geocoding provider: nominatim, ors, or static (warehouse names only).
	Geocoder           string        `mapstructure:"geocoder" validate:"oneof=nominatim ors static"`
	NominatimURL       string        `mapstructure:"nominatim_url" validate:"omitempty,url"`
	NominatimUserAgent string        `mapstructure:"nominatim_user_agent" validate:"required_if=Geocoder nominatim"`
	ORSURL             string        `mapstructure:"ors_url" validate:"omitempty,url"`
	ORSAPIKey          string        `mapstructure:"ors_api_key" validate:"required_if=Geocoder ors"`
	ORSBoundaryCountry string        `mapstructure:"ors_boundary_country"`
	GeocodeTimeout     time.Duration `mapstructure:"geocode_timeout" validate:"gt=0"`
	GeocodeRate        float64       `mapstructure:"geocode_rate_per_second" validate:"gte=0"`

	// Geocode cache backend: postgres, sqlite, redis or none.
	GeocodeCache  string        `mapstructure:"geocode_cache" validate:"oneof=postgres sqlite redis none"`
	DatabaseURL   string        `mapstructure:"database_url" validate:"required_if=GeocodeCache postgres"`
	SQLitePath    string        `mapstructure:"sqlite_path" validate:"required_if=GeocodeCache sqlite"`
	RedisAddr     string        `mapstructure:"redis_addr" validate:"required_if=GeocodeCache redis"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db" validate:"gte=0"`
	CacheTTL      time.Duration `mapstructure:"geocode_cache_ttl" validate:"gte=0"`

	// Empty selects the built-in registry.
	WarehousesPath string `mapstructure:"warehouses_path"`

	WeightCost     float64 `mapstructure:"weight_cost" validate:"gte=0"`
	WeightTime     float64 `mapstructure:"weight_time" validate:"gte=0"`
	WeightDistance float64 `mapstructure:"weight_distance" validate:"gte=0"`

	RoadCostPerKm float64 `mapstructure:"rate_road_cost_per_km" validate:"gt=0"`
	RoadSpeedKmh  float64 `mapstructure:"rate_road_speed_kmh" validate:"gt=0"`
	AirCostPerKm  float64 `mapstructure:"rate_air_cost_per_km" validate:"gt=0"`
	AirSpeedKmh   float64 `mapstructure:"rate_air_speed_kmh" validate:"gt=0"`
}

func setDefaults(v *viper.Viper) {
	weights := domain.DefaultWeights()
	rates := domain.DefaultRates()

	v.SetDefault("port", "8000")
	v.SetDefault("log_level", "info")
	v.SetDefault("shutdown_timeout", 10*time.Second)
	v.SetDefault("cors_allowed_origins", []string{"*"})

	v.SetDefault("geocoder", "nominatim")
	v.SetDefault("nominatim_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("nominatim_user_agent", "shipping-estimate-service")
	v.SetDefault("ors_url", "https://api.openrouteservice.org")
	v.SetDefault("ors_api_key", "")
	v.SetDefault("ors_boundary_country", "")
	v.SetDefault("geocode_timeout", 10*time.Second)
	v.SetDefault("geocode_rate_per_second", 1.0)

	v.SetDefault("geocode_cache", "none")
	v.SetDefault("database_url", "")
	v.SetDefault("sqlite_path", "data/geocode_cache.db")
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("geocode_cache_ttl", 30*24*time.Hour)

	v.SetDefault("warehouses_path", "")

	v.SetDefault("weight_cost", weights.Cost)
	v.SetDefault("weight_time", weights.Time)
	v.SetDefault("weight_distance", weights.Distance)

	v.SetDefault("rate_road_cost_per_km", rates.Ground.CostPerKm)
	v.SetDefault("rate_road_speed_kmh", rates.Ground.SpeedKmh)
	v.SetDefault("rate_air_cost_per_km", rates.Air.CostPerKm)
	v.SetDefault("rate_air_speed_kmh", rates.Air.SpeedKmh)
}

// Load reads configuration from, in increasing precedence: built-in
// defaults, the YAML file at configPath (optional), a .env file in the
// working directory and the process environment.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load config: read .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("load config: read %q: %w", configPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("load config: unmarshal: %w", err)
	}

	cfg.CORSOrigins = splitList(cfg.CORSOrigins)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := c.Weights().Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c *Config) Weights() domain.Weights {
	return domain.Weights{
		Cost:     c.WeightCost,
		Time:     c.WeightTime,
		Distance: c.WeightDistance,
	}
}

func (c *Config) Rates() domain.RateTable {
	return domain.RateTable{
		Ground: domain.Rate{CostPerKm: c.RoadCostPerKm, SpeedKmh: c.RoadSpeedKmh},
		Air:    domain.Rate{CostPerKm: c.AirCostPerKm, SpeedKmh: c.AirSpeedKmh},
	}
}

// Get returns the trimmed environment variable key, or fallback when
// it is unset or blank.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// splitList flattens comma separated entries and drops blanks.
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
