package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/sarahckohl/mousechase/game/clock"
	"github.com/spf13/viper"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Clock    ClockConfig    `mapstructure:"clock"`
	Chase    ChaseConfig    `mapstructure:"chase"`
	Pursuer  PursuerConfig  `mapstructure:"pursuer"`
	World    WorldConfig    `mapstructure:"world"`
}

type ServerConfig struct {
	Port  int  `mapstructure:"port"`
	Debug bool `mapstructure:"debug"`
	// AdminKeyHash is the bcrypt hash of the admin key exchanged for tokens.
	AdminKeyHash   string        `mapstructure:"admin_key_hash"`
	TokenSecret    string        `mapstructure:"token_secret"`
	TokenTTL       time.Duration `mapstructure:"token_ttl"`
	RateLimitRPS   float64       `mapstructure:"rate_limit_rps"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
	// AllowedIPs restricts the admin endpoints. Empty allows all.
	AllowedIPs []string `mapstructure:"allowed_ips"`
}

type DatabaseConfig struct {
	Mode         string        `mapstructure:"mode"` // sqlite | mysql | none
	SQLitePath   string        `mapstructure:"sqlite_path"`
	MySQLDSN     string        `mapstructure:"mysql_dsn"`
	MySQLMaxOpen int           `mapstructure:"mysql_max_open"`
	MySQLMaxIdle int           `mapstructure:"mysql_max_idle"`
	MySQLMaxLife time.Duration `mapstructure:"mysql_max_life"`
}

type CacheConfig struct {
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	LocalGCInterval time.Duration `mapstructure:"local_gc_interval"`
	LocalPubSubBuf  int           `mapstructure:"local_pubsub_buf"`
}

type ClockConfig struct {
	TimeScale       float64       `mapstructure:"time_scale"`
	Start           string        `mapstructure:"start"` // H:MM[:SS]
	PersistInterval time.Duration `mapstructure:"persist_interval"`
}

type ChaseConfig struct {
	SelfSpeed         float64       `mapstructure:"self_speed"`
	MinimumWait       time.Duration `mapstructure:"minimum_wait"`
	HideDistance      float64       `mapstructure:"hide_distance"`
	StoppingDistance  float64       `mapstructure:"stopping_distance"`
	MaxSelectAttempts int           `mapstructure:"max_select_attempts"`
	WarpEnabled       bool          `mapstructure:"warp_enabled"`
	// BlockTTL clears a refuge an agent marked blocked after this long.
	// Zero keeps the mark until the agent clears it.
	BlockTTL time.Duration `mapstructure:"block_ttl"`
}

type PursuerConfig struct {
	SlowSpeed      float64       `mapstructure:"slow_speed"`
	TopSpeed       float64       `mapstructure:"top_speed"`
	ViewRadius     float64       `mapstructure:"view_radius"`
	StrikeDistance float64       `mapstructure:"strike_distance"`
	StrikeCooldown time.Duration `mapstructure:"strike_cooldown"`
	RepathInterval time.Duration `mapstructure:"repath_interval"`
	GuardRadius    float64       `mapstructure:"guard_radius"`
}

type WorldConfig struct {
	Name             string        `mapstructure:"name"`
	LevelPath        string        `mapstructure:"level_path"`
	TickMs           int           `mapstructure:"tick_ms"`
	Mice             int           `mapstructure:"mice"`
	Seed             int64         `mapstructure:"seed"` // 0 seeds from the wall clock
	SnapshotInterval time.Duration `mapstructure:"snapshot_interval"`
	RouteWorkers     int64         `mapstructure:"route_workers"`
}

// Load reads config from the given YAML file path.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.debug", false)
	v.SetDefault("server.token_ttl", "24h")
	v.SetDefault("server.rate_limit_rps", 20)
	v.SetDefault("server.rate_limit_burst", 40)
	v.SetDefault("database.mode", "sqlite")
	v.SetDefault("database.sqlite_path", "./data/chase.db")
	v.SetDefault("database.mysql_max_open", 20)
	v.SetDefault("database.mysql_max_idle", 5)
	v.SetDefault("database.mysql_max_life", "1h")
	v.SetDefault("cache.local_gc_interval", "30s")
	v.SetDefault("cache.local_pubsub_buf", 256)
	v.SetDefault("clock.time_scale", 60)
	v.SetDefault("clock.start", "6:00:00")
	v.SetDefault("clock.persist_interval", "10s")
	v.SetDefault("chase.self_speed", 3.5)
	v.SetDefault("chase.minimum_wait", "1s")
	v.SetDefault("chase.hide_distance", 4)
	v.SetDefault("chase.stopping_distance", 0.1)
	v.SetDefault("chase.max_select_attempts", 100)
	v.SetDefault("chase.warp_enabled", false)
	v.SetDefault("chase.block_ttl", "20s")
	v.SetDefault("pursuer.slow_speed", 2)
	v.SetDefault("pursuer.top_speed", 8)
	v.SetDefault("pursuer.view_radius", 6)
	v.SetDefault("pursuer.strike_distance", 0.75)
	v.SetDefault("pursuer.strike_cooldown", "1s")
	v.SetDefault("pursuer.repath_interval", "500ms")
	v.SetDefault("pursuer.guard_radius", 1.5)
	v.SetDefault("world.name", "kitchen")
	v.SetDefault("world.level_path", "./data/level.yaml")
	v.SetDefault("world.tick_ms", 50)
	v.SetDefault("world.mice", 3)
	v.SetDefault("world.snapshot_interval", "1s")
	v.SetDefault("world.route_workers", 4)
}

// Validate rejects values the simulation cannot run with.
func (c *Config) Validate() error {
	if !(c.Clock.TimeScale > 0) {
		return fmt.Errorf("%w: clock.time_scale must be positive", ErrInvalid)
	}
	if _, err := clock.Parse(c.Clock.Start); err != nil {
		return fmt.Errorf("%w: clock.start: %v", ErrInvalid, err)
	}
	if c.Chase.SelfSpeed <= 0 || c.Pursuer.TopSpeed <= 0 || c.Pursuer.SlowSpeed <= 0 {
		return fmt.Errorf("%w: speeds must be positive", ErrInvalid)
	}
	if c.Pursuer.SlowSpeed > c.Pursuer.TopSpeed {
		return fmt.Errorf("%w: pursuer.slow_speed exceeds top_speed", ErrInvalid)
	}
	if c.Chase.MaxSelectAttempts <= 0 {
		return fmt.Errorf("%w: chase.max_select_attempts must be positive", ErrInvalid)
	}
	if c.Chase.MinimumWait < 0 || c.Chase.HideDistance < 0 || c.Chase.StoppingDistance < 0 || c.Chase.BlockTTL < 0 {
		return fmt.Errorf("%w: chase distances and waits must not be negative", ErrInvalid)
	}
	if c.World.TickMs <= 0 {
		return fmt.Errorf("%w: world.tick_ms must be positive", ErrInvalid)
	}
	if c.World.SnapshotInterval <= 0 || c.Clock.PersistInterval <= 0 {
		return fmt.Errorf("%w: snapshot and persist intervals must be positive", ErrInvalid)
	}
	if c.World.Mice < 0 {
		return fmt.Errorf("%w: world.mice must not be negative", ErrInvalid)
	}
	switch c.Database.Mode {
	case "sqlite", "mysql", "none":
	default:
		return fmt.Errorf("%w: unknown database.mode %q", ErrInvalid, c.Database.Mode)
	}
	return nil
}
