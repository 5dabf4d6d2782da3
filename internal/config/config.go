package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Redis    RedisConfig    `mapstructure:"redis"`
	MySQL    MySQLConfig    `mapstructure:"mysql"`
	Store    StoreConfig    `mapstructure:"store"`
	Lock     LockConfig     `mapstructure:"lock"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	History  HistoryConfig  `mapstructure:"history"`
	Index    IndexConfig    `mapstructure:"index"`
	Leader   LeaderConfig   `mapstructure:"leader"`
	Instance InstanceConfig `mapstructure:"instance"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type MySQLConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// StoreConfig selects the backing store: "mysql" or "memory". SeedFile is a
// JSON list of auctions loaded into the memory store at startup.
type StoreConfig struct {
	Driver   string `mapstructure:"driver"`
	SeedFile string `mapstructure:"seed_file"`
}

type LockConfig struct {
	Driver        string        `mapstructure:"driver"`
	KeyPrefix     string        `mapstructure:"key_prefix"`
	WaitTime      time.Duration `mapstructure:"wait_time"`
	LeaseTime     time.Duration `mapstructure:"lease_time"`
	RetryInterval time.Duration `mapstructure:"retry_interval"`
}

type NotifyConfig struct {
	Channel       string        `mapstructure:"channel"`
	EffectTimeout time.Duration `mapstructure:"effect_timeout"`
}

type HistoryConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type IndexConfig struct {
	KeyPrefix  string `mapstructure:"key_prefix"`
	Channel    string `mapstructure:"channel"`
	BacklogKey string `mapstructure:"backlog_key"`
	RetrySpec  string `mapstructure:"retry_spec"`
}

type LeaderConfig struct {
	Key string        `mapstructure:"key"`
	TTL time.Duration `mapstructure:"ttl"`
}

type InstanceConfig struct {
	ID string `mapstructure:"id"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("log.level", "info")
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("mysql.dsn", "bid_user:bid_pass@tcp(localhost:3306)/bidmarket?parseTime=true")
	v.SetDefault("mysql.max_open_conns", 25)
	v.SetDefault("mysql.max_idle_conns", 10)
	v.SetDefault("mysql.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("store.driver", "mysql")
	v.SetDefault("store.seed_file", "")
	v.SetDefault("lock.driver", "redis")
	v.SetDefault("lock.key_prefix", "product_bid:")
	v.SetDefault("lock.wait_time", 3*time.Second)
	v.SetDefault("lock.lease_time", 5*time.Second)
	v.SetDefault("lock.retry_interval", 50*time.Millisecond)
	v.SetDefault("notify.channel", "push_alarms")
	v.SetDefault("notify.effect_timeout", 5*time.Second)
	v.SetDefault("history.ttl", 30*24*time.Hour)
	v.SetDefault("index.key_prefix", "search:auction:")
	v.SetDefault("index.channel", "auction_index")
	v.SetDefault("index.backlog_key", "index_sync:pending")
	v.SetDefault("index.retry_spec", "@every 30s")
	v.SetDefault("leader.key", "bid_engine_leader")
	v.SetDefault("leader.ttl", 30*time.Second)
	v.SetDefault("instance.id", "bidding-service-1")
}

func bindEnv(v *viper.Viper) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Environment variable mappings
	v.BindEnv("server.port", "SERVER_PORT")
	v.BindEnv("redis.address", "REDIS_ADDRESS")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("mysql.dsn", "MYSQL_DSN")
	v.BindEnv("store.driver", "STORE_DRIVER")
	v.BindEnv("store.seed_file", "STORE_SEED_FILE")
	v.BindEnv("lock.wait_time", "LOCK_WAIT_TIME")
	v.BindEnv("lock.lease_time", "LOCK_LEASE_TIME")
	v.BindEnv("instance.id", "INSTANCE_ID")
}

// Load reads defaults, an optional config.yaml and the environment.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/bidmarket/")
	bindEnv(v)

	// Read configuration file (optional - will use defaults/env vars if not found)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	return unmarshal(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(configPath)
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "mysql", "memory":
	default:
		return fmt.Errorf("config: unknown store driver %q", c.Store.Driver)
	}
	switch c.Lock.Driver {
	case "redis", "memory":
	default:
		return fmt.Errorf("config: unknown lock driver %q", c.Lock.Driver)
	}
	// An in-process lock cannot exclude other processes writing a shared database.
	if c.Lock.Driver == "memory" && c.Store.Driver != "memory" {
		return fmt.Errorf("config: lock driver memory requires store driver memory")
	}
	if c.Store.SeedFile != "" && c.Store.Driver != "memory" {
		return fmt.Errorf("config: store seed_file is only supported by the memory driver")
	}
	if c.Lock.WaitTime < 0 || c.Lock.LeaseTime <= 0 {
		return fmt.Errorf("config: lock wait_time must be >= 0 and lease_time > 0")
	}
	if c.Leader.TTL <= 0 {
		return fmt.Errorf("config: leader ttl must be > 0")
	}
	return nil
}

// GetConfigString returns a formatted string representation of the config
func (c *Config) GetConfigString() string {
	return fmt.Sprintf(
		"Server: %s:%d, Redis: %s, Store: %s, Lock: %s (wait %s, lease %s)",
		c.Server.Host,
		c.Server.Port,
		c.Redis.Address,
		c.Store.Driver,
		c.Lock.Driver,
		c.Lock.WaitTime,
		c.Lock.LeaseTime,
	)
}
