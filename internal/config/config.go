package config

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	keyAddr           = "addr"
	keyDatabaseDriver = "database_driver"
	keyDatabaseURL    = "database_url"
	keyReadTimeout    = "read_timeout"
	keyWriteTimeout   = "write_timeout"
	keyIdleTimeout    = "idle_timeout"
	keyRequestTimeout = "request_timeout"
	keyLogFormat      = "log_format"
	keyLogLevel       = "log_level"
)

const DefaultSQLiteURL = "file:todo.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

type Config struct {
	Addr           string
	DatabaseDriver string
	DatabaseURL    string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration
	LogFormat      string
	LogLevel       string
}

// Load 按 flag > 环境变量 > 配置文件 > 默认值 的优先级读取配置。
// configFile 为空时不读取文件；flags 可以为 nil。
func Load(defaultAddr, configFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetDefault(keyAddr, defaultAddr)
	v.SetDefault(keyDatabaseDriver, "sqlite")
	v.SetDefault(keyDatabaseURL, DefaultSQLiteURL)
	v.SetDefault(keyReadTimeout, 5*time.Second)
	v.SetDefault(keyWriteTimeout, 10*time.Second)
	v.SetDefault(keyIdleTimeout, 120*time.Second)
	v.SetDefault(keyRequestTimeout, 30*time.Second)
	v.SetDefault(keyLogFormat, "text")
	v.SetDefault(keyLogLevel, "info")

	// 环境变量沿用大写键名，例如 ADDR、DATABASE_URL
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "read config file %s", configFile)
		}
	}

	if flags != nil {
		bindings := map[string]string{
			keyAddr:           "addr",
			keyDatabaseDriver: "db-driver",
			keyDatabaseURL:    "db-url",
		}
		for key, name := range bindings {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, errors.Wrapf(err, "bind flag %s", name)
				}
			}
		}
	}

	cfg := Config{
		Addr:           v.GetString(keyAddr),
		DatabaseDriver: v.GetString(keyDatabaseDriver),
		DatabaseURL:    v.GetString(keyDatabaseURL),
		ReadTimeout:    v.GetDuration(keyReadTimeout),
		WriteTimeout:   v.GetDuration(keyWriteTimeout),
		IdleTimeout:    v.GetDuration(keyIdleTimeout),
		RequestTimeout: v.GetDuration(keyRequestTimeout),
		LogFormat:      v.GetString(keyLogFormat),
		LogLevel:       v.GetString(keyLogLevel),
	}
	if cfg.Addr == "" {
		return Config{}, errors.New("addr must not be empty")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database url must not be empty")
	}
	return cfg, nil
}
