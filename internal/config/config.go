// Package config loads the worker configuration from a config file, SWF_* environment
// variables and command line flags.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/cschleiden/swf-workers/core"
	"github.com/cschleiden/swf-workers/worker"
)

type BackendType string

const (
	BackendSWF    BackendType = "swf"
	BackendMemory BackendType = "memory"
	BackendRedis  BackendType = "redis"
	BackendSqlite BackendType = "sqlite"
	BackendMysql  BackendType = "mysql"
)

type ExporterType string

const (
	ExporterNone   ExporterType = "none"
	ExporterStdout ExporterType = "stdout"
	ExporterOTLP   ExporterType = "otlp"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	SWF SWFConfig `mapstructure:"swf"`

	Backend BackendType `mapstructure:"backend"`

	Redis RedisConfig `mapstructure:"redis"`

	Sqlite SqliteConfig `mapstructure:"sqlite"`

	Mysql MysqlConfig `mapstructure:"mysql"`

	Poll PollConfig `mapstructure:"poll"`

	Tracing TracingConfig `mapstructure:"tracing"`

	Log LogConfig `mapstructure:"log"`
}

type SWFConfig struct {
	Domain string `mapstructure:"domain"`

	TaskList struct {
		Name string `mapstructure:"name"`
	} `mapstructure:"tasklist"`

	Activity struct {
		Name    string `mapstructure:"name"`
		Version string `mapstructure:"version"`
	} `mapstructure:"activity"`

	Workflow struct {
		Type    string `mapstructure:"type"`
		Version string `mapstructure:"version"`
	} `mapstructure:"workflow"`

	Identity string `mapstructure:"identity"`

	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"accessKey"`
	SecretKey string `mapstructure:"secretKey"`
}

type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"keyPrefix"`
}

type SqliteConfig struct {
	// Path of the database file. An in-memory database is used when empty.
	Path string `mapstructure:"path"`
}

type MysqlConfig struct {
	DSN string `mapstructure:"dsn"`
}

type PollConfig struct {
	Retry struct {
		InitialInterval time.Duration `mapstructure:"initialInterval"`
		MaxInterval     time.Duration `mapstructure:"maxInterval"`
		MaxElapsedTime  time.Duration `mapstructure:"maxElapsedTime"`
	} `mapstructure:"retry"`
}

type TracingConfig struct {
	Exporter ExporterType `mapstructure:"exporter"`

	// Endpoint of the OTLP collector. The OTEL_EXPORTER_OTLP_* environment is used when empty.
	Endpoint string `mapstructure:"endpoint"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

var defaults = map[string]any{
	"swf.domain":                 "",
	"swf.tasklist.name":          "",
	"swf.activity.name":          "",
	"swf.activity.version":       "",
	"swf.workflow.type":          "",
	"swf.workflow.version":       "1.0",
	"swf.identity":               "",
	"swf.region":                 "",
	"swf.accessKey":              "",
	"swf.secretKey":              "",
	"backend":                    string(BackendSWF),
	"redis.addr":                 "localhost:6379",
	"redis.username":             "",
	"redis.password":             "",
	"redis.db":                   0,
	"redis.keyPrefix":            "swf",
	"sqlite.path":                "",
	"mysql.dsn":                  "",
	"poll.retry.initialInterval": worker.DefaultOptions.PollRetry.InitialInterval,
	"poll.retry.maxInterval":     worker.DefaultOptions.PollRetry.MaxInterval,
	"poll.retry.maxElapsedTime":  worker.DefaultOptions.PollRetry.MaxElapsedTime,
	"tracing.exporter":           string(ExporterNone),
	"tracing.endpoint":           "",
	"log.level":                  "info",
}

// New returns a viper instance with defaults for all keys. Every key can be overridden by an
// environment variable with the SWF_ prefix and dots replaced by underscores, e.g.
// SWF_SWF_DOMAIN or SWF_BACKEND.
func New() *viper.Viper {
	v := viper.New()

	for k, d := range defaults {
		v.SetDefault(k, d)
	}

	v.SetEnvPrefix("SWF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Flags maps command line flags to configuration keys.
var Flags = map[string]string{
	"domain":           "swf.domain",
	"task-list":        "swf.tasklist.name",
	"activity-name":    "swf.activity.name",
	"activity-version": "swf.activity.version",
	"workflow-type":    "swf.workflow.type",
	"region":           "swf.region",
	"backend":          "backend",
	"redis-addr":       "redis.addr",
	"sqlite-path":      "sqlite.path",
	"mysql-dsn":        "mysql.dsn",
	"tracing-exporter": "tracing.exporter",
	"log-level":        "log.level",
}

// AddFlags registers the configuration flags on the given flag set.
func AddFlags(flags *pflag.FlagSet) {
	flags.String("config-file", "", "Path to config file.")
	flags.String("domain", "", "SWF domain")
	flags.String("task-list", "", "task list to poll")
	flags.String("activity-name", "", "name of the activity type")
	flags.String("activity-version", "", "version of the activity type")
	flags.String("workflow-type", "", "name of the workflow type handled by the decision worker")
	flags.String("region", "", "AWS region of the SWF endpoint")
	flags.String("backend", string(BackendSWF), "orchestrator backend: swf, memory, redis, sqlite or mysql")
	flags.String("redis-addr", "localhost:6379", "host:port of the redis server")
	flags.String("sqlite-path", "", "path of the sqlite database file")
	flags.String("mysql-dsn", "", "mysql data source name")
	flags.String("tracing-exporter", string(ExporterNone), "trace exporter: none, stdout or otlp")
	flags.String("log-level", "info", "log level: debug, info, warn or error")
}

// BindFlags binds the flags registered by AddFlags to their configuration keys.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range Flags {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}

		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("binding flag %s: %w", name, err)
		}
	}

	return nil
}

// Load reads the config file and decodes the configuration. Without an explicit file,
// swf-worker.{yaml,json,toml} is looked up in the working directory and may be absent.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("swf-worker")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	return &c, nil
}

// Validate checks that all keys required by the selected backend are set.
func (c *Config) Validate() error {
	var missing []string

	require := func(key, value string) {
		if value == "" {
			missing = append(missing, key)
		}
	}

	require("swf.domain", c.SWF.Domain)
	require("swf.tasklist.name", c.SWF.TaskList.Name)
	require("swf.activity.name", c.SWF.Activity.Name)
	require("swf.activity.version", c.SWF.Activity.Version)
	require("swf.workflow.type", c.SWF.Workflow.Type)

	switch c.Backend {
	case BackendSWF:
		require("swf.region", c.SWF.Region)
	case BackendRedis:
		require("redis.addr", c.Redis.Addr)
	case BackendMysql:
		require("mysql.dsn", c.Mysql.DSN)
	case BackendMemory, BackendSqlite:
	default:
		return fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, c.Backend)
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidConfig, strings.Join(missing, ", "))
	}

	if (c.SWF.AccessKey == "") != (c.SWF.SecretKey == "") {
		return fmt.Errorf("%w: swf.accessKey and swf.secretKey must be set together", ErrInvalidConfig)
	}

	if err := core.ValidName(c.SWF.TaskList.Name); err != nil {
		return fmt.Errorf("%w: swf.tasklist.name: %v", ErrInvalidConfig, err)
	}

	switch c.Tracing.Exporter {
	case "", ExporterNone, ExporterStdout, ExporterOTLP:
	default:
		return fmt.Errorf("%w: unknown tracing exporter %q", ErrInvalidConfig, c.Tracing.Exporter)
	}

	if _, err := c.LogLevel(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return nil
}

func (c *Config) LogLevel() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return l, fmt.Errorf("log.level: %w", err)
	}

	return l, nil
}

// WorkerOptions returns the worker options described by the configuration.
func (c *Config) WorkerOptions() *worker.Options {
	options := worker.DefaultOptions
	options.Domain = core.Domain(c.SWF.Domain)
	options.TaskList = core.TaskList(c.SWF.TaskList.Name)
	options.Identity = c.SWF.Identity
	options.ActivityType = core.ActivityType{Name: c.SWF.Activity.Name, Version: c.SWF.Activity.Version}
	options.WorkflowType = c.SWF.Workflow.Type
	options.PollRetry = worker.PollRetryOptions{
		InitialInterval: c.Poll.Retry.InitialInterval,
		MaxInterval:     c.Poll.Retry.MaxInterval,
		MaxElapsedTime:  c.Poll.Retry.MaxElapsedTime,
	}

	return &options
}

// WorkflowType is the full workflow type started by the CLI.
func (c *Config) WorkflowType() core.WorkflowType {
	return core.WorkflowType{Name: c.SWF.Workflow.Type, Version: c.SWF.Workflow.Version}
}
