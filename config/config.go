// Package config loads and validates bootstrap configuration.
//
// Values come from (in increasing precedence) defaults, an optional YAML file,
// BOOTSTRAP_* environment variables and bound command-line flags.
package config

import (
	stdErrors "errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/reglet-dev/wasm-bootstrap/domain/entities"
	"github.com/reglet-dev/wasm-bootstrap/domain/errors"
	"github.com/reglet-dev/wasm-bootstrap/host"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables read by NewViper.
const EnvPrefix = "BOOTSTRAP"

// Config is the full bootstrap configuration.
type Config struct {
	Module  ModuleConfig  `mapstructure:"module" json:"module" yaml:"module"`
	Log     LogConfig     `mapstructure:"log" json:"log" yaml:"log"`
	Metrics MetricsConfig `mapstructure:"metrics" json:"metrics" yaml:"metrics"`
}

// ModuleConfig describes the module to load and how to invoke it.
type ModuleConfig struct {
	Path             string `mapstructure:"path" json:"path" yaml:"path" validate:"required,file" jsonschema:"description=Path to the WASM module"`
	Entry            string `mapstructure:"entry" json:"entry" yaml:"entry" validate:"required" jsonschema:"description=Exported function to invoke,default=run"`
	Argument         string `mapstructure:"argument" json:"argument" yaml:"argument" jsonschema:"description=Value passed to the entry function,default=rustwasm/wasm-bindgen"`
	HostModule       string `mapstructure:"host_module" json:"host_module" yaml:"host_module" validate:"required" jsonschema:"description=Module name host functions are exported under,default=bootstrap_host"`
	MemoryLimitPages uint32 `mapstructure:"memory_limit_pages" json:"memory_limit_pages,omitempty" yaml:"memory_limit_pages,omitempty" validate:"lte=65536" jsonschema:"description=Guest memory cap in 64KiB pages (0 keeps the runtime default),maximum=65536"`
	CacheDir         string `mapstructure:"cache_dir" json:"cache_dir,omitempty" yaml:"cache_dir,omitempty" jsonschema:"description=Directory for the compilation cache"`
}

// LogConfig configures the diagnostic channel.
type LogConfig struct {
	Level  string `mapstructure:"level" json:"level" yaml:"level" validate:"oneof=debug info warn error" jsonschema:"enum=debug,enum=info,enum=warn,enum=error,default=info"`
	Format string `mapstructure:"format" json:"format" yaml:"format" validate:"oneof=text json" jsonschema:"enum=text,enum=json,default=text"`
}

// MetricsConfig configures metric output.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile" json:"textfile,omitempty" yaml:"textfile,omitempty" jsonschema:"description=Write Prometheus metrics to this file after the run"`
}

// SetDefaults registers every key with its default on v, which also makes
// each key visible to AutomaticEnv.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("module.path", "")
	v.SetDefault("module.entry", entities.DefaultEntryPoint)
	v.SetDefault("module.argument", entities.DefaultArgument)
	v.SetDefault("module.host_module", host.DefaultHostModule)
	v.SetDefault("module.memory_limit_pages", 0)
	v.SetDefault("module.cache_dir", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("metrics.textfile", "")
}

// NewViper creates a viper instance with defaults and environment binding.
// When configFile is non-empty it is read as YAML.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return v, nil
}

// Decode decodes v into a Config without validating it.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &errors.ConfigError{Err: err}
	}
	return &cfg, nil
}

// Load decodes v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	cfg, err := Decode(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration. The first failing field is returned as
// *errors.ConfigError named by its config key.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if stdErrors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &errors.ConfigError{Field: fieldKey(fe.Namespace()), Err: fmt.Errorf("failed on %q rule (value %v)", fe.Tag(), fe.Value())}
	}
	return &errors.ConfigError{Err: err}
}

var fieldKeys = map[string]string{
	"Config.Module.Path":             "module.path",
	"Config.Module.Entry":            "module.entry",
	"Config.Module.HostModule":       "module.host_module",
	"Config.Module.MemoryLimitPages": "module.memory_limit_pages",
	"Config.Log.Level":               "log.level",
	"Config.Log.Format":              "log.format",
}

func fieldKey(namespace string) string {
	if key, ok := fieldKeys[namespace]; ok {
		return key
	}
	return namespace
}
