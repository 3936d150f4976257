// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"github.com/xkilldash9x/webbind/api/schemas"
	"github.com/xkilldash9x/webbind/pkg/interop"
)

// EnvPrefix namespaces every environment override, e.g. WEBBIND_BRIDGE_MODE.
const EnvPrefix = "WEBBIND"

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Bridge() BridgeConfig
	Browser() BrowserConfig
	InProcess() InProcessConfig

	// Bridge Setters
	SetBridgeMode(mode string)
	SetBridgeCallTimeout(d time.Duration)

	// Browser Setters
	SetBrowserHeadless(bool)
	SetBrowserIgnoreTLSErrors(bool)
	SetBrowserEmulatePersona(bool)

	// InProcess Setters
	SetInProcessURL(url string)
}

// Config holds the entire application configuration. It uses private fields to
// enforce access through the Interface's getter methods.
type Config struct {
	logger    LoggerConfig
	bridge    BridgeConfig
	browser   BrowserConfig
	inprocess InProcessConfig
}

// fileConfig is the shape viper decodes into; mapstructure only sets exported fields.
type fileConfig struct {
	Logger    LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	Bridge    BridgeConfig    `mapstructure:"bridge" yaml:"bridge"`
	Browser   BrowserConfig   `mapstructure:"browser" yaml:"browser"`
	InProcess InProcessConfig `mapstructure:"inprocess" yaml:"inprocess"`
}

var _ Interface = (*Config)(nil)

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig       { return c.logger }
func (c *Config) Bridge() BridgeConfig       { return c.bridge }
func (c *Config) Browser() BrowserConfig     { return c.browser }
func (c *Config) InProcess() InProcessConfig { return c.inprocess }

// --- Interface Method Implementations (Setters) ---

// Bridge Setters
func (c *Config) SetBridgeMode(mode string)            { c.bridge.Mode = mode }
func (c *Config) SetBridgeCallTimeout(d time.Duration) { c.bridge.CallTimeout = d }

// Browser Setters
func (c *Config) SetBrowserHeadless(b bool)        { c.browser.Headless = b }
func (c *Config) SetBrowserIgnoreTLSErrors(b bool) { c.browser.IgnoreTLSErrors = b }
func (c *Config) SetBrowserEmulatePersona(b bool)  { c.browser.EmulatePersona = b }

// InProcess Setters
func (c *Config) SetInProcessURL(url string) { c.inprocess.URL = url }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BridgeConfig selects the call strategy.
type BridgeConfig struct {
	// Mode is one of "inprocess", "cdp" or "playwright".
	Mode string `mapstructure:"mode" yaml:"mode"`
	// CallTimeout bounds each CLI-issued call. Zero disables it.
	CallTimeout time.Duration `mapstructure:"call_timeout" yaml:"call_timeout"`
}

// BrowserConfig holds settings for the out-of-process strategies.
type BrowserConfig struct {
	Headless        bool          `mapstructure:"headless" yaml:"headless"`
	IgnoreTLSErrors bool          `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	UserAgent       string        `mapstructure:"user_agent" yaml:"user_agent"`
	Args            []string      `mapstructure:"args" yaml:"args"`
	ExecPath        string        `mapstructure:"exec_path" yaml:"exec_path"`
	UserDataDir     string        `mapstructure:"user_data_dir" yaml:"user_data_dir"`
	RemoteURL       string        `mapstructure:"remote_url" yaml:"remote_url"`
	StartupTimeout  time.Duration `mapstructure:"startup_timeout" yaml:"startup_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	// EmulatePersona makes the real browser report inprocess.persona, so every
	// strategy answers navigator and viewport reads alike.
	EmulatePersona bool `mapstructure:"emulate_persona" yaml:"emulate_persona"`
	// Install lets the playwright strategy download its driver and browser.
	Install bool `mapstructure:"install" yaml:"install"`
	Debug   bool `mapstructure:"debug" yaml:"debug"`
}

// InProcessConfig configures the embedded host.
type InProcessConfig struct {
	URL          string            `mapstructure:"url" yaml:"url"`
	Referrer     string            `mapstructure:"referrer" yaml:"referrer"`
	FetchTimeout time.Duration     `mapstructure:"fetch_timeout" yaml:"fetch_timeout"`
	Persona      schemas.Persona   `mapstructure:"persona" yaml:"persona"`
	Permissions  map[string]string `mapstructure:"permissions" yaml:"permissions"`
}

// PermissionStates converts the configured permission seeds into their typed form.
func (c InProcessConfig) PermissionStates() map[string]schemas.PermissionState {
	if len(c.Permissions) == 0 {
		return nil
	}
	out := make(map[string]schemas.PermissionState, len(c.Permissions))
	for name, state := range c.Permissions {
		out[name] = schemas.PermissionState(strings.ToLower(state))
	}
	return out
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	cfg, err := decode(v)
	if err != nil {
		// This should not happen with defaults.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "webbind")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")

	// -- Bridge --
	v.SetDefault("bridge.mode", string(interop.ModeInProcess))
	v.SetDefault("bridge.call_timeout", "30s")

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.ignore_tls_errors", false)
	v.SetDefault("browser.user_agent", "")
	v.SetDefault("browser.exec_path", "")
	v.SetDefault("browser.user_data_dir", "")
	v.SetDefault("browser.remote_url", "")
	v.SetDefault("browser.startup_timeout", "30s")
	v.SetDefault("browser.shutdown_timeout", "10s")
	v.SetDefault("browser.emulate_persona", false)
	v.SetDefault("browser.install", false)
	v.SetDefault("browser.debug", false)

	// -- InProcess --
	v.SetDefault("inprocess.url", "about:blank")
	v.SetDefault("inprocess.referrer", "")
	v.SetDefault("inprocess.fetch_timeout", "30s")
	v.SetDefault("inprocess.persona.user_agent", schemas.DefaultPersona.UserAgent)
	v.SetDefault("inprocess.persona.platform", schemas.DefaultPersona.Platform)
	v.SetDefault("inprocess.persona.languages", schemas.DefaultPersona.Languages)
	v.SetDefault("inprocess.persona.width", schemas.DefaultPersona.Width)
	v.SetDefault("inprocess.persona.height", schemas.DefaultPersona.Height)
	v.SetDefault("inprocess.persona.device_pixel_ratio", schemas.DefaultPersona.DevicePixelRatio)
	v.SetDefault("inprocess.persona.hardware_concurrency", schemas.DefaultPersona.HardwareConcurrency)
}

// BindEnv wires WEBBIND_* environment overrides into v, e.g. WEBBIND_BRIDGE_MODE for
// bridge.mode.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// ResolvePath expands a leading "~" in a config file path.
func ResolvePath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("expanding config path %q: %w", path, err)
	}
	return expanded, nil
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var fc fileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &Config{
		logger:    fc.Logger,
		bridge:    fc.Bridge,
		browser:   fc.Browser,
		inprocess: fc.InProcess,
	}, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if _, err := interop.ParseMode(c.bridge.Mode); err != nil {
		return fmt.Errorf("bridge.mode: %w", err)
	}
	if c.bridge.CallTimeout < 0 {
		return fmt.Errorf("bridge.call_timeout must not be negative")
	}
	if err := c.browser.Validate(); err != nil {
		return fmt.Errorf("browser configuration invalid: %w", err)
	}
	if err := c.inprocess.Validate(); err != nil {
		return fmt.Errorf("inprocess configuration invalid: %w", err)
	}
	return nil
}

// Validate checks the BrowserConfig settings.
func (b *BrowserConfig) Validate() error {
	if b.StartupTimeout < 0 || b.ShutdownTimeout < 0 {
		return fmt.Errorf("startup_timeout and shutdown_timeout must not be negative")
	}
	for _, arg := range b.Args {
		if !strings.HasPrefix(arg, "--") {
			return fmt.Errorf("browser argument %q must start with --", arg)
		}
	}
	return nil
}

// Validate checks the InProcessConfig settings.
func (p *InProcessConfig) Validate() error {
	if p.FetchTimeout < 0 {
		return fmt.Errorf("fetch_timeout must not be negative")
	}
	for name, state := range p.PermissionStates() {
		if !state.Valid() {
			return fmt.Errorf("permission %q has unknown state %q", name, state)
		}
	}
	return nil
}
