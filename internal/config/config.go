// Package config handles configuration loading and validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/deadpackets/pwnbox-cli/internal/profile"
	"github.com/deadpackets/pwnbox-cli/internal/templates"
)

// Config represents the application configuration.
type Config struct {
	Docker       DockerConfig       `mapstructure:"docker"`
	Image        ImageConfig        `mapstructure:"image"`
	Container    ContainerConfig    `mapstructure:"container"`
	SSH          SSHConfig          `mapstructure:"ssh"`
	Notification NotificationConfig `mapstructure:"notification"`

	// ConfigFilePath stores the path to the loaded config file (not marshaled from YAML)
	ConfigFilePath string `mapstructure:"-"`
}

// DockerConfig contains engine connection settings.
type DockerConfig struct {
	SocketPath string `mapstructure:"socket_path"`
}

// ImageConfig identifies the PwnBox image.
type ImageConfig struct {
	Repository string `mapstructure:"repository"`
	Tag        string `mapstructure:"tag"`
}

// ContainerConfig describes the managed container.
type ContainerConfig struct {
	Name           string   `mapstructure:"name"`
	Hostname       string   `mapstructure:"hostname"`
	Privileged     bool     `mapstructure:"privileged"`
	AutoRemove     bool     `mapstructure:"auto_remove"`
	X11Forwarding  bool     `mapstructure:"x11_forwarding"`
	HostNetworking bool     `mapstructure:"host_networking"`
	DNSServers     []string `mapstructure:"dns_servers"`
	ForwardedPorts []string `mapstructure:"forwarded_ports"`
	ExternalVolume string   `mapstructure:"external_volume"`
	SSHVolume      string   `mapstructure:"ssh_volume"`
}

// SSHConfig contains attach endpoint settings.
type SSHConfig struct {
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	User    string `mapstructure:"user"`
	Timeout int    `mapstructure:"timeout"` // seconds
}

// NotificationConfig contains notification settings.
type NotificationConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	ShoutrrURL string `mapstructure:"shoutrrr_url"`
}

// DefaultDir returns the per-user configuration directory.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pwnbox"
	}
	return filepath.Join(home, ".pwnbox")
}

// DefaultPath returns the default configuration file location.
func DefaultPath() string {
	return filepath.Join(DefaultDir(), "pwnbox.yaml")
}

// autoDetectDockerSocket determines the engine socket based on environment
// and platform.
func autoDetectDockerSocket() string {
	if os.Getenv("DOCKER_HOST") != "" {
		return os.Getenv("DOCKER_HOST")
	}
	if _, err := os.Stat("/var/run/docker.sock"); err == nil {
		return "unix:///var/run/docker.sock"
	}
	return "npipe:////./pipe/docker_engine"
}

// Load reads configuration from file and environment variables. When
// configPath is empty the default search path is used, and a missing config
// file falls back to defaults rather than erroring.
func Load(configPath string) (*Config, error) {
	// Try to load .env file (ignore error if not exists)
	_ = godotenv.Load() // nolint:errcheck // .env file is optional

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(os.ExpandEnv(configPath))
	} else {
		v.SetConfigName("pwnbox")
		v.SetConfigType("yaml")
		v.AddConfigPath(DefaultDir())
		v.AddConfigPath(".")
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			configFile := v.ConfigFileUsed()
			if configFile == "" {
				configFile = configPath
			}
			return nil, fmt.Errorf("error reading config file from %s: %w", configFile, err)
		}
		// Config file not found; using defaults and env vars
	}

	// Environment variable support
	v.SetEnvPrefix("PWNBOX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		configFile := v.ConfigFileUsed()
		if configFile == "" {
			configFile = "(using defaults and environment variables)"
		}
		return nil, fmt.Errorf("error unmarshaling config from %s: %w", configFile, err)
	}

	cfg.ConfigFilePath = v.ConfigFileUsed()

	if cfg.Docker.SocketPath == "" {
		cfg.Docker.SocketPath = autoDetectDockerSocket()
	}

	if err := cfg.Validate(); err != nil {
		configFile := v.ConfigFileUsed()
		if configFile == "" {
			configFile = "(using defaults and environment variables)"
		}
		return nil, fmt.Errorf("config validation failed for %s: %w", configFile, err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("docker.socket_path", "")

	v.SetDefault("image.repository", "docker.io/deadpackets/pwnbox")
	v.SetDefault("image.tag", "latest")

	v.SetDefault("container.name", "pwnbox")
	v.SetDefault("container.hostname", "pwnbox")
	v.SetDefault("container.privileged", true)
	v.SetDefault("container.auto_remove", false)
	v.SetDefault("container.x11_forwarding", true)
	v.SetDefault("container.host_networking", false)
	v.SetDefault("container.dns_servers", []string{"1.1.1.1", "8.8.8.8"})
	v.SetDefault("container.forwarded_ports", []string{"2222:22"})
	v.SetDefault("container.external_volume", "$HOME/pwnbox")
	v.SetDefault("container.ssh_volume", "$HOME/.pwnbox/ssh")

	v.SetDefault("ssh.host", "127.0.0.1")
	v.SetDefault("ssh.port", 2222)
	v.SetDefault("ssh.user", "root")
	v.SetDefault("ssh.timeout", 10)

	v.SetDefault("notification.enabled", false)
	v.SetDefault("notification.shoutrrr_url", "")
}

// Validate performs basic sanity checks. Deep validation of ports, volumes
// and DNS lives in the translator, which runs before any engine call.
func (c *Config) Validate() error {
	if c.Container.Name == "" {
		return fmt.Errorf("container.name must not be empty")
	}
	if c.SSH.Port < 1 || c.SSH.Port > 65535 {
		return fmt.Errorf("ssh.port %d out of range", c.SSH.Port)
	}
	if c.SSH.Timeout <= 0 {
		return fmt.Errorf("ssh.timeout must be positive, got %d", c.SSH.Timeout)
	}
	return nil
}

// Profile builds the immutable container profile for this invocation.
func (c *Config) Profile() profile.ContainerProfile {
	return profile.ContainerProfile{
		Name:           c.Container.Name,
		Hostname:       c.Container.Hostname,
		Repository:     c.Image.Repository,
		Tag:            c.Image.Tag,
		Privileged:     c.Container.Privileged,
		AutoRemove:     c.Container.AutoRemove,
		X11Forwarding:  c.Container.X11Forwarding,
		HostNetworking: c.Container.HostNetworking,
		DNSServers:     c.Container.DNSServers,
		ForwardedPorts: c.Container.ForwardedPorts,
		ExternalVolume: c.Container.ExternalVolume,
		SSHVolume:      c.Container.SSHVolume,
		SSHHost:        c.SSH.Host,
		SSHPort:        c.SSH.Port,
		SSHUser:        c.SSH.User,
		SSHTimeout:     time.Duration(c.SSH.Timeout) * time.Second,
	}
}

// WriteDefault writes the embedded default configuration to path. An
// existing file is only overwritten when force is set.
func WriteDefault(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%q already exists", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create config directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, templates.ConfigYAML, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// EnsureDefault writes the default config file at the default path when no
// config exists there yet. Returns the path and whether it was created.
func EnsureDefault() (string, bool, error) {
	path := DefaultPath()
	if _, err := os.Stat(path); err == nil {
		return path, false, nil
	}
	if err := WriteDefault(path, false); err != nil {
		return path, false, err
	}
	return path, true, nil
}
