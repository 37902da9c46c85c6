// Package config provides configuration management for the gridlock core
package config

import (
	"time"
)

// Environment represents the deployment environment
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// String returns the string representation of Environment
func (e Environment) String() string {
	return string(e)
}

// IsValid checks if the environment is valid
func (e Environment) IsValid() bool {
	switch e {
	case EnvDevelopment, EnvTesting, EnvProduction:
		return true
	default:
		return false
	}
}

// Config represents the complete gridlock configuration
type Config struct {
	// Application configuration
	App AppConfig `yaml:"app" json:"app"`

	// Worker pool configuration
	Pool PoolConfig `yaml:"pool" json:"pool"`

	// Interaction pool configuration
	Interaction InteractionConfig `yaml:"interaction" json:"interaction"`

	// Message actor configuration
	Actor ActorConfig `yaml:"actor" json:"actor"`

	// Producer-consumer queue configuration
	Queue QueueConfig `yaml:"queue" json:"queue"`

	// Game session configuration
	Game GameConfig `yaml:"game" json:"game"`

	// Snapshot persistence configuration
	Persistence PersistenceConfig `yaml:"persistence" json:"persistence"`
}

// AppConfig contains application-level configuration
type AppConfig struct {
	// Application name
	Name string `yaml:"name" json:"name"`

	// Deployment environment
	Environment Environment `yaml:"environment" json:"environment"`

	// Debug mode
	Debug bool `yaml:"debug" json:"debug"`
}

// PoolConfig contains background worker pool settings
type PoolConfig struct {
	// Workers kept alive permanently
	CoreSize int `yaml:"core_size" json:"core_size"`

	// Worker count ceiling under load
	MaxSize int `yaml:"max_size" json:"max_size"`

	// Task queue bound
	QueueSize int `yaml:"queue_size" json:"queue_size"`

	// Idle lifetime of workers above CoreSize
	KeepAlive time.Duration `yaml:"keep_alive" json:"keep_alive"`

	// Drain window granted on graceful shutdown
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// InteractionConfig contains the dedicated interaction pool settings
type InteractionConfig struct {
	// Fixed worker count
	Size int `yaml:"size" json:"size"`

	// Task queue bound
	QueueSize int `yaml:"queue_size" json:"queue_size"`
}

// ActorConfig contains message actor settings
type ActorConfig struct {
	// Mailbox depth
	MailboxSize int `yaml:"mailbox_size" json:"mailbox_size"`

	// Default SendAndAwait timeout
	AwaitTimeout time.Duration `yaml:"await_timeout" json:"await_timeout"`
}

// QueueConfig contains producer-consumer queue settings
type QueueConfig struct {
	// Item capacity providing backpressure
	Capacity int `yaml:"capacity" json:"capacity"`

	// Consumer goroutine count
	Consumers int `yaml:"consumers" json:"consumers"`
}

// GameConfig contains game session settings
type GameConfig struct {
	// Seed for monster generation; 0 seeds from the clock
	Seed int64 `yaml:"seed" json:"seed"`

	// Default difficulty for new sessions
	Difficulty string `yaml:"difficulty" json:"difficulty"`
}

// PersistenceConfig contains snapshot store settings
type PersistenceConfig struct {
	// Snapshot file path
	Path string `yaml:"path" json:"path"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:        "gridlock",
			Environment: EnvDevelopment,
			Debug:       true,
		},
		Pool: PoolConfig{
			CoreSize:        4,
			MaxSize:         8,
			QueueSize:       64,
			KeepAlive:       30 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Interaction: InteractionConfig{
			Size:      2,
			QueueSize: 32,
		},
		Actor: ActorConfig{
			MailboxSize:  128,
			AwaitTimeout: 5 * time.Second,
		},
		Queue: QueueConfig{
			Capacity:  64,
			Consumers: 2,
		},
		Game: GameConfig{
			Seed:       0,
			Difficulty: "easy",
		},
		Persistence: PersistenceConfig{
			Path: "gridlock-snapshot.yaml",
		},
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// Validate app config
	if c.App.Name == "" {
		return ErrInvalidAppName
	}
	if !c.App.Environment.IsValid() {
		return ErrInvalidEnvironment
	}

	// Validate pool config
	if c.Pool.CoreSize <= 0 || c.Pool.MaxSize < c.Pool.CoreSize {
		return ErrInvalidPoolSize
	}
	if c.Pool.QueueSize <= 0 {
		return ErrInvalidQueueSize
	}
	if c.Interaction.Size <= 0 || c.Interaction.QueueSize <= 0 {
		return ErrInvalidInteractionPool
	}

	// Validate actor config
	if c.Actor.MailboxSize <= 0 {
		return ErrInvalidMailboxSize
	}

	// Validate queue config
	if c.Queue.Capacity <= 0 {
		return ErrInvalidQueueSize
	}
	if c.Queue.Consumers <= 0 {
		return ErrInvalidConsumerCount
	}

	// Validate game config
	switch c.Game.Difficulty {
	case "easy", "normal", "hard":
	default:
		return ErrInvalidDifficulty
	}

	return nil
}

// IsDevelopment returns true if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == EnvDevelopment
}

// IsProduction returns true if the environment is production
func (c *Config) IsProduction() bool {
	return c.App.Environment == EnvProduction
}

// IsDebugEnabled returns true if debug mode is enabled
func (c *Config) IsDebugEnabled() bool {
	return c.App.Debug || c.App.Environment == EnvDevelopment
}
