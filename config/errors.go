// Package config provides error definitions for configuration management
package config

import "errors"

// Configuration validation errors
var (
	ErrInvalidAppName         = errors.New("invalid application name")
	ErrInvalidEnvironment     = errors.New("invalid environment")
	ErrInvalidPoolSize        = errors.New("invalid worker pool size")
	ErrInvalidQueueSize       = errors.New("invalid queue size")
	ErrInvalidInteractionPool = errors.New("invalid interaction pool settings")
	ErrInvalidMailboxSize     = errors.New("invalid mailbox size")
	ErrInvalidConsumerCount   = errors.New("invalid consumer count")
	ErrInvalidDifficulty      = errors.New("invalid difficulty")
)

// Configuration loading errors
var (
	ErrConfigFileNotFound  = errors.New("configuration file not found")
	ErrConfigParseError    = errors.New("configuration parse error")
	ErrConfigValidateError = errors.New("configuration validation error")
	ErrConfigWatchError    = errors.New("configuration watch error")
)
