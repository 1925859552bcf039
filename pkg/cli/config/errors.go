package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration validation
var (
	ErrInvalidFlag = goerr.New("invalid flag value")
	ErrMissingFlag = goerr.New("required flag is missing")
)

// Context keys for error values
const (
	FlagKey       = "flag"
	ConfigPathKey = "config_path"
)
