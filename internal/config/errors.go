package config

import "errors"

// ErrInvalid indicates a configuration value could not be used as given
// (bad number, out-of-range temperature, unreadable dotenv file).
var ErrInvalid = errors.New("invalid configuration")
