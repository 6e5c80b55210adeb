// Package config holds small environment variable helpers shared by the
// configuration loaders.
package config

import "os"

// GetEnvString returns the value of key, or def when it is unset or empty.
// No validation is applied; use the internal loaders for typed settings.
//
//	path := GetEnvString("HACKERFEED_CONFIG", "config.yaml")
func GetEnvString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
