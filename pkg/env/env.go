// Package env reads raw environment variables consulted before the
// CHANNELSYNC_-prefixed config is parsed, such as LOG_FORMAT.
package env

import "os"

// Get returns the value of key or fallback when the variable is unset or
// empty.
func Get(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
