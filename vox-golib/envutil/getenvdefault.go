package envutil

import "os"

// GetenvDefault reads an environment variable, falling back to defaultValue
// when it is unset. An empty value counts as set.
func GetenvDefault(name, defaultValue string) string {
	if val, found := os.LookupEnv(name); found {
		return val
	}
	return defaultValue
}
