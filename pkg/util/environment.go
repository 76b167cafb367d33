package util

import (
	"os"
	"strconv"
	"strings"
)

func GetEnvironmentVariables() map[string]string {
	environmentVariables := map[string]string{}

	for _, variable := range os.Environ() {
		name, value, _ := strings.Cut(variable, "=")

		environmentVariables[name] = value
	}

	return environmentVariables
}

// GetEnvironmentInt returns the integer value of name in env, or fallback when it is unset.
func GetEnvironmentInt(env map[string]string, name string, fallback int) (int, error) {
	value := env[name]
	if value == "" {
		return fallback, nil
	}

	return strconv.Atoi(value)
}
