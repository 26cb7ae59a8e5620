package config

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var dotenvLoadOnce sync.Once

// loadDotEnvIfPresent walks upward from the working directory and loads the
// first .env file it finds. Variables already present in the environment are
// never overwritten.
func loadDotEnvIfPresent() {
	dotenvLoadOnce.Do(func() {
		current, err := os.Getwd()
		if err != nil {
			return
		}

		for {
			candidate := filepath.Join(current, ".env")
			if _, statErr := os.Stat(candidate); statErr == nil {
				loadDotEnvFile(candidate)
				return
			}

			parent := filepath.Dir(current)
			if parent == current {
				return
			}
			current = parent
		}
	})
}

func loadDotEnvFile(path string) {
	file, err := os.Open(path)
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		separator := strings.Index(line, "=")
		if separator <= 0 {
			continue
		}

		key := strings.TrimSpace(line[:separator])
		if !isValidEnvKey(key) {
			continue
		}
		if _, alreadySet := os.LookupEnv(key); alreadySet {
			continue
		}

		value := strings.TrimSpace(line[separator+1:])
		value = unquote(value)
		os.Setenv(key, value)
	}
}

func unquote(value string) string {
	if len(value) < 2 {
		return value
	}
	first := value[0]
	last := value[len(value)-1]
	if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
		return value[1 : len(value)-1]
	}
	return value
}

func isValidEnvKey(key string) bool {
	if key == "" {
		return false
	}
	for index, character := range key {
		switch {
		case character >= 'A' && character <= 'Z':
		case character >= 'a' && character <= 'z':
		case character == '_':
		case index > 0 && character >= '0' && character <= '9':
		default:
			return false
		}
	}
	return true
}

func firstNonEmptyEnv(keys ...string) string {
	for _, key := range keys {
		value := strings.TrimSpace(os.Getenv(key))
		if value != "" {
			return value
		}
	}
	return ""
}
