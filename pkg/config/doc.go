// Package config loads and validates the process-wide configuration for the
// credential gateway. Settings come from environment variables, optionally
// seeded from a .env file discovered by walking upward from the working
// directory, and are validated once at startup so request handlers never
// read the environment themselves.
package config
