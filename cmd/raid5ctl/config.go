package main

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// loadDotEnv loads a .env file from the working directory into the
// process environment if one exists, the same optional-overlay role
// godotenv plays wherever the pack reaches for it. A missing file is not
// an error; a malformed one is reported but non-fatal, matching the
// teacher's general stance that config problems should degrade to
// defaults rather than abort startup.
func loadDotEnv(logger *zerolog.Logger) {
	if _, err := os.Stat(".env"); err != nil {
		return
	}
	if err := godotenv.Load(); err != nil {
		logger.Warn().Err(err).Msg("failed to load .env, continuing with process environment")
	}
}

func envOrDefault(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envIntOrDefault(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// parseDevices splits a comma-separated device path list, trimming
// whitespace and dropping empty entries.
func parseDevices(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseLogLevel converts a string log level to zerolog.Level, defaulting
// to Info on anything unrecognized rather than failing startup over a
// typo'd flag.
func parseLogLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
