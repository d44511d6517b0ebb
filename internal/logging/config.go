// Package logging configures the process-wide zerolog logger from an
// env-driven profile, mirroring the runtime/test split the rest of the
// ambient stack uses.
package logging

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	EnvLogLevel     = "HYPERION_LOG_LEVEL"
	EnvLogTimestamp = "HYPERION_LOG_TIMESTAMP"
	EnvLogNoColor   = "HYPERION_LOG_NOCOLOR"
	EnvLogBypass    = "HYPERION_LOG_BYPASS"
)

type Profile int

const (
	ProfileRuntime Profile = iota
	ProfileTest
)

var configureOnce sync.Once

// ConfigureRuntime installs the process-wide logger for hyperion-echo and
// similar binaries.
func ConfigureRuntime() zerolog.Logger {
	return Configure(ProfileRuntime)
}

// ConfigureTests installs a debug-level, timestamp-free, colorless logger
// suitable for table-driven tests that don't want to assert on timing
// output.
func ConfigureTests() zerolog.Logger {
	return Configure(ProfileTest)
}

// Configure installs the process-wide zerolog.Logger exactly once; later
// calls return the already-installed logger.
func Configure(profile Profile) zerolog.Logger {
	configureOnce.Do(func() {
		level, timestamp, noColor, bypass := defaults(profile)
		applyEnvOverrides(&level, &timestamp, &noColor, &bypass)

		if bypass {
			log.Logger = zerolog.Nop()
			return
		}

		zerolog.SetGlobalLevel(level)
		writer := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339, NoColor: noColor}
		logger := zerolog.New(writer).With().Str("app", "hyperion").Logger()
		if timestamp {
			logger = logger.With().Timestamp().Logger()
		}
		log.Logger = logger
	})
	return log.Logger
}

func defaults(profile Profile) (level zerolog.Level, timestamp, noColor, bypass bool) {
	if profile == ProfileTest {
		return zerolog.DebugLevel, false, true, false
	}
	return zerolog.InfoLevel, true, false, false
}

func applyEnvOverrides(level *zerolog.Level, timestamp, noColor, bypass *bool) {
	if lvl, ok := parseLevel(os.Getenv(EnvLogLevel)); ok {
		*level = lvl
	}
	if v, ok := parseBool(os.Getenv(EnvLogTimestamp)); ok {
		*timestamp = v
	}
	if v, ok := parseBool(os.Getenv(EnvLogNoColor)); ok {
		*noColor = v
	}
	if v, ok := parseBool(os.Getenv(EnvLogBypass)); ok {
		*bypass = v
	}
}

// levelAliases maps every accepted spelling of HYPERION_LOG_LEVEL to a
// zerolog.Level. Lookup table over a switch since several aliases (e.g.
// "warn"/"warning") share a level.
var levelAliases = map[string]zerolog.Level{
	"trace":    zerolog.TraceLevel,
	"debug":    zerolog.DebugLevel,
	"info":     zerolog.InfoLevel,
	"warn":     zerolog.WarnLevel,
	"warning":  zerolog.WarnLevel,
	"error":    zerolog.ErrorLevel,
	"disabled": zerolog.Disabled,
	"disable":  zerolog.Disabled,
	"off":      zerolog.Disabled,
	"none":     zerolog.Disabled,
}

func parseLevel(raw string) (zerolog.Level, bool) {
	lvl, ok := levelAliases[strings.ToLower(strings.TrimSpace(raw))]
	return lvl, ok
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
