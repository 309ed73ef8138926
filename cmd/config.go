package cmd

import (
	"fmt"
	"strings"

	"github.com/karan9123/Networks/core"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// envPrefix prefixes the environment variables that may replace any flag,
	// e.g. PINGTRACE_MAX_HOPS for --max-hops.
	envPrefix = "PINGTRACE"

	logLevelFlag    = "log-level"
	defaultLogLevel = "warning"
)

// newConfig resolves every flag of flags from, by priority, the command line, the environment
// and the flag defaults.
func newConfig(flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	v.SetDefault(logLevelFlag, defaultLogLevel)

	if err := v.BindPFlags(flags); err != nil {
		return nil, fmt.Errorf("error while binding flags: %w", err)
	}

	return v, nil
}

func loggingLevel(v *viper.Viper) (log.Level, error) {
	level, err := log.ParseLevel(v.GetString(logLevelFlag))
	if err != nil {
		return log.WarnLevel, fmt.Errorf("invalid %s: %w", logLevelFlag, err)
	}
	return level, nil
}

// pingSettings builds the settings of a ping session from the resolved configuration.
func pingSettings(v *viper.Viper) (*core.Settings, error) {
	level, err := loggingLevel(v)
	if err != nil {
		return nil, err
	}

	settings := core.DefaultSettings()
	settings.Count = v.GetInt("count")
	settings.Interval = v.GetFloat64("wait")
	settings.Timeout = v.GetFloat64("timeout")
	settings.PacketSize = v.GetInt("packetsize")
	settings.TTL = v.GetInt("ttl")
	settings.Identifier = v.GetInt("id")
	settings.LoggingLevel = level

	return settings, nil
}

// traceSettings builds the settings of a traceroute from the resolved configuration.
func traceSettings(v *viper.Viper) (*core.TraceSettings, error) {
	level, err := loggingLevel(v)
	if err != nil {
		return nil, err
	}

	settings := core.DefaultTraceSettings()
	settings.MaxHops = v.GetInt("max-hops")
	settings.ProbesPerHop = v.GetInt("nqueries")
	settings.Timeout = v.GetFloat64("wait")
	settings.Port = v.GetInt("port")
	settings.Numeric = v.GetBool("numeric")
	settings.Summary = v.GetBool("summary")
	settings.LoggingLevel = level

	return settings, nil
}
