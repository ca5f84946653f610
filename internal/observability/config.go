package observability

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/smallbiznis/pricewise/internal/config"
	gormlogger "gorm.io/gorm/logger"
)

// Config holds observability configuration derived from environment variables.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel      string
	LogFormat     string
	SQLLogLevel   string
	SlowQueryTime time.Duration

	OtelEnabled          bool
	OtelExporterEndpoint string
	OtelExporterProtocol string
	OtelSamplingRatio    float64
}

func LoadConfig(cfg config.Config) Config {
	protocol := lookup("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc")
	if traces := lookup("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL", ""); traces != "" {
		protocol = traces
	}

	out := Config{
		ServiceName:          firstNonEmpty(cfg.AppName, "pricewise"),
		Environment:          lookup("DEPLOYMENT_ENV", cfg.Environment),
		Version:              lookup("SERVICE_VERSION", cfg.AppVersion),
		LogLevel:             strings.ToLower(lookup("LOG_LEVEL", "info")),
		LogFormat:            strings.ToLower(lookup("LOG_FORMAT", "json")),
		SQLLogLevel:          strings.ToLower(lookup("SQL_LOG_LEVEL", "warn")),
		SlowQueryTime:        200 * time.Millisecond,
		OtelEnabled:          false,
		OtelExporterEndpoint: lookup("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.OTLPEndpoint),
		OtelExporterProtocol: strings.ToLower(protocol),
		OtelSamplingRatio:    0.1,
	}

	if v, err := strconv.ParseBool(lookup("OTEL_ENABLED", "")); err == nil {
		out.OtelEnabled = v
	}
	if v, err := strconv.ParseFloat(lookup("OTEL_SAMPLING_RATIO", ""), 64); err == nil {
		out.OtelSamplingRatio = v
	}
	if v, err := time.ParseDuration(lookup("SQL_SLOW_THRESHOLD", "")); err == nil {
		out.SlowQueryTime = v
	}
	return out
}

// Debug reports whether verbose diagnostics (stacks, SQL params) are allowed.
func (c Config) Debug() bool {
	if c.LogLevel == "debug" {
		return true
	}
	switch strings.ToLower(c.Environment) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

func (c Config) gormLevel() gormlogger.LogLevel {
	switch c.SQLLogLevel {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "info", "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}

func lookup(key, def string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return strings.TrimSpace(def)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
