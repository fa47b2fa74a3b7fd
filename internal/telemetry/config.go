// Package telemetry wires OpenTelemetry tracing and metrics export plus
// optional continuous profiling. Everything is configured from the
// standard OTEL_* and PYROSCOPE_* environment variables and is off unless
// explicitly enabled.
package telemetry

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Protocol is the OTLP transport protocol.
type Protocol string

const (
	ProtocolGRPC         Protocol = "grpc"
	ProtocolHTTPProtobuf Protocol = "http/protobuf"
	ProtocolHTTPJSON     Protocol = "http/json"
)

// Signal is the kind of telemetry being exported.
type Signal string

const (
	SignalTraces  Signal = "traces"
	SignalMetrics Signal = "metrics"
)

// ExporterConfig is the resolved OTLP exporter configuration for one signal.
type ExporterConfig struct {
	Endpoint    string
	Protocol    Protocol
	Headers     map[string]string
	Timeout     time.Duration
	Insecure    bool
	Compression string
}

func TracingEnabled() bool {
	return isTrue(getEnv("OTEL_TRACING_ENABLED", "false"))
}

func MetricsEnabled() bool {
	return isTrue(getEnv("OTEL_METRICS_ENABLED", "false"))
}

func ProfilingEnabled() bool {
	return isTrue(getEnv("PYROSCOPE_PROFILING_ENABLED", "false"))
}

// GetExporterConfig resolves the exporter settings for signal. A
// signal-specific variable (OTEL_EXPORTER_OTLP_TRACES_*) wins over the
// base one (OTEL_EXPORTER_OTLP_*).
func GetExporterConfig(signal Signal) ExporterConfig {
	upper := strings.ToUpper(string(signal))

	protocol := resolveProtocol(upper)
	endpoint := resolveEndpoint(signal, upper, protocol)

	return ExporterConfig{
		Endpoint: endpoint,
		Protocol: protocol,
		Headers: parseHeaders(getEnvWithFallback(
			"OTEL_EXPORTER_OTLP_"+upper+"_HEADERS", "OTEL_EXPORTER_OTLP_HEADERS", "")),
		Timeout: parseDuration(getEnvWithFallback(
			"OTEL_EXPORTER_OTLP_"+upper+"_TIMEOUT", "OTEL_EXPORTER_OTLP_TIMEOUT", ""), 10*time.Second),
		Insecure: resolveInsecure(upper, endpoint),
		Compression: getEnvWithFallback(
			"OTEL_EXPORTER_OTLP_"+upper+"_COMPRESSION", "OTEL_EXPORTER_OTLP_COMPRESSION", ""),
	}
}

func resolveProtocol(upper string) Protocol {
	p := getEnvWithFallback("OTEL_EXPORTER_OTLP_"+upper+"_PROTOCOL", "OTEL_EXPORTER_OTLP_PROTOCOL", "http/protobuf")
	switch strings.ToLower(p) {
	case "grpc":
		return ProtocolGRPC
	case "http/json":
		return ProtocolHTTPJSON
	default:
		return ProtocolHTTPProtobuf
	}
}

// resolveEndpoint uses a signal-specific endpoint as is. A base endpoint
// gets the /v1/<signal> path appended for HTTP.
func resolveEndpoint(signal Signal, upper string, protocol Protocol) string {
	if ep := getEnv("OTEL_EXPORTER_OTLP_"+upper+"_ENDPOINT", ""); ep != "" {
		return normalizeEndpoint(ep, protocol)
	}
	if ep := getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""); ep != "" {
		return appendSignalPath(normalizeEndpoint(ep, protocol), signal, protocol)
	}
	if protocol == ProtocolGRPC {
		return "localhost:4317"
	}
	return "http://localhost:4318/v1/" + string(signal)
}

func normalizeEndpoint(endpoint string, protocol Protocol) string {
	if protocol == ProtocolGRPC {
		endpoint = strings.TrimPrefix(endpoint, "http://")
		endpoint = strings.TrimPrefix(endpoint, "https://")
		if i := strings.Index(endpoint, "/"); i != -1 {
			endpoint = endpoint[:i]
		}
		return endpoint
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}
	return endpoint
}

func appendSignalPath(endpoint string, signal Signal, protocol Protocol) string {
	if protocol == ProtocolGRPC {
		return endpoint
	}
	signalPath := "/v1/" + string(signal)

	u, err := url.Parse(endpoint)
	if err != nil {
		return strings.TrimSuffix(endpoint, "/") + signalPath
	}
	if strings.HasSuffix(u.Path, signalPath) {
		return endpoint
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + signalPath
	return u.String()
}

// resolveInsecure honours an explicit *_INSECURE setting and otherwise
// infers plaintext from an http:// endpoint.
func resolveInsecure(upper, endpoint string) bool {
	if v := getEnvWithFallback("OTEL_EXPORTER_OTLP_"+upper+"_INSECURE", "OTEL_EXPORTER_OTLP_INSECURE", ""); v != "" {
		return isTrue(v)
	}
	return strings.HasPrefix(endpoint, "http://")
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvWithFallback(specific, base, def string) string {
	if v := os.Getenv(specific); v != "" {
		return v
	}
	return getEnv(base, def)
}

func isTrue(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}

// parseHeaders reads "k1=v1,k2=v2". Values keep everything after the first
// '=' so base64 credentials survive.
func parseHeaders(s string) map[string]string {
	headers := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if i := strings.Index(pair, "="); i > 0 {
			headers[strings.TrimSpace(pair[:i])] = pair[i+1:]
		}
	}
	return headers
}

// parseDuration accepts Go durations ("10s") and plain milliseconds ("10000").
func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(s); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return def
}
