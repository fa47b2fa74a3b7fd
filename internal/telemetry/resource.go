package telemetry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"

	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

const ServiceName = "makro-planner"

// Version is overridden at build time with
// -ldflags="-X makro.app/internal/telemetry.Version=1.2.3".
var Version = "dev"

// NewResource describes this process to the tracing and metrics backends.
// OTEL_SERVICE_NAME and OTEL_RESOURCE_ATTRIBUTES are honoured. A detector
// that only partly succeeds still yields a usable resource.
func NewResource(ctx context.Context) (*resource.Resource, error) {
	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithHost(),
		resource.WithProcess(),
		resource.WithAttributes(
			semconv.ServiceName(ServiceName),
			semconv.ServiceVersion(Version),
			semconv.ServiceNamespace(getEnv("OTEL_SERVICE_NAMESPACE", "makro")),
			semconv.ServiceInstanceID(instanceID()),
			semconv.DeploymentEnvironment(getEnv("OTEL_DEPLOYMENT_ENVIRONMENT", "development")),
			semconv.ProcessRuntimeName("go"),
			semconv.ProcessRuntimeVersion(runtime.Version()),
		),
	)
	if err != nil && !errors.Is(err, resource.ErrPartialResource) {
		return nil, err
	}
	return res, nil
}

func instanceID() string {
	if id := os.Getenv("OTEL_SERVICE_INSTANCE_ID"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return fmt.Sprintf("%s-%d", ServiceName, os.Getpid())
}
