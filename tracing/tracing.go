// Copyright 2022 SpotHero
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tracing

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spothero/corsproxy/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.12.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// CorrelationIDCtxKeyType is the type used to uniquely place the trace header in contexts
type CorrelationIDCtxKeyType int

// CorrelationIDCtxKey is the key into any context.Context  which maps to the
// correlation id of the given context. This correlation ID can be
// conveyed to external clients in order to correlate external systems with
// SpotHero tracing and logging.
const CorrelationIDCtxKey CorrelationIDCtxKeyType = iota

const tracerName = "github.com/spothero/corsproxy/tracing"

// Supported exporters
const (
	ExporterJaeger = "jaeger"
	ExporterOTLP   = "otlp"
	ExporterStdout = "stdout"
)

// Config defines the necessary configuration for instantiating a TracerProvider
type Config struct {
	ServiceName  string
	// SamplerType is one of "always" (default), "never" or "ratio"
	SamplerType  string
	// Exporter is one of "jaeger" (default), "otlp" or "stdout"
	Exporter     string
	AgentHost    string
	OTLPEndpoint string
	SamplerParam float64
	AgentPort    int
	Enabled      bool
}

func (c Config) sampler() (sdktrace.Sampler, error) {
	switch c.SamplerType {
	case "", "always":
		return sdktrace.ParentBased(sdktrace.AlwaysSample()), nil
	case "never":
		return sdktrace.ParentBased(sdktrace.NeverSample()), nil
	case "ratio":
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(c.SamplerParam)), nil
	default:
		return nil, fmt.Errorf("unknown sampler type %q", c.SamplerType)
	}
}

func (c Config) exporter() (sdktrace.SpanExporter, error) {
	switch c.Exporter {
	case "", ExporterJaeger:
		return jaeger.New(jaeger.WithAgentEndpoint(
			jaeger.WithAgentHost(c.AgentHost),
			jaeger.WithAgentPort(strconv.Itoa(c.AgentPort)),
		))
	case ExporterOTLP:
		opts := []otlptracegrpc.Option{otlptracegrpc.WithInsecure()}
		if c.OTLPEndpoint != "" {
			opts = append(opts, otlptracegrpc.WithEndpoint(c.OTLPEndpoint))
		}
		return otlptracegrpc.New(context.Background(), opts...)
	case ExporterStdout:
		return stdouttrace.New()
	default:
		return nil, fmt.Errorf("unknown trace exporter %q", c.Exporter)
	}
}

// TracerProvider configures the global OpenTelemetry TracerProvider and text
// map propagator. The returned function flushes and shuts the provider down.
// When tracing is disabled the global provider is left untouched and a no-op
// shutdown is returned.
func (c Config) TracerProvider() (func(context.Context) error, error) {
	logger := log.Get(context.Background()).Named("tracing")
	if !c.Enabled {
		logger.Info("tracing disabled")
		return func(context.Context) error { return nil }, nil
	}
	if c.ServiceName == "" {
		return nil, fmt.Errorf("tracing service name must be provided")
	}
	sampler, err := c.sampler()
	if err != nil {
		return nil, err
	}
	exporter, err := c.exporter()
	if err != nil {
		return nil, fmt.Errorf("error creating trace exporter: %w", err)
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sampler),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(c.ServiceName),
		)),
	)
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	logger.Info(
		"tracer provider configured",
		zap.String("exporter", c.Exporter),
		zap.String("sampler", c.SamplerType),
	)
	return tracerProvider.Shutdown, nil
}

// StartSpanFromContext starts a span as a child of any span in ctx using the
// global TracerProvider.
func StartSpanFromContext(ctx context.Context, name string, opts ...trace.SpanStartOption) (trace.Span, context.Context) {
	spanCtx, span := otel.Tracer(tracerName).Start(ctx, name, opts...)
	return span, spanCtx
}

// EmbedCorrelationID embeds the current Trace ID as the correlation ID in the context logger
func EmbedCorrelationID(ctx context.Context) context.Context {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ctx
	}
	correlationID := sc.TraceID().String()
	ctx = log.NewContext(ctx, log.Get(ctx).With(zap.String("correlation_id", correlationID)))
	return context.WithValue(ctx, CorrelationIDCtxKey, correlationID)
}

// GetCorrelationID returns the correlation ID associated with the given
// Context. This function only produces meaningful results for Contexts
// associated with http.Requests which have passed through
// tracing/HTTPServerMiddleware.
func GetCorrelationID(ctx context.Context) string {
	if correlationID, ok := ctx.Value(CorrelationIDCtxKey).(string); ok {
		return correlationID
	}
	return ""
}
