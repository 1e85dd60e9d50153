// Copyright 2019 SpotHero
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

import "github.com/spf13/pflag"

// RegisterFlags registers Tracer flags with pflags
func (c *Config) RegisterFlags(flags *pflag.FlagSet, defaultTracerName string) {
	flags.BoolVarP(&c.Enabled, "tracer-enabled", "t", true, "Enable tracing")
	flags.StringVar(&c.SamplerType, "tracer-sampler-type", "", "Tracer sampler type: always, never or ratio")
	flags.Float64Var(&c.SamplerParam, "tracer-sampler-param", 1.0, "Tracer sampler param, the sampled fraction for the ratio sampler")
	flags.StringVar(&c.Exporter, "tracer-exporter", ExporterJaeger, "Trace exporter: jaeger, otlp or stdout")
	flags.StringVar(&c.AgentHost, "tracer-agent-host", "localhost", "Jaeger Agent Host")
	flags.IntVar(&c.AgentPort, "tracer-agent-port", 6831, "Jaeger Agent Port")
	flags.StringVar(&c.OTLPEndpoint, "tracer-otlp-endpoint", "", "OTLP gRPC collector endpoint (host:port)")
	flags.StringVar(&c.ServiceName, "tracer-service-name", defaultTracerName, "Determines the service name for the Tracer UI")
}
