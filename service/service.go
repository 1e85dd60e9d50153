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

package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"
	"github.com/spothero/corsproxy/cli"
	"github.com/spothero/corsproxy/cors"
	shHTTP "github.com/spothero/corsproxy/http"
	"github.com/spothero/corsproxy/log"
	"github.com/spothero/corsproxy/sentry"
	"github.com/spothero/corsproxy/tracing"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// HTTPService implementers register HTTP routes with a mux router.
type HTTPService interface {
	RegisterHandlers(router *mux.Router)
}

// ServerCmd takes a function, newHTTPService, that instantiates the HTTPService by consuming the
// Config object after all values are populated from the CLI and/or environment variables so that
// values configured by this package are accessible by newHTTPService.
//
// Every request passes through tracing, logging, Sentry and, when enabled, CORS enforcement
// before reaching the router, so that preflight requests for any route are answered. Metrics are
// recorded per matched route.
//
// Note that Version and GitSHA *must be specified* before calling this function.
func (c Config) ServerCmd(
	ctx context.Context,
	shortDescription, longDescription string,
	newHTTPService func(Config) HTTPService,
) *cobra.Command {
	// HTTP Config
	httpConfig := shHTTP.NewDefaultConfig(c.Name)
	if len(c.CancelSignals) > 0 {
		httpConfig.CancelSignals = c.CancelSignals
	}
	// Logging Config
	lc := &log.Config{
		Fields: map[string]interface{}{
			"version": c.Version,
			"git_sha": c.shortSHA(),
		},
	}
	// Sentry Config
	sc := sentry.Config{AppVersion: c.Version}
	// Tracing Config
	tc := tracing.Config{ServiceName: c.Name}
	// CORS Config
	cc := cors.Config{}

	cmd := &cobra.Command{
		Use:               c.Name,
		Short:             shortDescription,
		Long:              longDescription,
		Version:           fmt.Sprintf("%s (%s)", c.Version, c.GitSHA),
		SilenceUsage:      true,
		PersistentPreRunE: cli.CobraBindEnvironmentVariables(strings.ReplaceAll(c.Name, "-", "_")),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if err := c.CheckFlags(); err != nil {
				return err
			}
			if sc.Environment == "" {
				sc.Environment = c.Environment
			}
			if sc.Enabled {
				lc.Cores = append(lc.Cores, sentry.NewCore())
			}
			if err := lc.InitializeLogger(); err != nil {
				return err
			}
			if err := sc.InitializeSentry(); err != nil {
				return err
			}
			shutdown, err := tc.TracerProvider()
			if err != nil {
				return err
			}
			defer func() {
				err = multierr.Append(err, shutdown(context.Background()))
			}()

			httpConfig.GlobalMiddleware = []mux.MiddlewareFunc{
				tracing.HTTPServerMiddleware,
				log.HTTPServerMiddleware,
				sentry.NewMiddleware().HTTP,
			}
			httpConfig.Middleware = []mux.MiddlewareFunc{
				shHTTP.NewMetrics(c.Name, c.Registry, false).Middleware,
			}
			if cc.EnableMiddleware {
				corsMiddleware, err := cc.GetHTTPServerMiddleware(cors.NewMetrics(c.Registry, false), c.CORSErrorHandler)
				if err != nil {
					return fmt.Errorf("invalid cors configuration: %w", err)
				}
				httpConfig.GlobalMiddleware = append(httpConfig.GlobalMiddleware, corsMiddleware)
				log.Get(ctx).Info("cors middleware enabled", cc.LogFields()...)
			}

			runCtx := ctx
			if c.PreStart != nil {
				if runCtx, err = c.PreStart(runCtx); err != nil {
					return err
				}
			}
			if newHTTPService != nil {
				httpConfig.RegisterHandlers = newHTTPService(c).RegisterHandlers
			}
			httpConfig.NewServer().Run(runCtx)
			if c.PostShutdown != nil {
				if err := c.PostShutdown(runCtx); err != nil {
					return err
				}
			}
			log.Get(ctx).Info("server stopped", zap.String("name", c.Name))
			return nil
		},
	}
	// Register Cobra/Viper CLI Flags
	flags := cmd.Flags()
	c.RegisterFlags(flags)
	httpConfig.RegisterFlags(flags)
	lc.RegisterFlags(flags)
	sc.RegisterFlags(flags)
	tc.RegisterFlags(flags, c.Name)
	cc.RegisterFlags(flags)
	return cmd
}
