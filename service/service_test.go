// Copyright 2021 SpotHero
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
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockHTTPService struct{}

func (ms mockHTTPService) RegisterHandlers(_ *mux.Router) {}

type prePost struct {
	mock.Mock
}

func (p *prePost) preStart(ctx context.Context) (context.Context, error) {
	returns := p.Called(ctx)
	return returns.Get(0).(context.Context), returns.Error(1)
}

func (p *prePost) postShutdown(ctx context.Context) error {
	return p.Called(ctx).Error(0)
}

var testArgs = []string{
	"--port=0",
	"--tracer-enabled=false",
	"--sentry-enabled=false",
	"--cors-enable-middleware",
	"--cors-allowed-origins=https://*.example.com",
}

func TestDefaultServer(t *testing.T) {
	mockPrePost := prePost{}
	c := Config{
		Name:         "test",
		Environment:  "test",
		Registry:     prometheus.NewRegistry(),
		Version:      "0.1.0",
		GitSHA:       "abc123",
		PreStart:     mockPrePost.preStart,
		PostShutdown: mockPrePost.postShutdown,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	cmd := c.ServerCmd(
		ctx,
		"short",
		"long",
		func(Config) HTTPService { return mockHTTPService{} },
	)
	assert.NotNil(t, cmd)
	assert.NotZero(t, cmd.Use)
	assert.NotZero(t, cmd.Short)
	assert.NotZero(t, cmd.Long)
	assert.True(t, strings.Contains(cmd.Version, c.Version))
	assert.True(t, strings.Contains(cmd.Version, c.GitSHA))
	assert.NotNil(t, cmd.PersistentPreRunE)
	assert.NotNil(t, cmd.RunE)
	assert.True(t, cmd.Flags().HasFlags())
	for _, name := range []string{"name", "port", "log-level", "tracer-enabled", "sentry-dsn", "cors-allowed-origins"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), name)
	}
	mockPrePost.On("preStart", mock.Anything).Return(ctx, nil)
	mockPrePost.On("postShutdown", ctx).Return(nil)
	defer mockPrePost.AssertExpectations(t)

	cmd.SetArgs(testArgs)
	assert.NoError(t, cmd.Execute())
}

func TestServerCmdErrors(t *testing.T) {
	tests := []struct {
		name     string
		c        Config
		args     []string
		contains string
	}{
		{
			name:     "missing configuration is reported",
			c:        Config{Name: "test"},
			args:     testArgs,
			contains: "no environment specified",
		}, {
			name:     "an invalid cors configuration is reported",
			c:        Config{Name: "test", Environment: "test", Version: "0.1.0", GitSHA: "abc123", Registry: prometheus.NewRegistry()},
			args:     append(append([]string{}, testArgs...), "--cors-max-age=-1"),
			contains: "invalid cors configuration",
		}, {
			name: "a failing pre start stops the server",
			c: Config{
				Name: "test", Environment: "test", Version: "0.1.0", GitSHA: "abc123", Registry: prometheus.NewRegistry(),
				PreStart: func(ctx context.Context) (context.Context, error) {
					return ctx, errors.New("pre start failed")
				},
			},
			args:     testArgs,
			contains: "pre start failed",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()
			cmd := test.c.ServerCmd(ctx, "short", "long", nil)
			cmd.SetArgs(test.args)
			cmd.SilenceErrors = true
			err := cmd.Execute()
			require.Error(t, err)
			assert.Contains(t, err.Error(), test.contains)
		})
	}
}

func TestShortSHA(t *testing.T) {
	assert.Equal(t, "abc123", Config{GitSHA: "abc123def456"}.shortSHA())
	assert.Equal(t, "abc", Config{GitSHA: "abc"}.shortSHA())
}
