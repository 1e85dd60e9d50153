// Copyright 2024 SpotHero
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

package cors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestNewPolicy(t *testing.T) {
	tests := []struct {
		name        string
		opts        Options
		numErrors   int
		expectError bool
	}{
		{
			name: "zero options are valid",
		}, {
			name: "fully populated options are valid",
			opts: Options{
				Origins:        []string{"https://*.example.com"},
				Methods:        StaticMethods{"GET", "PROPFIND"},
				AllowedHeaders: []string{"Authorization"},
				ExposedHeaders: []string{"Etag"},
				Credentials:    true,
				MaxAge:         600,
				ServerOrigin:   "https://api.example.com:8443",
				CheckHost:      true,
			},
		}, {
			name:        "negative max age",
			opts:        Options{MaxAge: -1},
			expectError: true,
			numErrors:   1,
		}, {
			name:        "server origin without a scheme",
			opts:        Options{ServerOrigin: "example.com"},
			expectError: true,
			numErrors:   1,
		}, {
			name:        "unparsable server origin",
			opts:        Options{ServerOrigin: "https://exa mple.com:port"},
			expectError: true,
			numErrors:   1,
		}, {
			name:        "invalid method token",
			opts:        Options{Methods: StaticMethods{"GET", "PU T"}},
			expectError: true,
			numErrors:   1,
		}, {
			name:        "empty origin pattern",
			opts:        Options{Origins: []string{"https://example.com", ""}},
			expectError: true,
			numErrors:   1,
		}, {
			name:        "nil methods function",
			opts:        Options{Methods: MethodsFunc(nil)},
			expectError: true,
			numErrors:   1,
		}, {
			name:        "nil methods provider pointer",
			opts:        Options{Methods: (*pointerMethods)(nil)},
			expectError: true,
			numErrors:   1,
		}, {
			name: "non-nil methods provider pointer",
			opts: Options{Methods: &pointerMethods{"GET"}},
		}, {
			name:        "every problem is reported",
			opts:        Options{Origins: []string{""}, MaxAge: -5, ServerOrigin: "nope"},
			expectError: true,
			numErrors:   3,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			policy, err := NewPolicy(test.opts)
			if test.expectError {
				assert.Nil(t, policy)
				require.Error(t, err)
				errs := multierr.Errors(err)
				assert.Len(t, errs, test.numErrors)
				for _, e := range errs {
					assert.ErrorIs(t, e, ErrInvalidConfig)
				}
				return
			}
			assert.NoError(t, err)
			assert.NotNil(t, policy)
		})
	}
}

type pointerMethods []string

func (pm *pointerMethods) Methods(RequestContext) []string { return *pm }

func TestNewPolicyDefaults(t *testing.T) {
	policy, err := NewPolicy(Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"*"}, policy.Origins())
	assert.True(t, policy.anyOrigin)
	assert.Equal(t, StaticMethods(DefaultMethods()), policy.methods)
	assert.Empty(t, policy.allowHeaders)
	assert.Equal(t, "0", policy.maxAge)
	assert.False(t, policy.credentials)
	assert.Nil(t, policy.server)
}

func TestNewPolicyCopiesOptions(t *testing.T) {
	origins := []string{"https://www.example.com"}
	methods := StaticMethods{"GET"}
	policy, err := NewPolicy(Options{Origins: origins, Methods: methods})
	require.NoError(t, err)

	origins[0] = "https://evil.com"
	methods[0] = "DELETE"
	assert.Equal(t, []string{"https://www.example.com"}, policy.Origins())
	assert.Equal(t, StaticMethods{"GET"}, policy.methods)

	returned := policy.Origins()
	returned[0] = "https://evil.com"
	assert.Equal(t, []string{"https://www.example.com"}, policy.Origins())
}

func TestParseServerOrigin(t *testing.T) {
	tests := []struct {
		raw      string
		expected serverOrigin
	}{
		{"https://example.com", serverOrigin{"https", "example.com", "443"}},
		{"http://example.com", serverOrigin{"http", "example.com", "80"}},
		{"http://localhost:8080", serverOrigin{"http", "localhost", "8080"}},
		{"HTTPS://Example.com/", serverOrigin{"https", "Example.com", "443"}},
		{"http://[::1]:9000", serverOrigin{"http", "::1", "9000"}},
	}
	for _, test := range tests {
		t.Run(test.raw, func(t *testing.T) {
			so, err := parseServerOrigin(test.raw)
			require.NoError(t, err)
			assert.Equal(t, test.expected, *so)
		})
	}
}

func TestServerOriginSameHost(t *testing.T) {
	so := serverOrigin{"https", "api.example.com", "443"}
	assert.True(t, so.sameHost("api.example.com"))
	assert.True(t, so.sameHost("API.example.com:443"))
	assert.False(t, so.sameHost("api.example.com:8443"))
	assert.False(t, so.sameHost("www.example.com"))

	local := serverOrigin{"http", "::1", "80"}
	assert.True(t, local.sameHost("[::1]"))
	assert.True(t, local.sameHost("[::1]:80"))
}

func TestServerOriginSameOrigin(t *testing.T) {
	so := serverOrigin{"https", "example.com", "443"}
	assert.True(t, so.sameOrigin("https://example.com"))
	assert.True(t, so.sameOrigin("https://EXAMPLE.com:443"))
	assert.False(t, so.sameOrigin("http://example.com"))
	assert.False(t, so.sameOrigin("null"))
	assert.False(t, so.sameOrigin("https://www.example.com"))
}
