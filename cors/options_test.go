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
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDecodeOptions(t *testing.T) {
	tests := []struct {
		input       map[string]interface{}
		expected    Options
		name        string
		expectError bool
	}{
		{
			name:     "empty map decodes to zero options",
			input:    map[string]interface{}{},
			expected: Options{},
		}, {
			name: "all keys",
			input: map[string]interface{}{
				"origin":         []string{"http://www.example.com", "http://mobile.example.com"},
				"methods":        []string{"GET", "POST"},
				"headers.allow":  []string{"Authorization", "If-Match"},
				"headers.expose": []string{"Etag"},
				"credentials":    true,
				"cache":          86400,
				"origin.server":  "https://example.com",
				"host.check":     true,
			},
			expected: Options{
				Origins:        []string{"http://www.example.com", "http://mobile.example.com"},
				Methods:        StaticMethods{"GET", "POST"},
				AllowedHeaders: []string{"Authorization", "If-Match"},
				ExposedHeaders: []string{"Etag"},
				Credentials:    true,
				MaxAge:         86400,
				ServerOrigin:   "https://example.com",
				CheckHost:      true,
			},
		}, {
			name:     "a single origin string is lifted into a list",
			input:    map[string]interface{}{"origin": "*"},
			expected: Options{Origins: []string{"*"}},
		}, {
			name:     "loosely typed values are converted",
			input:    map[string]interface{}{"credentials": "true", "cache": "60", "methods": []interface{}{"GET"}},
			expected: Options{Credentials: true, MaxAge: 60, Methods: StaticMethods{"GET"}},
		}, {
			name:        "unknown keys are rejected",
			input:       map[string]interface{}{"origins": []string{"*"}},
			expectError: true,
		}, {
			name:        "non-string methods are rejected",
			input:       map[string]interface{}{"methods": []interface{}{"GET", 42}},
			expectError: true,
		}, {
			name:        "unsupported methods value is rejected",
			input:       map[string]interface{}{"methods": 42},
			expectError: true,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			opts, err := DecodeOptions(test.input)
			if test.expectError {
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.expected, opts)
		})
	}
}

func TestDecodeOptionsMethodsProvider(t *testing.T) {
	opts, err := DecodeOptions(map[string]interface{}{
		"methods": func(RequestContext) []string { return []string{"DELETE"} },
	})
	require.NoError(t, err)
	require.NotNil(t, opts.Methods)
	assert.Equal(t, []string{"DELETE"}, opts.Methods.Methods(RequestContext{}))

	opts, err = DecodeOptions(map[string]interface{}{
		"methods": MethodsFunc(func(RequestContext) []string { return []string{"PATCH"} }),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"PATCH"}, opts.Methods.Methods(RequestContext{}))
}

func TestDecodeOptionsRejectsNilMethodsFunction(t *testing.T) {
	_, err := DecodeOptions(map[string]interface{}{
		"methods": (func(RequestContext) []string)(nil),
	})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	opts, err := DecodeOptions(map[string]interface{}{"methods": MethodsFunc(nil)})
	require.NoError(t, err)
	policy, err := NewPolicy(opts)
	assert.Nil(t, policy)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNewMiddlewareFromMap(t *testing.T) {
	logger := zap.NewNop()
	handler := func(r *http.Request, response Response, detail ErrorDetail) *Response {
		return nil
	}
	mw, err := NewMiddlewareFromMap(map[string]interface{}{
		"origin": []string{"*"},
		"error":  handler,
		"logger": logger,
		"cache":  10,
	})
	require.NoError(t, err)
	assert.NotNil(t, mw.Policy)
	assert.NotNil(t, mw.ErrorHandler)
	assert.Equal(t, logger, mw.Logger)
	assert.Equal(t, "10", mw.Policy.maxAge)

	_, err = NewMiddlewareFromMap(map[string]interface{}{"error": "not a function"})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewMiddlewareFromMap(map[string]interface{}{"logger": "stdout"})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewMiddlewareFromMap(map[string]interface{}{"cache": -1})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
