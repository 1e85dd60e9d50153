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
	"fmt"
	"net/http"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

// Keys recognized by DecodeOptions and NewMiddlewareFromMap
const (
	KeyOrigin        = "origin"
	KeyMethods       = "methods"
	KeyHeadersAllow  = "headers.allow"
	KeyHeadersExpose = "headers.expose"
	KeyCredentials   = "credentials"
	KeyCache         = "cache"
	KeyOriginServer  = "origin.server"
	KeyHostCheck     = "host.check"
	KeyError         = "error"
	KeyLogger        = "logger"
)

type mapOptions struct {
	Origin        []string    `mapstructure:"origin"`
	Methods       interface{} `mapstructure:"methods"`
	HeadersAllow  []string    `mapstructure:"headers.allow"`
	HeadersExpose []string    `mapstructure:"headers.expose"`
	Credentials   bool        `mapstructure:"credentials"`
	Cache         int         `mapstructure:"cache"`
	OriginServer  string      `mapstructure:"origin.server"`
	HostCheck     bool        `mapstructure:"host.check"`
}

// DecodeOptions decodes a flat options map, such as
//
//	map[string]interface{}{
//		"origin":        []string{"https://*.example.com"},
//		"methods":       []string{"GET", "POST"},
//		"headers.allow": []string{"Authorization"},
//		"credentials":   true,
//		"cache":         86400,
//	}
//
// into Options. "origin" may be a single string. "methods" may be a list of
// strings, a MethodsProvider or a func(RequestContext) []string. Unknown keys
// are an error.
func DecodeOptions(m map[string]interface{}) (Options, error) {
	var raw mapOptions
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           &raw,
	})
	if err != nil {
		return Options{}, err
	}
	if err := decoder.Decode(m); err != nil {
		return Options{}, fmt.Errorf("%w: %s", ErrInvalidConfig, err.Error())
	}
	methods, err := decodeMethods(raw.Methods)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Origins:        raw.Origin,
		Methods:        methods,
		AllowedHeaders: raw.HeadersAllow,
		ExposedHeaders: raw.HeadersExpose,
		Credentials:    raw.Credentials,
		MaxAge:         raw.Cache,
		ServerOrigin:   raw.OriginServer,
		CheckHost:      raw.HostCheck,
	}, nil
}

func decodeMethods(value interface{}) (MethodsProvider, error) {
	switch methods := value.(type) {
	case nil:
		return nil, nil
	case MethodsProvider:
		return methods, nil
	case func(RequestContext) []string:
		if methods == nil {
			return nil, fmt.Errorf("%w: nil methods function", ErrInvalidConfig)
		}
		return MethodsFunc(methods), nil
	case string:
		return StaticMethods{methods}, nil
	case []string:
		return StaticMethods(methods), nil
	case []interface{}:
		static := make(StaticMethods, 0, len(methods))
		for _, method := range methods {
			s, ok := method.(string)
			if !ok {
				return nil, fmt.Errorf("%w: method %v is not a string", ErrInvalidConfig, method)
			}
			static = append(static, s)
		}
		return static, nil
	}
	return nil, fmt.Errorf("%w: unsupported methods value of type %T", ErrInvalidConfig, value)
}

// NewMiddlewareFromMap builds a Middleware from an options map. On top of the
// keys accepted by DecodeOptions it reads "error" (an ErrorHandler or a
// function of the same signature) and "logger" (a *zap.Logger).
func NewMiddlewareFromMap(m map[string]interface{}) (*Middleware, error) {
	policyOptions := make(map[string]interface{}, len(m))
	mw := &Middleware{}
	for key, value := range m {
		switch key {
		case KeyError:
			switch handler := value.(type) {
			case nil:
			case ErrorHandler:
				mw.ErrorHandler = handler
			case func(*http.Request, Response, ErrorDetail) *Response:
				mw.ErrorHandler = handler
			default:
				return nil, fmt.Errorf("%w: unsupported error handler of type %T", ErrInvalidConfig, value)
			}
		case KeyLogger:
			switch logger := value.(type) {
			case nil:
			case *zap.Logger:
				mw.Logger = logger
			default:
				return nil, fmt.Errorf("%w: unsupported logger of type %T", ErrInvalidConfig, value)
			}
		default:
			policyOptions[key] = value
		}
	}
	opts, err := DecodeOptions(policyOptions)
	if err != nil {
		return nil, err
	}
	if mw.Policy, err = NewPolicy(opts); err != nil {
		return nil, err
	}
	return mw, nil
}
