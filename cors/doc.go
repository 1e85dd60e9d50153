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

/*
Package cors decides whether cross-origin requests are permitted and builds the
response headers that tell the browser about that decision.

A Policy is built once from Options and shared by all requests:

	policy, err := cors.NewPolicy(cors.Options{
		Origins:        []string{"https://*.example.com"},
		AllowedHeaders: []string{"Authorization"},
		Credentials:    true,
	})

Each request is classified into one of the Kind values, and the Result is
turned into a HeaderSet:

	result := policy.Classify(cors.NewRequestContext(r))
	policy.Headers(result).Apply(w.Header())

Middleware wires both steps into a net/http (or gorilla/mux) handler chain and
takes care of status codes, error handlers, logging and metrics.
*/
package cors
