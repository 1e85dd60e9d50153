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

package cors

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterFlags(t *testing.T) {
	flags := pflag.NewFlagSet("pflags", pflag.PanicOnError)
	c := Config{}
	c.RegisterFlags(flags)
	err := flags.Parse(nil)
	assert.NoError(t, err)

	enableMiddleware, err := flags.GetBool("cors-enable-middleware")
	assert.NoError(t, err)
	assert.Equal(t, false, enableMiddleware)

	for _, name := range []string{
		"cors-allowed-origins",
		"cors-allowed-methods",
		"cors-allowed-headers",
		"cors-exposed-headers",
		"cors-server-origin",
	} {
		value, err := flags.GetString(name)
		assert.NoError(t, err)
		assert.Equal(t, "", value, name)
	}

	maxAge, err := flags.GetInt("cors-max-age")
	assert.NoError(t, err)
	assert.Equal(t, 0, maxAge)

	credentials, err := flags.GetBool("cors-allow-credentials")
	assert.NoError(t, err)
	assert.False(t, credentials)
}

func TestRegisterFlagsBindsFields(t *testing.T) {
	flags := pflag.NewFlagSet("pflags", pflag.PanicOnError)
	c := Config{}
	c.RegisterFlags(flags)
	require.NoError(t, flags.Parse([]string{
		"--cors-allowed-methods=GET",
		"--cors-allowed-headers=Authorization",
		"--cors-check-host",
		"--cors-max-age=60",
	}))
	assert.Equal(t, "GET", c.AllowedMethods)
	assert.Equal(t, "Authorization", c.AllowedHeaders)
	assert.True(t, c.CheckHost)
	assert.Equal(t, 60, c.MaxAge)
}
