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

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

// CobraBindEnvironmentVariables can be used at the root command level of a cobra CLI hierarchy to allow
// all command-line variables to be set by environment variables as well. Note that
// skewered-variable-names will automatically be translated to skewered_variable_names
// for compatibility with environment variables.
//
// In addition, you can pass in an application name prefix such that all environment variables
// will need to start with PREFIX_ to be picked up as valid environment variables. For example,
// if you specified the prefix as "corsproxy", then the program would only detect environment
// variables like "CORSPROXY_CORS_ALLOWED_ORIGINS" and not "CORS_ALLOWED_ORIGINS". There is no need to
// capitalize the prefix name.
//
// Slice and array flags such as --log-output-paths accept a comma-separated environment value.
//
// Note: CLI arguments (eg --address=localhost) will always take precedence over environment variables
func CobraBindEnvironmentVariables(prefix string) func(cmd *cobra.Command, _ []string) error {
	v := viper.New()
	// Search for environment values with the given prefix
	v.SetEnvPrefix(prefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	// Automatically extract values from Cobra pflags as prefixed above
	v.AutomaticEnv()

	return func(cmd *cobra.Command, _ []string) error {
		var err error
		// Provide flags to Viper for environment variable overrides
		cmd.Flags().VisitAll(func(f *pflag.Flag) {
			if f.Changed || !v.IsSet(f.Name) {
				return
			}
			strV := v.GetString(f.Name)
			if sv, ok := f.Value.(pflag.SliceValue); ok {
				if setErr := sv.Replace(splitList(strV)); setErr != nil {
					err = multierr.Append(err, fmt.Errorf("invalid value for %s: %w", f.Name, setErr))
				}
				return
			}
			if setErr := cmd.Flags().Set(f.Name, strV); setErr != nil {
				err = multierr.Append(err, fmt.Errorf("invalid value for %s: %w", f.Name, setErr))
			}
		})
		return err
	}
}

// splitList splits a comma-separated environment value, dropping empty entries
func splitList(value string) []string {
	items := make([]string, 0)
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
