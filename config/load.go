/*
Copyright © 2025 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Load reads a YAML/JSON/TOML config file at path, overlays environment
// variables prefixed RBUNDLE_, and decodes into a CompilerOptions seeded
// with DefaultCompilerOptions. This is a convenience for host programs
// (the CLI, test harnesses); the core never calls it itself. Grounded on
// the teacher's cmd/config viper wiring, minus the cobra flag binding
// (the CLI surface is out of scope, see SPEC_FULL.md §11).
func Load(path string) (*CompilerOptions, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("RBUNDLE")
	v.AutomaticEnv()

	opts := DefaultCompilerOptions()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := v.Unmarshal(opts); err != nil {
		return nil, fmt.Errorf("config: decoding %s: %w", path, err)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}
