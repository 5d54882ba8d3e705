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

package codegen

import (
	"context"
	"fmt"

	"bennypowers.dev/rbundle/graph"
)

// AssetGenerator is the fallback ParserAndGenerator for any resource that
// doesn't match a more specific module type: a leaf with no outgoing
// dependencies, whose "asset" source is its own bytes untouched.
type AssetGenerator struct{}

func (g AssetGenerator) SourceTypes() []string { return []string{"asset"} }

func (g AssetGenerator) Size(m *graph.Mod, sourceType string) float64 {
	return float64(len(m.OriginalSource))
}

func (g AssetGenerator) Parse(ctx context.Context, m *graph.Mod, source []byte) error {
	m.OriginalSource = source
	m.OutgoingDeps = nil
	return nil
}

func (g AssetGenerator) Generate(ctx context.Context, m *graph.Mod, sourceType string) (graph.GeneratedSource, error) {
	if sourceType != "asset" {
		return graph.GeneratedSource{}, fmt.Errorf("codegen: AssetGenerator cannot emit source type %q", sourceType)
	}
	return graph.GeneratedSource{Code: string(m.OriginalSource)}, nil
}
