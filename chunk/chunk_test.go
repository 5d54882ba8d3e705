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

package chunk

import (
	"strings"
	"testing"

	"bennypowers.dev/rbundle/ids"
)

// TestNewSplitChunkDisambiguatesNameCollision exercises spec §4.H step 6:
// two split chunks deriving the same name must not silently collide.
func TestNewSplitChunkDisambiguatesNameCollision(t *testing.T) {
	interner := ids.NewInterner("c")
	g := New(interner)

	first := g.NewSplitChunk("vendors", nil, nil)
	if first.Name != "vendors" {
		t.Fatalf("expected first chunk named %q, got %q", "vendors", first.Name)
	}

	second := g.NewSplitChunk("vendors", nil, nil)
	if second.Name == "vendors" {
		t.Fatalf("expected second chunk's name to be disambiguated, got %q", second.Name)
	}
	if !strings.HasPrefix(second.Name, "vendors~") {
		t.Fatalf("expected disambiguated name to keep the %q prefix, got %q", "vendors~", second.Name)
	}
	if second.Ukey == first.Ukey {
		t.Fatalf("expected distinct chunk ukeys")
	}
}
