package resolver

import (
	"testing"
	"testing/fstest"

	"bennypowers.dev/rbundle/config"
)

func TestFSResolverResolvesExtensionlessImport(t *testing.T) {
	fsys := fstest.MapFS{
		"src/a.ts": {Data: []byte("export const a = 1;")},
		"src/b.ts": {Data: []byte("import { a } from './a';")},
	}
	r := NewFSResolver(fsys)
	opts := config.DefaultResolveOptions()

	got, err := r.Resolve("./a", "src", opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Path != "src/a.ts" || got.ModuleType != "typescript" {
		t.Fatalf("got %+v", got)
	}
}

func TestFSResolverRejectsBareSpecifier(t *testing.T) {
	fsys := fstest.MapFS{"node_modules/lodash/index.js": {Data: []byte("")}}
	r := NewFSResolver(fsys)
	if _, err := r.Resolve("lodash", "src", config.DefaultResolveOptions()); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for bare specifier, got %v", err)
	}
}

func TestFSResolverResolvesIndexFile(t *testing.T) {
	fsys := fstest.MapFS{
		"src/comp/index.ts": {Data: []byte("export {};")},
	}
	r := NewFSResolver(fsys)
	got, err := r.Resolve("./comp", "src", config.DefaultResolveOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Path != "src/comp/index.ts" {
		t.Fatalf("got %+v", got)
	}
}

// TestFSResolverHonorsExcludeGlob exercises ResolveOptions.Exclude: a
// candidate matching an exclude pattern must be treated as not found, not
// silently resolved.
func TestFSResolverHonorsExcludeGlob(t *testing.T) {
	fsys := fstest.MapFS{
		"src/a.test.ts": {Data: []byte("export const a = 1;")},
	}
	r := NewFSResolver(fsys)
	opts := config.DefaultResolveOptions()
	opts.Exclude = []string{"**/*.test.ts"}

	if _, err := r.Resolve("./a.test", "src", opts); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for excluded candidate, got %v", err)
	}
}
