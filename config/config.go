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

// Package config holds the frozen compiler-options surface the core
// consumes (spec §6). Loading is a thin convenience over viper; the core
// itself only ever reads a *CompilerOptions value, never a config file.
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Target is the platform the emitted chunks run on.
type Target string

const (
	TargetBrowser Target = "browser"
	TargetNode    Target = "node"
)

// Devtool describes the requested source-map/eval behavior. Source-map
// synthesis itself is delegated (spec §1 non-goals); the core only needs
// to know which rendering shape to pick (spec §4.I).
type Devtool struct {
	Eval      bool
	SourceMap bool
	Cheap     bool
}

// CacheMode selects the persistent-cache behavior. Serialization itself is
// opaque to the core (spec §6 "Persisted state").
type CacheMode string

const (
	CacheDisabled CacheMode = "disabled"
	CacheMemory   CacheMode = "memory"
	CachePersist  CacheMode = "persistent"
)

// ChunkSelector restricts a split-chunks rule to a subset of chunk kinds.
type ChunkSelector string

const (
	ChunksInitial ChunkSelector = "initial"
	ChunksAsync   ChunkSelector = "async"
	ChunksAll     ChunkSelector = "all"
)

// CacheGroupOptions is one named split-chunks rule (spec §6 ENUMERATED).
type CacheGroupOptions struct {
	Name               string        `mapstructure:"name" yaml:"name"`
	Priority           int32         `mapstructure:"priority" yaml:"priority"`
	ReuseExistingChunk bool          `mapstructure:"reuseExistingChunk" yaml:"reuseExistingChunk"`
	Test               string        `mapstructure:"test" yaml:"test"` // regex source, compiled once per build
	Chunks             ChunkSelector `mapstructure:"chunks" yaml:"chunks"`
	MinChunks          uint32        `mapstructure:"minChunks" yaml:"minChunks"`
}

// SplitChunksOptions configures the split-chunks engine (spec §4.H, §6).
type SplitChunksOptions struct {
	Chunks              ChunkSelector                `mapstructure:"chunks" yaml:"chunks"`
	MaxAsyncRequests    uint32                        `mapstructure:"maxAsyncRequests" yaml:"maxAsyncRequests"`
	MaxInitialRequests  uint32                        `mapstructure:"maxInitialRequests" yaml:"maxInitialRequests"`
	MinChunks           uint32                        `mapstructure:"minChunks" yaml:"minChunks"`
	MinSize             float64                       `mapstructure:"minSize" yaml:"minSize"`
	EnforceSizeThreshold float64                      `mapstructure:"enforceSizeThreshold" yaml:"enforceSizeThreshold"`
	MinRemainingSize    float64                       `mapstructure:"minRemainingSize" yaml:"minRemainingSize"`
	CacheGroups         map[string]CacheGroupOptions  `mapstructure:"cacheGroups" yaml:"cacheGroups"`
}

// DefaultSplitChunksOptions mirrors the thresholds a bundler ships out of
// the box: at most 30 initial and 30 async requests per parent chunk, and a
// sensible size floor so we don't split out a kilobyte-sized vendor chunk.
func DefaultSplitChunksOptions() SplitChunksOptions {
	return SplitChunksOptions{
		Chunks:              ChunksAsync,
		MaxAsyncRequests:    30,
		MaxInitialRequests:  30,
		MinChunks:           1,
		MinSize:             20000,
		EnforceSizeThreshold: 50000,
		MinRemainingSize:    0,
		CacheGroups:         map[string]CacheGroupOptions{},
	}
}

// ResolveOptions configures request resolution (spec §3 Dep.resolve_options,
// §6 Resolver factory contract).
type ResolveOptions struct {
	Extensions     []string `mapstructure:"extensions" yaml:"extensions"`
	MainFiles      []string `mapstructure:"mainFiles" yaml:"mainFiles"`
	ConditionNames []string `mapstructure:"conditionNames" yaml:"conditionNames"`
	// Exclude holds doublestar glob patterns (e.g. "**/*.test.js",
	// "**/node_modules/**") a resolved candidate path must not match; the
	// resolver treats a matching candidate as not found and keeps trying
	// the remaining extension/main-file combinations.
	Exclude []string `mapstructure:"exclude" yaml:"exclude"`
}

// DefaultResolveOptions matches the conventional JS/TS resolution order.
func DefaultResolveOptions() ResolveOptions {
	return ResolveOptions{
		Extensions:     []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".css", ".json"},
		MainFiles:      []string{"index"},
		ConditionNames: []string{"import", "module", "default"},
		Exclude:        nil,
	}
}

// CompilerOptions is the frozen configuration the core consumes (spec §6).
// It is populated once per compilation and never mutated in place — every
// task of a make cycle reads the same *CompilerOptions, matching rspack's
// Arc<CompilerOptions> sharing discipline. Clone gives a caller an
// independent copy.
type CompilerOptions struct {
	Entry        map[string]string `mapstructure:"entry" yaml:"entry"`
	OutputPath   string            `mapstructure:"outputPath" yaml:"outputPath"`
	Filename     string            `mapstructure:"filename" yaml:"filename"`
	ChunkFilename string           `mapstructure:"chunkFilename" yaml:"chunkFilename"`
	Target       Target            `mapstructure:"target" yaml:"target"`
	Devtool      Devtool           `mapstructure:"devtool" yaml:"devtool"`
	Cache        CacheMode         `mapstructure:"cache" yaml:"cache"`
	Resolve      ResolveOptions    `mapstructure:"resolve" yaml:"resolve"`
	SplitChunks  SplitChunksOptions `mapstructure:"splitChunks" yaml:"splitChunks"`
}

// DefaultCompilerOptions returns a CompilerOptions populated with the same
// defaults a fresh compiler would assume with no configuration at all.
func DefaultCompilerOptions() *CompilerOptions {
	return &CompilerOptions{
		Entry:         map[string]string{},
		OutputPath:    "dist",
		Filename:      "[name].[contenthash].js",
		ChunkFilename: "[id].[contenthash].chunk.js",
		Target:        TargetBrowser,
		Devtool:       Devtool{SourceMap: true},
		Cache:         CacheMemory,
		Resolve:       DefaultResolveOptions(),
		SplitChunks:   DefaultSplitChunksOptions(),
	}
}

// Clone deep-copies maps/slices so the task loop never observes a mutation
// made to the caller's copy mid-cycle (grounded on CemConfig.Clone).
func (c *CompilerOptions) Clone() *CompilerOptions {
	if c == nil {
		return nil
	}
	clone := *c

	clone.Entry = make(map[string]string, len(c.Entry))
	for k, v := range c.Entry {
		clone.Entry[k] = v
	}

	clone.Resolve.Extensions = append([]string(nil), c.Resolve.Extensions...)
	clone.Resolve.MainFiles = append([]string(nil), c.Resolve.MainFiles...)
	clone.Resolve.ConditionNames = append([]string(nil), c.Resolve.ConditionNames...)
	clone.Resolve.Exclude = append([]string(nil), c.Resolve.Exclude...)

	clone.SplitChunks.CacheGroups = make(map[string]CacheGroupOptions, len(c.SplitChunks.CacheGroups))
	for k, v := range c.SplitChunks.CacheGroups {
		clone.SplitChunks.CacheGroups[k] = v
	}

	return &clone
}

// Validate reports a configuration error early rather than letting the task
// loop discover it mid-cycle as an "Invariant violation" (spec §7).
func (c *CompilerOptions) Validate() error {
	if len(c.Entry) == 0 {
		return errEntry
	}
	return nil
}

// Hash fingerprints the subset of options that change a build's codegen
// output, for use as part of the build cache key (spec §4.D BuildTask
// "compiler options hash"). Two compilations with the same fingerprint
// produce byte-identical Generate() output for the same source.
func (c *CompilerOptions) Hash() string {
	h := sha256.New()
	fmt.Fprintf(h, "target=%s\x00devtool=%v\x00", c.Target, c.Devtool)
	return hex.EncodeToString(h.Sum(nil))[:16]
}
