package plugin

import (
	"context"
	"testing"

	"bennypowers.dev/rbundle/codegen"
	"bennypowers.dev/rbundle/diagnostics"
	"bennypowers.dev/rbundle/graph"
)

type recordingGenerator struct{}

func (recordingGenerator) SourceTypes() []string { return []string{"javascript"} }
func (recordingGenerator) Size(m *graph.Mod, sourceType string) float64 { return 0 }
func (recordingGenerator) Parse(ctx context.Context, m *graph.Mod, source []byte) error { return nil }
func (recordingGenerator) Generate(ctx context.Context, m *graph.Mod, sourceType string) (graph.GeneratedSource, error) {
	return graph.GeneratedSource{}, nil
}

func TestNewDriverAppliesPluginsInOrder(t *testing.T) {
	var order []string
	p1 := PluginFunc(func(d *Driver) {
		order = append(order, "p1")
		d.Registry.Register(graph.ModuleTypeJS, func() codegen.ParserAndGenerator { return recordingGenerator{} })
	})
	p2 := PluginFunc(func(d *Driver) {
		order = append(order, "p2")
		d.Factorize.Tap(func(ctx context.Context, args FactorizeArgs) (FactorizeResult, bool, error) {
			return FactorizeResult{ResourcePath: args.Request, ModuleType: graph.ModuleTypeJS}, true, nil
		})
	})

	d := NewDriver([]Plugin{p1, p2})

	if len(order) != 2 || order[0] != "p1" || order[1] != "p2" {
		t.Fatalf("expected apply order [p1 p2], got %v", order)
	}
	if _, ok := d.Registry.For(graph.ModuleTypeJS); !ok {
		t.Fatalf("expected javascript builder to be registered")
	}
	res, ok, err := d.Factorize.Call(context.Background(), FactorizeArgs{Request: "./a.ts"})
	if err != nil || !ok || res.ResourcePath != "./a.ts" {
		t.Fatalf("got res=%+v ok=%v err=%v", res, ok, err)
	}
}

func TestDriverDiagnosticsCollectorIsSharedAndDrains(t *testing.T) {
	d := NewDriver(nil)
	d.Diagnostics.Add(diagnostics.Errorf("mod", diagnostics.Span{}, "bad thing"))
	if !d.Diagnostics.HasErrors() {
		t.Fatalf("expected HasErrors after Add")
	}
	drained := d.Diagnostics.Take()
	if len(drained) != 1 {
		t.Fatalf("expected 1 drained diagnostic, got %d", len(drained))
	}
	if d.Diagnostics.HasErrors() {
		t.Fatalf("expected collector to be empty after Take")
	}
}
