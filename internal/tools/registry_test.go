package tools

import (
	"context"
	"testing"

	"github.com/quorumbot/quorum/internal/llm"
	"github.com/quorumbot/quorum/internal/log"
)

func testDefinition(name string, adminOnly bool) *Definition {
	return &Definition{
		Name:        name,
		Description: "test tool " + name,
		AdminOnly:   adminOnly,
		Parameters:  map[string]any{"type": "object"},
		Handler: func(_ context.Context, _ map[string]any) (any, error) {
			return name, nil
		},
	}
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry(log.NewNop())

	if err := r.Register(testDefinition("alpha", false)); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := r.Register(testDefinition("alpha", false)); err == nil {
		t.Error("Register() duplicate name should fail")
	}
	if err := r.Register(testDefinition("", false)); err == nil {
		t.Error("Register() empty name should fail")
	}
	if err := r.Register(&Definition{Name: "no-handler"}); err == nil {
		t.Error("Register() nil handler should fail")
	}
	if r.Count() != 1 {
		t.Errorf("Count() = %d, want 1", r.Count())
	}
}

func TestRegistry_SpecsFilterAdminOnly(t *testing.T) {
	r := NewRegistry(log.NewNop())
	mustRegister(t, r, testDefinition("public_a", false))
	mustRegister(t, r, testDefinition("admin_only", true))
	mustRegister(t, r, testDefinition("public_b", false))

	specs := r.Specs(false)
	if len(specs) != 2 {
		t.Fatalf("Specs(false) returned %d specs, want 2", len(specs))
	}
	// Registration order is preserved.
	if specs[0].Name != "public_a" || specs[1].Name != "public_b" {
		t.Errorf("Specs(false) order = %s, %s", specs[0].Name, specs[1].Name)
	}

	if got := len(r.Specs(true)); got != 3 {
		t.Errorf("Specs(true) returned %d specs, want 3", got)
	}
}

func TestRegistry_ImplementationsFilterAdminOnly(t *testing.T) {
	r := NewRegistry(log.NewNop())
	mustRegister(t, r, testDefinition("public", false))
	mustRegister(t, r, testDefinition("admin_only", true))

	impls := r.Implementations(false)
	if _, ok := impls["admin_only"]; ok {
		t.Error("Implementations(false) should not contain admin-only tools")
	}
	if _, ok := impls["public"]; !ok {
		t.Error("Implementations(false) missing public tool")
	}

	if _, ok := r.Implementations(true)["admin_only"]; !ok {
		t.Error("Implementations(true) missing admin-only tool")
	}
}

func TestRegistry_Lookup(t *testing.T) {
	r := NewRegistry(log.NewNop())
	mustRegister(t, r, testDefinition("known", false))

	if _, ok := r.Lookup("known"); !ok {
		t.Error("Lookup(known) = false, want true")
	}
	if _, ok := r.Lookup("missing"); ok {
		t.Error("Lookup(missing) = true, want false")
	}
}

func TestRegistry_Describers(t *testing.T) {
	r := NewRegistry(log.NewNop())
	withDescribe := testDefinition("described", false)
	withDescribe.Describe = func(llm.ToolCall) string { return "doing the thing" }
	mustRegister(t, r, withDescribe)
	mustRegister(t, r, testDefinition("plain", false))

	describers := r.Describers()
	if len(describers) != 1 {
		t.Fatalf("Describers() returned %d entries, want 1", len(describers))
	}
	if got := describers["described"](llm.ToolCall{}); got != "doing the thing" {
		t.Errorf("describer output = %q", got)
	}
}

func mustRegister(t *testing.T, r *Registry, def *Definition) {
	t.Helper()
	if err := r.Register(def); err != nil {
		t.Fatalf("Register(%s) error = %v", def.Name, err)
	}
}
