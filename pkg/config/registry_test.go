package config

import (
	"testing"

	"github.com/nkhine/itools/pkg/handler"
	"github.com/nkhine/itools/pkg/resource"
)

func formatOf(t *testing.T, r *handler.Registry, sig handler.Signature) string {
	t.Helper()
	f, ok := r.Resolve(sig)(sig).(*handler.File)
	if !ok {
		t.Fatalf("Resolve(%+v) did not build a file", sig)
	}
	return f.Format().Name()
}

func TestNewRegistry_Bindings(t *testing.T) {
	r, err := NewRegistry(FormatsConfig{
		Suffixes: map[string]string{".conf": "yaml", ".txt": "json"},
		Tags:     map[string]string{"application/vnd.api+json": "json"},
	})
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}

	tests := []struct {
		sig  handler.Signature
		want string
	}{
		{handler.Signature{Name: "app.conf", Kind: resource.KindFile}, "yaml"},
		{handler.Signature{Name: "notes.txt", Kind: resource.KindFile}, "json"},
		{handler.Signature{Name: "blob", Kind: resource.KindFile, Tag: "application/vnd.api+json"}, "json"},
		{handler.Signature{Name: "a.toml", Kind: resource.KindFile}, "toml"},
	}
	for _, tt := range tests {
		if got := formatOf(t, r, tt.sig); got != tt.want {
			t.Errorf("%+v resolved to %q, want %q", tt.sig, got, tt.want)
		}
	}
}

func TestNewRegistry_UnknownFormat(t *testing.T) {
	if _, err := NewRegistry(FormatsConfig{Tags: map[string]string{"x/y": "xml"}}); err == nil {
		t.Fatal("Expected error for unknown format")
	}
}
