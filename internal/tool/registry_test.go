package tool_test

import (
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/codex-k8s/yaml-tool-scheduler/internal/tool"
)

func named(name, category string) *tool.Func {
	return &tool.Func{Descriptor: tool.Info{Name: name, Category: category, Title: name + "@" + category}}
}

func TestRegisterAndLookup(t *testing.T) {
	r := tool.NewRegistry()
	r.MustRegister(named("fmt", "code"))

	got, err := r.Lookup("fmt")
	if err != nil || got.Info().Name != "fmt" {
		t.Fatalf("lookup: %+v %v", got, err)
	}
	if _, err := r.Lookup("vet"); !errors.Is(err, tool.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRegisterRejectsInvalid(t *testing.T) {
	r := tool.NewRegistry()
	if err := r.Register(nil); !errors.Is(err, tool.ErrNilTool) {
		t.Fatalf("expected ErrNilTool, got %v", err)
	}
	if err := r.Register(named("  ", "x")); !errors.Is(err, tool.ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
	if r.Len() != 0 {
		t.Fatal("invalid tools were stored")
	}
}

func TestDuplicatePolicy(t *testing.T) {
	var replaced []string
	override := tool.NewRegistry(tool.WithReplaceHook(func(name string) { replaced = append(replaced, name) }))
	override.MustRegister(named("fmt", "old"))
	if err := override.Register(named("fmt", "new")); err != nil {
		t.Fatalf("override: %v", err)
	}
	got, _ := override.Lookup("fmt")
	if got.Info().Category != "new" || override.Len() != 1 {
		t.Fatalf("last write must win, got %+v", got.Info())
	}
	if !slices.Equal(replaced, []string{"fmt"}) {
		t.Fatalf("replace hook calls %v", replaced)
	}

	reject := tool.NewRegistry(tool.WithDuplicatePolicy(tool.DuplicateReject))
	reject.MustRegister(named("fmt", "old"))
	if err := reject.Register(named("fmt", "new")); !errors.Is(err, tool.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
	got, _ = reject.Lookup("fmt")
	if got.Info().Category != "old" {
		t.Fatal("rejected registration replaced the tool")
	}
}

func TestParseDuplicatePolicy(t *testing.T) {
	for in, want := range map[string]tool.DuplicatePolicy{"": tool.DuplicateOverride, "override": tool.DuplicateOverride, "REJECT": tool.DuplicateReject} {
		got, err := tool.ParseDuplicatePolicy(in)
		if err != nil || got != want {
			t.Fatalf("%q: got %s %v", in, got, err)
		}
	}
	if _, err := tool.ParseDuplicatePolicy("merge"); err == nil {
		t.Fatal("expected error")
	}
}

func TestListings(t *testing.T) {
	r := tool.NewRegistry()
	for _, item := range []*tool.Func{named("zip", "fs"), named("cat", "fs"), named("curl", "net"), named("ls", "fs")} {
		r.MustRegister(item)
	}

	names := func(tools []tool.Tool) []string {
		out := make([]string, 0, len(tools))
		for _, item := range tools {
			out = append(out, item.Info().Name)
		}
		return out
	}
	if got := names(r.ListAll()); !slices.Equal(got, []string{"cat", "curl", "ls", "zip"}) {
		t.Fatalf("ListAll %v", got)
	}
	if got := names(r.ListByCategory("fs")); !slices.Equal(got, []string{"cat", "ls", "zip"}) {
		t.Fatalf("ListByCategory %v", got)
	}
	if got := r.ListByCategory("gpu"); len(got) != 0 {
		t.Fatalf("unknown category returned %v", names(got))
	}
	if got := r.Categories(); !slices.Equal(got, []string{"fs", "net"}) {
		t.Fatalf("Categories %v", got)
	}
	if got := r.Names(); !slices.Equal(got, []string{"cat", "curl", "ls", "zip"}) {
		t.Fatalf("Names %v", got)
	}
	// Listings are restartable.
	if got := names(r.ListAll()); len(got) != 4 {
		t.Fatalf("second listing %v", got)
	}
}

func TestConcurrentLookups(t *testing.T) {
	r := tool.NewRegistry()
	r.MustRegister(named("fmt", "code"))
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if _, err := r.Lookup("fmt"); err != nil {
					t.Error(err)
					return
				}
				_ = r.ListAll()
			}
		}()
	}
	wg.Wait()
}
