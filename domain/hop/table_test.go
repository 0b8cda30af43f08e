package hop_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/artpar/hopgate/domain/hop"
)

func TestCompile_LastWins(t *testing.T) {
	groups := []hop.Group{
		{
			Name: "search",
			Routes: []hop.Route{
				hop.NewTemplateRoute("g", "https://google.com/search?q={{query}}"),
				hop.NewTemplateRoute("gh", "https://github.com/search?q={{query}}"),
			},
		},
		{
			Name: "overrides",
			Routes: []hop.Route{
				hop.NewTemplateRoute("g", "https://duckduckgo.com/?q={{query}}"),
			},
		},
	}

	table, err := hop.Compile(groups, "")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	if table.Len() != 2 {
		t.Errorf("Len() = %d, want 2", table.Len())
	}

	r, ok := table.Lookup("g")
	if !ok {
		t.Fatal("expected keyword g to resolve")
	}
	if !strings.Contains(r.Template, "duckduckgo") {
		t.Errorf("keyword g resolved to %q, want the later declaration", r.Template)
	}
	if r.Group != "overrides" {
		t.Errorf("route group = %q, want overrides", r.Group)
	}
}

func TestCompile_LastWinsWithinGroup(t *testing.T) {
	groups := []hop.Group{
		{
			Name: "search",
			Routes: []hop.Route{
				hop.NewTemplateRoute("g", "https://first.example.com"),
				hop.NewTemplateRoute("g", "https://second.example.com"),
			},
		},
	}

	table, err := hop.Compile(groups, "")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	r, _ := table.Lookup("g")
	if r.Template != "https://second.example.com" {
		t.Errorf("keyword g resolved to %q, want the later declaration", r.Template)
	}
}

func TestCompile_EmptyKeyword(t *testing.T) {
	groups := []hop.Group{
		{
			Name: "broken",
			Routes: []hop.Route{
				hop.NewTemplateRoute("", "https://example.com"),
			},
		},
	}

	_, err := hop.Compile(groups, "")
	if err == nil {
		t.Fatal("expected error for empty keyword")
	}
	if !errors.Is(err, hop.ErrInvalidKeyword) {
		t.Errorf("error = %v, want ErrInvalidKeyword", err)
	}
}

func TestCompile_DanglingDefaultRoute(t *testing.T) {
	groups := []hop.Group{
		{
			Name: "search",
			Routes: []hop.Route{
				hop.NewTemplateRoute("g", "https://google.com/search?q={{query}}"),
			},
		},
	}

	_, err := hop.Compile(groups, "zz")
	if err == nil {
		t.Fatal("expected error for dangling default route")
	}
	if !errors.Is(err, hop.ErrDanglingDefaultRoute) {
		t.Errorf("error = %v, want ErrDanglingDefaultRoute", err)
	}
	if !strings.Contains(err.Error(), "zz") {
		t.Errorf("error %q does not name the missing keyword", err.Error())
	}
}

func TestCompile_DefaultRouteResolves(t *testing.T) {
	groups := []hop.Group{
		{
			Name: "search",
			Routes: []hop.Route{
				hop.NewTemplateRoute("g", "https://google.com/search?q={{query}}"),
			},
		},
	}

	table, err := hop.Compile(groups, "g")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	def, ok := table.Default()
	if !ok {
		t.Fatal("expected a default route")
	}
	if def.Keyword != "g" {
		t.Errorf("default keyword = %q, want g", def.Keyword)
	}
}

func TestCompile_NoDefaultRoute(t *testing.T) {
	table, err := hop.Compile(nil, "")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}
	if _, ok := table.Default(); ok {
		t.Error("expected no default route")
	}
	if table.Len() != 0 {
		t.Errorf("Len() = %d, want 0", table.Len())
	}
}

func TestCompile_CopiesInput(t *testing.T) {
	groups := []hop.Group{
		{
			Name: "search",
			Routes: []hop.Route{
				hop.NewTemplateRoute("g", "https://google.com/search?q={{query}}"),
			},
		},
	}

	table, err := hop.Compile(groups, "")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	groups[0].Routes[0].Template = "https://mutated.example.com"

	kept := table.Groups()[0].Routes[0]
	if kept.Template != "https://google.com/search?q={{query}}" {
		t.Errorf("stored template = %q, want the value at compile time", kept.Template)
	}
	if kept.Group != "search" {
		t.Errorf("stored route group = %q, want search", kept.Group)
	}

	looked, _ := table.Lookup("g")
	if looked != kept {
		t.Error("Lookup and Groups disagree on the stored route")
	}
}

func TestCompile_GroupOrderPreserved(t *testing.T) {
	groups := []hop.Group{
		{Name: "first"},
		{Name: "second", Hidden: true},
		{Name: "third"},
	}

	table, err := hop.Compile(groups, "")
	if err != nil {
		t.Fatalf("Compile failed: %v", err)
	}

	got := table.Groups()
	if len(got) != 3 {
		t.Fatalf("Groups() returned %d groups, want 3", len(got))
	}
	for i, name := range []string{"first", "second", "third"} {
		if got[i].Name != name {
			t.Errorf("group[%d] = %q, want %q", i, got[i].Name, name)
		}
	}
	if !got[1].Hidden {
		t.Error("expected second group to stay hidden")
	}
}
