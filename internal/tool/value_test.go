package tool_test

import (
	"encoding/json"
	"errors"
	"slices"
	"testing"

	"github.com/codex-k8s/yaml-tool-scheduler/internal/tool"
)

func TestParamsFromJSON(t *testing.T) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(`{"name":"x","count":3,"ratio":0.5,"dry":true,"tags":["a","b"],"meta":{"k":null}}`), &raw); err != nil {
		t.Fatal(err)
	}
	params, err := tool.ParamsFrom(raw)
	if err != nil {
		t.Fatalf("ParamsFrom: %v", err)
	}

	if s, ok := params.String("name"); !ok || s != "x" {
		t.Fatalf("name %q %v", s, ok)
	}
	if n, ok := params["count"].AsInt(); !ok || n != 3 {
		t.Fatalf("count %d %v", n, ok)
	}
	if _, ok := params["ratio"].AsInt(); ok {
		t.Fatal("0.5 must not be an integer")
	}
	if b, ok := params.Bool("dry"); !ok || !b {
		t.Fatal("dry")
	}
	tags, ok := params["tags"].AsList()
	if !ok || len(tags) != 2 || tags[1].Type() != tool.TypeString {
		t.Fatalf("tags %v", tags)
	}
	meta, ok := params["meta"].AsMap()
	if !ok || !meta["k"].IsNull() {
		t.Fatalf("meta %v", meta)
	}
	if _, ok := params.Number("name"); ok {
		t.Fatal("string read as number")
	}
	if !slices.Equal(params.Keys(), []string{"count", "dry", "meta", "name", "ratio", "tags"}) {
		t.Fatalf("keys %v", params.Keys())
	}
}

func TestParamsFromRejectsUnsupported(t *testing.T) {
	_, err := tool.ParamsFrom(map[string]any{"ch": make(chan int)})
	if !errors.Is(err, tool.ErrUnsupportedValue) {
		t.Fatalf("expected ErrUnsupportedValue, got %v", err)
	}
	_, err = tool.ValueOf(map[any]any{1: "x"})
	if !errors.Is(err, tool.ErrUnsupportedValue) {
		t.Fatalf("non-string key accepted: %v", err)
	}
}

func TestValueJSON(t *testing.T) {
	in := tool.Map(map[string]tool.Value{
		"list": tool.List(tool.Number(1), tool.Bool(false), tool.Null()),
		"s":    tool.String("v"),
	})
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"list":[1,false,null],"s":"v"}` {
		t.Fatalf("marshal %s", data)
	}

	var out tool.Value
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	m, ok := out.AsMap()
	if !ok || m["s"].Any() != "v" {
		t.Fatalf("unmarshal %#v", out.Any())
	}
}

func TestValueTypeNames(t *testing.T) {
	want := map[tool.ValueType]string{
		tool.TypeNull: "null", tool.TypeBool: "boolean", tool.TypeNumber: "number",
		tool.TypeString: "string", tool.TypeList: "array", tool.TypeMap: "object",
	}
	for typ, name := range want {
		if typ.String() != name {
			t.Fatalf("%d: %s", typ, typ.String())
		}
	}
}
