package flex

import (
	"testing"

	lua "github.com/yuin/gopher-lua"
)

func TestTransformTrim(t *testing.T) {
	L := lua.NewState()
	defer L.Close()
	RegisterTransforms(L)

	if err := L.DoString(`result = trim("  hello  ")`); err != nil {
		t.Fatalf("failed to call trim: %v", err)
	}
	if L.GetGlobal("result").String() != "hello" {
		t.Errorf("trim = %q, want 'hello'", L.GetGlobal("result").String())
	}

	if err := L.DoString(`result = osm2geojson.transforms.trim("")`); err != nil {
		t.Fatalf("failed to call transforms.trim: %v", err)
	}
	if L.GetGlobal("result").String() != "" {
		t.Errorf("trim = %q, want ''", L.GetGlobal("result").String())
	}
}

func TestTransformParseInt(t *testing.T) {
	L := lua.NewState()
	defer L.Close()
	RegisterTransforms(L)

	tests := []struct {
		input    string
		expected int64
	}{
		{"123", 123},
		{"-456", -456},
		{"  789  ", 789},
		{"3.14", 3},
		{"abc", 0},
		{"", 0},
	}

	for _, tt := range tests {
		if err := L.DoString(`result = parse_int("` + tt.input + `")`); err != nil {
			t.Fatalf("failed to call parse_int: %v", err)
		}
		result := int64(L.GetGlobal("result").(lua.LNumber))
		if result != tt.expected {
			t.Errorf("parse_int(%q) = %d, want %d", tt.input, result, tt.expected)
		}
	}
}

func TestTransformParseBool(t *testing.T) {
	L := lua.NewState()
	defer L.Close()
	RegisterTransforms(L)

	tests := []struct {
		input    string
		expected bool
	}{
		{"yes", true},
		{"1", true},
		{"designated", true},
		{"no", false},
		{"FALSE", false},
		{"", false},
	}

	for _, tt := range tests {
		if err := L.DoString(`result = parse_bool("` + tt.input + `")`); err != nil {
			t.Fatalf("failed to call parse_bool: %v", err)
		}
		if lua.LVAsBool(L.GetGlobal("result")) != tt.expected {
			t.Errorf("parse_bool(%q) = %v, want %v", tt.input, !tt.expected, tt.expected)
		}
	}
}

func TestTransformGetName(t *testing.T) {
	L := lua.NewState()
	defer L.Close()
	RegisterTransforms(L)

	if err := L.DoString(`result = get_name({int_name = "Intl", ["name:en"] = "English"})`); err != nil {
		t.Fatalf("failed to call get_name: %v", err)
	}
	if L.GetGlobal("result").String() != "Intl" {
		t.Errorf("get_name = %q, want 'Intl'", L.GetGlobal("result").String())
	}

	if err := L.DoString(`result = get_name({})`); err != nil {
		t.Fatalf("failed to call get_name: %v", err)
	}
	if L.GetGlobal("result") != lua.LNil {
		t.Errorf("get_name of empty tags = %v, want nil", L.GetGlobal("result"))
	}
}

func TestTransformFilterTags(t *testing.T) {
	L := lua.NewState()
	defer L.Close()
	RegisterTransforms(L)

	code := `
		local t = filter_tags({name = "A", highway = "primary", source = "survey"}, {"name", "highway"})
		count = 0
		for _ in pairs(t) do count = count + 1 end
		src = t.source
	`
	if err := L.DoString(code); err != nil {
		t.Fatalf("failed to call filter_tags: %v", err)
	}
	if int(L.GetGlobal("count").(lua.LNumber)) != 2 {
		t.Errorf("filter_tags kept %v keys, want 2", L.GetGlobal("count"))
	}
	if L.GetGlobal("src") != lua.LNil {
		t.Errorf("source should have been filtered out")
	}
}

func TestTransformCleanSpacesAndTruncate(t *testing.T) {
	L := lua.NewState()
	defer L.Close()
	RegisterTransforms(L)

	if err := L.DoString(`a = osm2geojson.transforms.clean_spaces("  Main   Street ")
b = osm2geojson.transforms.truncate("Straße", 4)`); err != nil {
		t.Fatalf("failed: %v", err)
	}
	if L.GetGlobal("a").String() != "Main Street" {
		t.Errorf("clean_spaces = %q", L.GetGlobal("a").String())
	}
	if L.GetGlobal("b").String() != "Stra" {
		t.Errorf("truncate = %q", L.GetGlobal("b").String())
	}
}
