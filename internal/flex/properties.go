// Package flex runs user Lua scripts that rewrite feature properties.
package flex

import (
	"fmt"
	"sync"

	"github.com/paulmach/osm"
	lua "github.com/yuin/gopher-lua"
)

// PropertyScript calls process_properties(object) for every feature.
// The object table carries type, id and tags; the function returns the new
// properties table, true to keep the tags, or nil/false to drop the feature.
type PropertyScript struct {
	L       *lua.LState
	process lua.LValue
	mu      sync.Mutex
}

// NewPropertyScript creates a Lua state with the osm2geojson module registered
func NewPropertyScript() *PropertyScript {
	L := lua.NewState()
	s := &PropertyScript{L: L}

	module := L.NewTable()
	module.RawSetString("version", lua.LString("1.0.0"))
	L.SetGlobal("osm2geojson", module)
	RegisterTransforms(L)
	return s
}

// Close releases Lua resources
func (s *PropertyScript) Close() {
	s.L.Close()
}

// LoadFile loads and executes a Lua script file
func (s *PropertyScript) LoadFile(path string) error {
	if err := s.L.DoFile(path); err != nil {
		return fmt.Errorf("failed to load Lua file: %w", err)
	}
	return s.extractCallback()
}

// LoadString loads and executes Lua code from a string
func (s *PropertyScript) LoadString(code string) error {
	if err := s.L.DoString(code); err != nil {
		return fmt.Errorf("failed to load Lua code: %w", err)
	}
	return s.extractCallback()
}

// extractCallback finds osm2geojson.process_properties or a global of the same name
func (s *PropertyScript) extractCallback() error {
	if module, ok := s.L.GetGlobal("osm2geojson").(*lua.LTable); ok {
		if fn := module.RawGetString("process_properties"); fn.Type() == lua.LTFunction {
			s.process = fn
			return nil
		}
	}
	if fn := s.L.GetGlobal("process_properties"); fn.Type() == lua.LTFunction {
		s.process = fn
		return nil
	}
	return fmt.Errorf("script defines no process_properties function")
}

// Properties implements feature.PropertyHook
func (s *PropertyScript) Properties(id osm.FeatureID, tags map[string]string) (map[string]string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	L := s.L
	object := L.NewTable()
	object.RawSetString("type", lua.LString(id.Type()))
	object.RawSetString("id", lua.LNumber(id.Ref()))
	tagTable := L.NewTable()
	for k, v := range tags {
		tagTable.RawSetString(k, lua.LString(v))
	}
	object.RawSetString("tags", tagTable)

	if err := L.CallByParam(lua.P{
		Fn:      s.process,
		NRet:    1,
		Protect: true,
	}, object); err != nil {
		return nil, false, err
	}
	ret := L.Get(-1)
	L.Pop(1)

	switch v := ret.(type) {
	case *lua.LNilType:
		return nil, false, nil
	case lua.LBool:
		if !bool(v) {
			return nil, false, nil
		}
		return tags, true, nil
	case *lua.LTable:
		props := make(map[string]string)
		v.ForEach(func(k, val lua.LValue) {
			if key := lua.LVAsString(k); key != "" {
				props[key] = lua.LVAsString(val)
			}
		})
		return props, true, nil
	}
	return nil, false, fmt.Errorf("process_properties returned %s, want table, nil or boolean", ret.Type())
}
