package feature

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb/geojson"
)

// Emit wraps features, already in output order, into a FeatureCollection
func Emit(features []*geojson.Feature) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	fc.Features = append(fc.Features, features...)
	return fc
}

// Marshal serialises a collection, optionally indented
func Marshal(fc *geojson.FeatureCollection, indent bool) ([]byte, error) {
	var data []byte
	var err error
	if indent {
		data, err = json.MarshalIndent(fc, "", "  ")
	} else {
		data, err = json.Marshal(fc)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to marshal GeoJSON: %w", err)
	}
	return data, nil
}
