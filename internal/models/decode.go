package models

import (
	"bytes"
	"encoding/json"
)

// UnmarshalJSON decodes a dataset record. Numeric fields holding anything
// other than a JSON number (a string like "TBD", a bool, an object) decode as
// absent instead of failing the whole record, so one sloppy value only drops
// that field out of price filtering, stats and the map.
func (p *Property) UnmarshalJSON(data []byte) error {
	type plain Property
	aux := struct {
		*plain
		Price      json.RawMessage `json:"price"`
		Sqft       json.RawMessage `json:"sqft"`
		Lat        json.RawMessage `json:"lat"`
		Lng        json.RawMessage `json:"lng"`
		YearBuilt  json.RawMessage `json:"yearBuilt"`
		Occupancy  json.RawMessage `json:"occupancy"`
		TrustScore json.RawMessage `json:"trustScore"`
	}{plain: (*plain)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	p.Price = lenientNumber[float64](aux.Price)
	p.Sqft = lenientNumber[float64](aux.Sqft)
	p.Lat = lenientNumber[float64](aux.Lat)
	p.Lng = lenientNumber[float64](aux.Lng)
	p.YearBuilt = lenientNumber[int](aux.YearBuilt)
	p.Occupancy = lenientNumber[float64](aux.Occupancy)
	p.TrustScore = lenientNumber[float64](aux.TrustScore)
	return nil
}

func lenientNumber[T int | float64](raw json.RawMessage) *T {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return &v
}
