package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONB columns are exchanged with the database as their JSON text.  The
// helpers below are shared by every structured column type so the
// marshalling rules live in one place.

func jsonValue(v any) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func jsonScan(src any, dst any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("jsonb: unsupported source type %T", src)
	}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

// Location is the address and coordinates attached to a service request
// or a provider's service area.
type Location struct {
	Address   string   `json:"address" validate:"required"`
	City      string   `json:"city" validate:"required"`
	State     string   `json:"state,omitempty"`
	ZipCode   string   `json:"zip_code,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude *float64 `json:"longitude,omitempty" validate:"omitempty,longitude"`
}

func (l Location) Value() (driver.Value, error) { return jsonValue(l) }
func (l *Location) Scan(src any) error         { return jsonScan(src, l) }

// Dimensions describes the physical size of a product.
type Dimensions struct {
	Length float64 `json:"length,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
	Weight float64 `json:"weight,omitempty"`
	Unit   string  `json:"unit,omitempty"`
}

func (d Dimensions) Value() (driver.Value, error) { return jsonValue(d) }
func (d *Dimensions) Scan(src any) error         { return jsonScan(src, d) }

// Specifications is a free-form attribute map stored as a JSON object.
type Specifications map[string]any

func (s Specifications) Value() (driver.Value, error) {
	if s == nil {
		return "{}", nil
	}
	return jsonValue(map[string]any(s))
}

func (s *Specifications) Scan(src any) error {
	m := map[string]any{}
	if err := jsonScan(src, &m); err != nil {
		return err
	}
	*s = m
	return nil
}

// StringList is a JSON array of strings (image URLs, service types).
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return jsonValue([]string(l))
}

func (l *StringList) Scan(src any) error {
	out := []string{}
	if err := jsonScan(src, &out); err != nil {
		return err
	}
	*l = out
	return nil
}
