package model

import (
	"bytes"
	"encoding/json"
	"reflect"
	"testing"
)

func TestLocationRoundTrip(t *testing.T) {
	lat, lng := 40.7128, -74.006
	in := Location{Address: "1 Main St", City: "New York", State: "NY", ZipCode: "10001", Latitude: &lat, Longitude: &lng}

	v, err := in.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	var out Location
	if err := out.Scan([]byte(v.(string))); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("round trip mismatch: %+v vs %+v", in, out)
	}

	first, _ := json.Marshal(in)
	second, _ := json.Marshal(out)
	if !bytes.Equal(first, second) {
		t.Fatalf("json differs after round trip:\n%s\n%s", first, second)
	}
}

func TestScanAcceptsStringAndNil(t *testing.T) {
	var l Location
	if err := l.Scan(`{"address":"a","city":"b"}`); err != nil {
		t.Fatalf("scan string: %v", err)
	}
	if l.City != "b" {
		t.Fatalf("city = %q", l.City)
	}
	if err := l.Scan(nil); err != nil {
		t.Fatalf("scan nil: %v", err)
	}
	if err := l.Scan(42); err == nil {
		t.Fatalf("expected error for unsupported source")
	}
}

func TestStringListAndSpecificationsDefaults(t *testing.T) {
	var nilList StringList
	v, _ := nilList.Value()
	if v != "[]" {
		t.Fatalf("nil list value = %v", v)
	}
	var specs Specifications
	v, _ = specs.Value()
	if v != "{}" {
		t.Fatalf("nil specs value = %v", v)
	}

	var list StringList
	if err := list.Scan([]byte(`["https://cdn/a.png","https://cdn/b.png"]`)); err != nil {
		t.Fatalf("scan list: %v", err)
	}
	if len(list) != 2 || list[1] != "https://cdn/b.png" {
		t.Fatalf("unexpected list %v", list)
	}
	if err := specs.Scan([]byte(`{"voltage":220,"color":"red"}`)); err != nil {
		t.Fatalf("scan specs: %v", err)
	}
	if specs["color"] != "red" {
		t.Fatalf("unexpected specs %v", specs)
	}
}

func TestDimensionsRoundTrip(t *testing.T) {
	in := Dimensions{Length: 10, Width: 5.5, Height: 2, Weight: 1.25, Unit: "cm"}
	v, err := in.Value()
	if err != nil {
		t.Fatal(err)
	}
	var out Dimensions
	if err := out.Scan(v); err != nil {
		t.Fatal(err)
	}
	if in != out {
		t.Fatalf("got %+v want %+v", out, in)
	}
}
