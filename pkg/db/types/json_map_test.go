package dbtypes

import "testing"

func TestJSONMapValueAndScan(t *testing.T) {
	in := JSONMap{"status": "VALID", "amount": "225.99"}
	v, err := in.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}

	var out JSONMap
	if err := out.Scan(v); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if out["status"] != "VALID" || out["amount"] != "225.99" {
		t.Fatalf("unexpected round trip: %#v", out)
	}
}

func TestJSONMapNil(t *testing.T) {
	var m JSONMap
	v, err := m.Value()
	if err != nil || v != nil {
		t.Fatalf("expected nil value, got %v %v", v, err)
	}
	if err := m.Scan(nil); err != nil || m != nil {
		t.Fatalf("expected nil scan, got %v %v", m, err)
	}
	if err := m.Scan(42); err == nil {
		t.Fatalf("expected error for unsupported type")
	}
}

func TestJSONMapMergeDoesNotMutate(t *testing.T) {
	base := JSONMap{"a": 1}
	merged := base.Merge(map[string]any{"b": 2})
	if len(base) != 1 {
		t.Fatalf("base mutated: %#v", base)
	}
	if merged["a"] != 1 || merged["b"] != 2 {
		t.Fatalf("unexpected merge: %#v", merged)
	}
}
