package datastore

import (
	"errors"
	"testing"
)

func TestDocument_SetCreatesIntermediateObjects(t *testing.T) {
	doc := document{}
	if err := doc.set([]string{"Users", "alice", "Enabled"}, true); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, ok := doc.get([]string{"Users", "alice", "Enabled"})
	if !ok || v != true {
		t.Errorf("get = %v, %v; want true, true", v, ok)
	}
}

func TestDocument_SetThroughScalarFails(t *testing.T) {
	doc := document{"Users": "not-an-object"}
	err := doc.set([]string{"Users", "alice"}, map[string]any{})
	if !errors.Is(err, ErrNotObject) {
		t.Errorf("set err = %v, want ErrNotObject", err)
	}
}

func TestDocument_EmptyKeyReplacesDocument(t *testing.T) {
	doc := document{"old": 1.0}
	if err := doc.set(nil, map[string]any{"new": 2.0}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, ok := doc["old"]; ok {
		t.Error("old key should be gone")
	}
	if doc["new"] != 2.0 {
		t.Errorf("new = %v, want 2", doc["new"])
	}
	if err := doc.set(nil, "scalar"); !errors.Is(err, ErrNotObject) {
		t.Errorf("replace with scalar err = %v, want ErrNotObject", err)
	}
}

func TestDocument_RemoveMissingIsNoop(t *testing.T) {
	doc := document{"Clients": map[string]any{}}
	doc.remove([]string{"Clients", "missing"})
	doc.remove([]string{"Nope", "missing"})
	if _, ok := doc.get([]string{"Clients"}); !ok {
		t.Error("Clients should remain")
	}
}

func TestDocument_LookupNullIsAbsent(t *testing.T) {
	doc := document{"Clients": map[string]any{"c1": nil}}
	var out map[string]any
	found, err := doc.lookup([]string{"Clients", "c1"}, &out)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if found {
		t.Error("null value should be reported as absent")
	}
}

func TestSeedDocument_RejectsNonObject(t *testing.T) {
	if _, err := seedDocument([]string{"a"}); !errors.Is(err, ErrNotObject) {
		t.Errorf("seedDocument(slice) err = %v, want ErrNotObject", err)
	}
	doc, err := seedDocument(nil)
	if err != nil || len(doc) != 0 {
		t.Errorf("seedDocument(nil) = %v, %v; want empty, nil", doc, err)
	}
}
