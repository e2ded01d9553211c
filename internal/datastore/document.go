package datastore

import (
	"encoding/json"
	"fmt"
)

// document is a decoded JSON object. Values inside are the generic encoding/json shapes.
type document map[string]any

func parseDocument(data []byte) (document, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("datastore: decode document: %w", err)
	}
	if doc == nil {
		doc = document{}
	}
	return doc, nil
}

func seedDocument(seed any) (document, error) {
	if seed == nil {
		return document{}, nil
	}
	v, err := normalize(seed)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("datastore: seed must be an object: %w", ErrNotObject)
	}
	return document(obj), nil
}

func (d document) encode() ([]byte, error) {
	return json.Marshal(d)
}

func (d document) get(key []string) (any, bool) {
	var cur any = map[string]any(d)
	for _, seg := range key {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// set stores an already normalized value at key. An empty key replaces the whole document.
func (d document) set(key []string, value any) error {
	if len(key) == 0 {
		obj, ok := value.(map[string]any)
		if !ok {
			return ErrNotObject
		}
		for k := range d {
			delete(d, k)
		}
		for k, v := range obj {
			d[k] = v
		}
		return nil
	}
	cur := map[string]any(d)
	for _, seg := range key[:len(key)-1] {
		next, ok := cur[seg]
		if !ok || next == nil {
			child := map[string]any{}
			cur[seg] = child
			cur = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return ErrNotObject
		}
		cur = child
	}
	cur[key[len(key)-1]] = value
	return nil
}

func (d document) remove(key []string) {
	if len(key) == 0 {
		for k := range d {
			delete(d, k)
		}
		return
	}
	parent, ok := d.get(key[:len(key)-1])
	if !ok {
		return
	}
	if obj, ok := parent.(map[string]any); ok {
		delete(obj, key[len(key)-1])
	}
}

// normalize converts v to the generic JSON shapes so stored values never alias caller memory.
func normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("datastore: encode value: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("datastore: encode value: %w", err)
	}
	return out, nil
}

// decodeInto copies a generic value into out.
func decodeInto(v any, out any) error {
	if out == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("datastore: decode value: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("datastore: decode value: %w", err)
	}
	return nil
}

// lookup decodes the value at key from d into out; a stored JSON null counts as absent.
func (d document) lookup(key []string, out any) (bool, error) {
	v, ok := d.get(key)
	if !ok || v == nil {
		return false, nil
	}
	if err := decodeInto(v, out); err != nil {
		return false, err
	}
	return true, nil
}
