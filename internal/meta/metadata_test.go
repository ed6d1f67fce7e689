package meta

import (
	"encoding/json"
	"testing"
)

func TestNewCloneKeys(t *testing.T) {
	metaMap := New(map[string]string{"b": "2", "a": "1"})
	if v, ok := metaMap.Get("a"); !ok || v != "1" {
		t.Fatalf("get failed")
	}
	cloned := metaMap.Clone()
	cloned["c"] = "3"
	if _, ok := metaMap.Get("c"); ok {
		t.Fatalf("clone shares storage")
	}
	keys := metaMap.Keys()
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Fatalf("unexpected keys: %v", keys)
	}
	if nilMap := New(nil); nilMap == nil {
		t.Fatalf("New(nil) should return an empty map")
	}
}

func TestValidationLimits(t *testing.T) {
	// too many pairs
	pairs := make(map[string]string)
	for i := 0; i < MaxPairs+1; i++ {
		pairs[string('a'+byte(i%26))+"k"+string('0'+byte(i/26))] = "v"
	}
	metaMap := New(pairs)
	if err := metaMap.Validate(); err == nil {
		t.Fatalf("expected too many pairs")
	}
	// key too long
	longKey := make([]byte, MaxKeyLen+1)
	for i := range longKey {
		longKey[i] = 'k'
	}
	metaMap = New(map[string]string{string(longKey): "v"})
	if err := metaMap.Validate(); err == nil {
		t.Fatalf("expected key too long")
	}
	// empty key
	metaMap = New(map[string]string{"": "v"})
	if err := metaMap.Validate(); err == nil {
		t.Fatalf("expected empty key rejection")
	}
	// value too long
	longVal := make([]byte, MaxValLen+1)
	for i := range longVal {
		longVal[i] = 'v'
	}
	metaMap = New(map[string]string{"k": string(longVal)})
	if err := metaMap.Validate(); err == nil {
		t.Fatalf("expected value too long")
	}
}

func TestStableJSONAndRoundtrip(t *testing.T) {
	metaMap := New(map[string]string{"b": "2", "a": "1"})
	b1, _ := metaMap.MarshalStableJSON()
	if string(b1) != `{"a":"1","b":"2"}` {
		t.Fatalf("unexpected stable json: %s", string(b1))
	}
	var unmarshaled Metadata
	if err := json.Unmarshal(b1, &unmarshaled); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := unmarshaled.Validate(); err != nil {
		t.Fatalf("validate roundtrip: %v", err)
	}
	empty := Metadata{}
	if b, _ := json.Marshal(empty); string(b) != "{}" {
		t.Fatalf("empty marshal: %s", string(b))
	}
	var fromNull Metadata
	if err := fromNull.UnmarshalJSON([]byte("null")); err != nil || fromNull == nil {
		t.Fatalf("null unmarshal: %v %v", fromNull, err)
	}
}
