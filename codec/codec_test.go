package codec

import (
	"bytes"
	"testing"
)

type sample struct {
	Name   string            `cbor:"1,keyasint,omitempty"`
	Amount uint64            `cbor:"2,keyasint,omitempty"`
	Tags   map[string]string `cbor:"3,keyasint,omitempty"`
	Raw    []byte            `cbor:"4,keyasint,omitempty"`
}

func TestMarshalIsDeterministic(t *testing.T) {
	v := sample{
		Name:   "pixel",
		Amount: 1000000,
		Tags:   map[string]string{"z": "1", "a": "2", "m": "3"},
	}
	first, err := Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %s", err)
	}
	for i := 0; i < 20; i++ {
		again, err := Marshal(v)
		if err != nil {
			t.Fatalf("marshal: %s", err)
		}
		if !bytes.Equal(first, again) {
			t.Fatal("encoding is not deterministic")
		}
	}

	var got sample
	if err := Unmarshal(first, &got); err != nil {
		t.Fatalf("unmarshal: %s", err)
	}
	if got.Name != v.Name || got.Amount != v.Amount || len(got.Tags) != 3 {
		t.Fatalf("unexpected value: %+v", got)
	}
}

func TestUnmarshalRejectsGarbage(t *testing.T) {
	var got sample
	if err := Unmarshal([]byte{0xff, 0x00, 0x13}, &got); err == nil {
		t.Fatal("expected an error")
	}
}
