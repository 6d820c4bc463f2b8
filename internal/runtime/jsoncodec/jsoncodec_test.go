package jsoncodec

import (
	"bytes"
	"strings"
	"testing"
)

type sample struct {
	Type   string `json:"type"`
	TaskID string `json:"task_id"`
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	in := sample{Type: "taskCreated", TaskID: "abc123"}

	data, err := Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var out sample
	if err := Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out != in {
		t.Fatalf("round trip mismatch: %#v", out)
	}
}

func TestMarshalIndent(t *testing.T) {
	data, err := MarshalIndent(sample{Type: "listCreated"}, "", "  ")
	if err != nil {
		t.Fatalf("marshal indent: %v", err)
	}
	if !strings.Contains(string(data), "\n  \"type\"") {
		t.Fatalf("output not indented: %s", data)
	}
}

func TestEncodeDecodeStream(t *testing.T) {
	var buf bytes.Buffer
	in := sample{Type: "spaceUpdated", TaskID: "t9"}

	if err := Encode(&buf, in); err != nil {
		t.Fatalf("encode: %v", err)
	}

	var out sample
	if err := Decode(&buf, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out != in {
		t.Fatalf("stream round trip mismatch: %#v", out)
	}
}

func TestUnmarshalRejectsMalformed(t *testing.T) {
	var out map[string]any
	if err := Unmarshal([]byte(`{"type":`), &out); err == nil {
		t.Fatal("expected error for truncated JSON")
	}
}
