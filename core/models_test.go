package core

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestIDFromContent(t *testing.T) {
	a := IDFromContent("(g,place,paris)")
	b := IDFromContent("(g,place,paris)")
	c := IDFromContent("(g,place,london)")

	if a != b {
		t.Errorf("IDFromContent should be deterministic, got %d and %d", a, b)
	}
	if a == c {
		t.Errorf("IDFromContent should differ for different content")
	}
}

func TestNodeID_CaseFolding(t *testing.T) {
	if NodeID("g", "Place", " Paris ") != NodeID("g", "place", "paris") {
		t.Errorf("NodeID should ignore case and surrounding whitespace")
	}
	if NodeID("g1", "place", "paris") == NodeID("g2", "place", "paris") {
		t.Errorf("NodeID should be scoped to the graph")
	}
}

func TestID_TextRoundTrip(t *testing.T) {
	id := ID(18446744073709551615)
	text, err := id.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText() error = %v", err)
	}
	if string(text) != "18446744073709551615" {
		t.Errorf("MarshalText() = %s", text)
	}

	var parsed ID
	if err := parsed.UnmarshalText(text); err != nil {
		t.Fatalf("UnmarshalText() error = %v", err)
	}
	if parsed != id {
		t.Errorf("UnmarshalText() = %d, want %d", parsed, id)
	}

	if _, err := ParseID("not-a-number"); !errors.Is(err, ErrInvalidID) {
		t.Errorf("ParseID() error = %v, want ErrInvalidID", err)
	}
}

func TestChecksum(t *testing.T) {
	sum := Checksum([]byte("hello"))
	if len(sum) != 64 {
		t.Errorf("Checksum() length = %d, want 64 hex chars", len(sum))
	}
	if sum != Checksum([]byte("hello")) {
		t.Errorf("Checksum() should be deterministic")
	}
	if sum == Checksum([]byte("hello!")) {
		t.Errorf("Checksum() should differ for different input")
	}
}

func TestPreview(t *testing.T) {
	short := "short text"
	if got := Preview(short); got != short {
		t.Errorf("Preview(short) = %q", got)
	}

	exact := strings.Repeat("a", PreviewLength)
	if got := Preview(exact); got != exact {
		t.Errorf("Preview(exact) should not truncate")
	}

	long := strings.Repeat("b", PreviewLength+1)
	got := Preview(long)
	if got != strings.Repeat("b", PreviewLength)+"..." {
		t.Errorf("Preview(long) = %q", got)
	}

	multibyte := strings.Repeat("é", PreviewLength+5)
	if got := []rune(Preview(multibyte)); len(got) != PreviewLength+3 {
		t.Errorf("Preview should count characters, got %d runes", len(got))
	}
}

func TestChunkProcessingResult_JSON(t *testing.T) {
	id := ID(42)
	timings := NewTimings()
	timings[StageTotal] = 1500 * time.Millisecond

	success := ChunkProcessingResult{
		Status:      StatusSuccess,
		DocumentID:  "doc-1",
		PageNum:     2,
		ChunkIndex:  3,
		TextPreview: "hello",
		ChunkID:     &id,
		Timings:     timings,
	}
	data, err := json.Marshal(success)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if decoded["chunk_id"] != "42" {
		t.Errorf("chunk_id = %v, want \"42\"", decoded["chunk_id"])
	}
	if _, ok := decoded["error"]; ok {
		t.Errorf("error should be omitted on success")
	}
	perf, ok := decoded["performance_timings"].(map[string]any)
	if !ok {
		t.Fatalf("performance_timings missing")
	}
	if perf["total_processing"] != 1.5 {
		t.Errorf("total_processing = %v, want 1.5", perf["total_processing"])
	}
	for _, stage := range ChunkStages {
		if _, ok := perf[string(stage)]; !ok {
			t.Errorf("stage %s missing from timings", stage)
		}
	}

	failed := ChunkProcessingResult{Status: StatusFailed, DocumentID: "doc-1", Error: "boom", Timings: NewTimings()}
	data, err = json.Marshal(failed)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	decoded = nil
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if _, ok := decoded["chunk_id"]; ok {
		t.Errorf("chunk_id should be omitted on failure")
	}
	if decoded["error"] != "boom" {
		t.Errorf("error = %v, want boom", decoded["error"])
	}
}

func TestTimings_UnmarshalJSON(t *testing.T) {
	var timings Timings
	if err := json.Unmarshal([]byte(`{"database_save":0.25}`), &timings); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if timings[StagePersist] != 250*time.Millisecond {
		t.Errorf("database_save = %v, want 250ms", timings[StagePersist])
	}
}
