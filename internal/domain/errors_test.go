package domain

import (
	"errors"
	"testing"
)

func TestValidateDocumentName(t *testing.T) {
	valid := []string{"a.txt", "report-2024.md", "noext", "with spaces.txt", "üñïçøde.txt", "a..b.txt"}
	for _, name := range valid {
		if err := ValidateDocumentName(name); err != nil {
			t.Errorf("ValidateDocumentName(%q) = %v, want nil", name, err)
		}
	}

	invalid := []string{"", ".", "..", "../escape", "a/b", `a\b`, "/abs", "x\x00y"}
	for _, name := range invalid {
		if err := ValidateDocumentName(name); !errors.Is(err, ErrInvalidDocumentName) {
			t.Errorf("ValidateDocumentName(%q) = %v, want ErrInvalidDocumentName", name, err)
		}
	}
}

func TestChunkKeyString(t *testing.T) {
	k := ChunkKey{Doc: "a.txt", Ordinal: 2}
	if k.String() != "a.txt#2" {
		t.Errorf("expected a.txt#2, got %s", k.String())
	}
}

func TestEmbedErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	err := &EmbedError{ChunkIndex: 3, Err: inner}
	if !errors.Is(err, inner) {
		t.Error("EmbedError should unwrap to its cause")
	}
}
