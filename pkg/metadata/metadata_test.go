package metadata

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestSignWith_RoundTrip(t *testing.T) {
	at := time.Date(2023, 9, 27, 22, 1, 0, 0, time.UTC)
	signed := SignWith("# Summary\n\ntext\n\n", Metadata{RunID: "run-1", Validation: true, LastModify: at})

	if !strings.HasSuffix(signed, TagEnd+"\n") {
		t.Errorf("block should close the document: %q", signed)
	}

	meta, clean := Extract(signed)
	if meta == nil {
		t.Fatal("Extract found no block")
	}

	if clean != "# Summary\n\ntext" {
		t.Errorf("clean content = %q", clean)
	}

	if meta.RunID != "run-1" || !meta.Validation || !meta.LastModify.Equal(at) || meta.Version != Version {
		t.Errorf("unexpected metadata: %+v", meta)
	}

	if meta.Hash != CalculateHash(clean) {
		t.Errorf("hash %s does not match content", meta.Hash)
	}
}

func TestSign_ReplacesExistingBlock(t *testing.T) {
	once := Sign("body", false)
	twice := Sign(once, true)

	if strings.Count(twice, TagStart) != 1 {
		t.Errorf("expected exactly one block, got %q", twice)
	}

	meta, _ := Extract(twice)
	if !meta.Validation {
		t.Error("second signature should win")
	}
}

func TestVerify(t *testing.T) {
	signed := Sign("| ENG | ITA |", true)

	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{"intact", signed, nil},
		{"tampered", strings.Replace(signed, "ITA", "FRE", 1), ErrHashMismatch},
		{"unsigned", "| ENG | ITA |", ErrNoMetadataBlock},
		{"no hash", TagStart + "\nVALIDATION: TRUE\n" + TagEnd, ErrNoHashFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := Verify(tt.content)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Verify error = %v, want %v", err, tt.wantErr)
			}

			if ok != (tt.wantErr == nil) {
				t.Errorf("Verify = %v", ok)
			}
		})
	}
}
