package audit

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func FuzzVerify(f *testing.F) {
	// Seed with a valid 3-entry chain
	tmpDir := f.TempDir()
	validLog := filepath.Join(tmpDir, "valid.jsonl")
	al, err := Open(validLog)
	if err != nil {
		f.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		al.Record(AuditEntry{
			ContextID:  1,
			Origin:     "https://phcode.dev/",
			Op:         "establishTrustKey",
			Decision:   DecisionAllow,
			ConfigHash: "sha256:test",
		})
	}
	al.Close()
	validData, _ := os.ReadFile(validLog)
	f.Add(validData)

	// Empty
	f.Add([]byte{})

	// Single garbage line
	f.Add([]byte(`{"not":"a valid entry"}` + "\n"))

	// Totally invalid
	f.Add([]byte(`not json`))

	f.Fuzz(func(t *testing.T, data []byte) {
		tmpFile := filepath.Join(t.TempDir(), "fuzz.jsonl")
		os.WriteFile(tmpFile, data, 0644)

		// Must not panic, and both entry points must agree.
		fromFile := Verify(tmpFile)
		fromReader := VerifyReader(bytes.NewReader(data))
		if fromFile != fromReader {
			t.Fatalf("Verify and VerifyReader disagree: %+v vs %+v", fromFile, fromReader)
		}
	})
}
