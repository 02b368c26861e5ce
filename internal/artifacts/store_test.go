package artifacts_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"echonote/internal/artifacts"
	"echonote/internal/logging"
	"echonote/internal/services"
)

func newStore(t *testing.T) *artifacts.Store {
	t.Helper()
	return artifacts.NewStore(t.TempDir(), logging.NewNop())
}

func TestWriteReadRoundTrip(t *testing.T) {
	store := newStore(t)

	frag := artifacts.Fragment{Text: "hello", Timestamp: "2024-01-02T03:04:05Z", Source: "a.wav"}
	if err := store.WriteArtifact(artifacts.StageTranscribed, "session1", "a.json", frag); err != nil {
		t.Fatalf("WriteArtifact failed: %v", err)
	}

	var got artifacts.Fragment
	if err := store.ReadArtifact(artifacts.StageTranscribed, "session1", "a.json", &got); err != nil {
		t.Fatalf("ReadArtifact failed: %v", err)
	}
	if got != frag {
		t.Fatalf("round trip mismatch: %#v != %#v", got, frag)
	}
}

func TestWriteOverwritesSilently(t *testing.T) {
	store := newStore(t)

	first := artifacts.Integrated{Text: "old"}
	second := artifacts.Integrated{Text: "new"}
	if err := store.WriteArtifact(artifacts.StageRevised, "ns", artifacts.IntegratedName, first); err != nil {
		t.Fatalf("first write failed: %v", err)
	}
	if err := store.WriteArtifact(artifacts.StageRevised, "ns", artifacts.IntegratedName, second); err != nil {
		t.Fatalf("second write failed: %v", err)
	}

	var got artifacts.Integrated
	if err := store.ReadArtifact(artifacts.StageRevised, "ns", artifacts.IntegratedName, &got); err != nil {
		t.Fatalf("ReadArtifact failed: %v", err)
	}
	if got.Text != "new" {
		t.Fatalf("expected overwrite, got %q", got.Text)
	}
}

func TestReadMissingArtifactIsNotFound(t *testing.T) {
	store := newStore(t)

	var got artifacts.Integrated
	err := store.ReadArtifact(artifacts.StageSummarized, "ns", artifacts.IntegratedName, &got)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReadMalformedArtifactIsCorrupt(t *testing.T) {
	store := newStore(t)

	dir, err := store.Path(artifacts.StageTranscribed, "ns")
	if err != nil {
		t.Fatalf("Path failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write malformed file: %v", err)
	}

	var got artifacts.Fragment
	err = store.ReadArtifact(artifacts.StageTranscribed, "ns", "bad.json", &got)
	if !errors.Is(err, services.ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}

func TestListSegments(t *testing.T) {
	store := newStore(t)

	dir, err := store.Path(artifacts.StageRecorded, "session1")
	if err != nil {
		t.Fatalf("Path failed: %v", err)
	}
	for _, name := range []string{"b.wav", "a.wav", "c.wav"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("audio"), 0o644); err != nil {
			t.Fatalf("write segment: %v", err)
		}
	}

	segments, err := store.ListSegments("session1")
	if err != nil {
		t.Fatalf("ListSegments failed: %v", err)
	}
	if strings.Join(segments, ",") != "a.wav,b.wav,c.wav" {
		t.Fatalf("unexpected segments: %v", segments)
	}
}

func TestListSegmentsEmptyNamespace(t *testing.T) {
	store := newStore(t)
	segments, err := store.ListSegments("never-created")
	if err != nil {
		t.Fatalf("ListSegments failed: %v", err)
	}
	if len(segments) != 0 {
		t.Fatalf("expected no segments, got %v", segments)
	}
}

func TestResetNamespaceRemovesSegments(t *testing.T) {
	store := newStore(t)

	dir, err := store.Path(artifacts.StageRecorded, "session1")
	if err != nil {
		t.Fatalf("Path failed: %v", err)
	}
	for _, name := range []string{"a.wav", "b.wav"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("audio"), 0o644); err != nil {
			t.Fatalf("write segment: %v", err)
		}
	}
	// Derived artifacts survive a reset.
	if err := store.WriteArtifact(artifacts.StageTranscribed, "session1", "a.json", artifacts.Fragment{Text: "x"}); err != nil {
		t.Fatalf("WriteArtifact failed: %v", err)
	}

	if err := store.ResetNamespace("session1"); err != nil {
		t.Fatalf("ResetNamespace failed: %v", err)
	}

	segments, err := store.ListSegments("session1")
	if err != nil {
		t.Fatalf("ListSegments failed: %v", err)
	}
	if len(segments) != 0 {
		t.Fatalf("expected all segments removed, got %v", segments)
	}
	if !store.HasArtifact(artifacts.StageTranscribed, "session1", "a.json") {
		t.Fatal("reset must not delete derived artifacts")
	}
}

func TestResetNamespaceAggregatesFailures(t *testing.T) {
	store := newStore(t)

	dir, err := store.Path(artifacts.StageRecorded, "session1")
	if err != nil {
		t.Fatalf("Path failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "a.wav"), []byte("audio"), 0o644); err != nil {
		t.Fatalf("write segment: %v", err)
	}
	// A non-empty subdirectory cannot be os.Remove'd, forcing one deletion
	// failure while the plain file is still removed.
	blocked := filepath.Join(dir, "b.wav")
	if err := os.MkdirAll(filepath.Join(blocked, "inner"), 0o755); err != nil {
		t.Fatalf("mkdir blocked segment: %v", err)
	}
	if err := os.WriteFile(filepath.Join(blocked, "inner", "x"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write inner file: %v", err)
	}

	err = store.ResetNamespace("session1")
	if err == nil {
		t.Fatal("expected aggregate error for blocked entry")
	}
	if !strings.Contains(err.Error(), "b.wav") {
		t.Fatalf("error should name the failed entry: %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "a.wav")); !os.IsNotExist(statErr) {
		t.Fatal("removable segment should have been deleted despite the failure")
	}
}

func TestInvalidNamespaceRejected(t *testing.T) {
	store := newStore(t)
	for _, ns := range []string{"", "..", "a/b", `a\b`, " padded "} {
		if _, err := store.Path(artifacts.StageRecorded, ns); err == nil {
			t.Fatalf("expected error for namespace %q", ns)
		}
	}
}

func TestImportSegment(t *testing.T) {
	store := newStore(t)

	source := filepath.Join(t.TempDir(), "memo_001.wav")
	if err := os.WriteFile(source, []byte("RIFF audio payload"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	recorded := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	if err := os.Chtimes(source, recorded, recorded); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	dest, err := store.ImportSegment("session1", source)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	content, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read imported: %v", err)
	}
	if string(content) != "RIFF audio payload" {
		t.Fatalf("imported content = %q", content)
	}
	info, err := os.Stat(dest)
	if err != nil {
		t.Fatalf("stat imported: %v", err)
	}
	if !info.ModTime().Equal(recorded) {
		t.Fatalf("mtime = %v, want %v", info.ModTime(), recorded)
	}

	segments, err := store.ListSegments("session1")
	if err != nil {
		t.Fatalf("list segments: %v", err)
	}
	if len(segments) != 1 || segments[0] != "memo_001.wav" {
		t.Fatalf("segments = %v", segments)
	}
}

func TestImportSegmentMissingSource(t *testing.T) {
	store := newStore(t)
	if _, err := store.ImportSegment("session1", filepath.Join(t.TempDir(), "absent.wav")); err == nil {
		t.Fatal("expected error for missing source")
	}
}
