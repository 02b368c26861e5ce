package testsupport

import (
	"testing"

	"echonote/internal/artifacts"
	"echonote/internal/config"
	"echonote/internal/logging"
	"echonote/internal/notes"
)

// MustOpenRegistry opens a notes.Registry for tests and registers cleanup.
func MustOpenRegistry(t testing.TB, cfg *config.Config) *notes.Registry {
	t.Helper()

	registry, err := notes.Open(cfg.DatabasePath(), logging.NewNop())
	if err != nil {
		t.Fatalf("notes.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = registry.Close()
	})
	return registry
}

// NewStore builds an artifact store rooted at the config's data directory.
func NewStore(t testing.TB, cfg *config.Config) *artifacts.Store {
	t.Helper()
	return artifacts.NewStore(cfg.Paths.DataDir, logging.NewNop())
}

// SeedSegment writes one raw segment file into the namespace's recorded
// directory.
func SeedSegment(t testing.TB, store *artifacts.Store, namespace, name string, content []byte) string {
	t.Helper()

	if _, err := store.Path(artifacts.StageRecorded, namespace); err != nil {
		t.Fatalf("prepare recorded dir: %v", err)
	}
	path := store.SegmentPath(namespace, name)
	WriteFileBytes(t, path, content)
	return path
}

// SeedFragment writes one transcript fragment artifact for the namespace.
func SeedFragment(t testing.TB, store *artifacts.Store, namespace, name string, fragment artifacts.Fragment) {
	t.Helper()

	if err := store.WriteArtifact(artifacts.StageTranscribed, namespace, name, fragment); err != nil {
		t.Fatalf("write fragment %s: %v", name, err)
	}
}
