package artifacts

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"echonote/internal/logging"
	"echonote/internal/services"
)

// Store persists stage artifacts as JSON documents under
// <root>/<namespace>/<stage>/. It is the only component that touches the
// artifact filesystem.
type Store struct {
	root   string
	logger *slog.Logger
}

// NewStore constructs a store rooted at dir.
func NewStore(dir string, logger *slog.Logger) *Store {
	return &Store{
		root:   dir,
		logger: logging.NewComponentLogger(logger, "artifacts"),
	}
}

// Root returns the store's base directory.
func (s *Store) Root() string { return s.root }

// Path returns the directory for a stage within a namespace, creating it
// lazily.
func (s *Store) Path(stage Stage, namespace string) (string, error) {
	if err := validNamespace(namespace); err != nil {
		return "", err
	}
	dir := filepath.Join(s.root, namespace, string(stage))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create stage directory %q: %w", dir, err)
	}
	return dir, nil
}

// WriteArtifact serializes content as JSON and stores it under name within
// the stage directory, overwriting silently when present.
func (s *Store) WriteArtifact(stage Stage, namespace, name string, content any) error {
	dir, err := s.Path(stage, namespace)
	if err != nil {
		return err
	}
	data, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("marshal artifact %s: %w", name, err)
	}
	target := filepath.Join(dir, name)
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return fmt.Errorf("write artifact %s: %w", target, err)
	}
	s.logger.Debug("artifact written",
		logging.String(logging.FieldStage, string(stage)),
		logging.String(logging.FieldNamespace, namespace),
		logging.String("name", name),
	)
	return nil
}

// ReadArtifact loads the named artifact into the provided destination. It
// fails with the NotFound marker when the artifact is absent and Corrupt when
// the stored document cannot be decoded.
func (s *Store) ReadArtifact(stage Stage, namespace, name string, into any) error {
	if err := validNamespace(namespace); err != nil {
		return err
	}
	target := filepath.Join(s.root, namespace, string(stage), name)
	data, err := os.ReadFile(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return services.Wrap(services.ErrNotFound, string(stage), "read artifact", name, nil)
		}
		return fmt.Errorf("read artifact %s: %w", target, err)
	}
	if err := json.Unmarshal(data, into); err != nil {
		return services.Wrap(services.ErrCorrupt, string(stage), "decode artifact", name, err)
	}
	return nil
}

// HasArtifact reports whether the named artifact exists.
func (s *Store) HasArtifact(stage Stage, namespace, name string) bool {
	if validNamespace(namespace) != nil {
		return false
	}
	_, err := os.Stat(filepath.Join(s.root, namespace, string(stage), name))
	return err == nil
}

// ListSegments returns the raw segment names for a namespace in a stable
// lexical order. The order carries no timing semantics; the aggregator
// re-orders fragments by timestamp.
func (s *Store) ListSegments(namespace string) ([]string, error) {
	if err := validNamespace(namespace); err != nil {
		return nil, err
	}
	dir := filepath.Join(s.root, namespace, string(StageRecorded))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list segments: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// ListArtifacts returns the artifact names present for a stage, lexically
// sorted.
func (s *Store) ListArtifacts(stage Stage, namespace string) ([]string, error) {
	if err := validNamespace(namespace); err != nil {
		return nil, err
	}
	dir := filepath.Join(s.root, namespace, string(stage))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// SegmentPath returns the absolute path of a raw segment file.
func (s *Store) SegmentPath(namespace, name string) string {
	return filepath.Join(s.root, namespace, string(StageRecorded), name)
}

// ImportSegment copies an audio file into the namespace's raw-input
// directory under its base name. The copy is verified by size and SHA256;
// a mismatch removes the partial copy and fails.
func (s *Store) ImportSegment(namespace, sourcePath string) (string, error) {
	if _, err := s.Path(StageRecorded, namespace); err != nil {
		return "", err
	}
	name := filepath.Base(sourcePath)
	dest := s.SegmentPath(namespace, name)
	if err := copyVerified(sourcePath, dest); err != nil {
		return "", fmt.Errorf("import segment %s: %w", name, err)
	}
	s.logger.Info("segment imported",
		logging.String(logging.FieldNamespace, namespace),
		logging.String("segment", name),
	)
	return dest, nil
}

func copyVerified(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	srcHasher := sha256.New()
	dstHasher := sha256.New()
	written, err := io.Copy(io.MultiWriter(out, dstHasher), io.TeeReader(in, srcHasher))
	if err != nil {
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	if written != srcInfo.Size() {
		_ = os.Remove(dst)
		return fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", srcInfo.Size(), written)
	}
	if !bytes.Equal(srcHasher.Sum(nil), dstHasher.Sum(nil)) {
		_ = os.Remove(dst)
		return errors.New("copy hash mismatch: file corrupted during copy")
	}

	// Keep the recording time: fragment ordering follows file mtime.
	return os.Chtimes(dst, srcInfo.ModTime(), srcInfo.ModTime())
}

// ResetNamespace deletes every raw-input entry for the namespace so a fresh
// recording session can begin. Deletion continues past individual failures;
// the returned error aggregates each entry that could not be removed.
func (s *Store) ResetNamespace(namespace string) error {
	if err := validNamespace(namespace); err != nil {
		return err
	}
	dir := filepath.Join(s.root, namespace, string(StageRecorded))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reset namespace %s: %w", namespace, err)
	}
	removed := 0
	var failures []error
	for _, entry := range entries {
		target := filepath.Join(dir, entry.Name())
		if err := os.Remove(target); err != nil {
			s.logger.Warn("segment removal failed; continuing",
				logging.String(logging.FieldNamespace, namespace),
				logging.String("segment", entry.Name()),
				logging.Error(err),
			)
			failures = append(failures, fmt.Errorf("remove segment %s: %w", entry.Name(), err))
			continue
		}
		removed++
	}
	if len(failures) > 0 {
		return fmt.Errorf("reset namespace %s: %w", namespace, errors.Join(failures...))
	}
	s.logger.Info("namespace reset",
		logging.String(logging.FieldNamespace, namespace),
		logging.Int("segments_removed", removed),
	)
	return nil
}

func validNamespace(namespace string) error {
	trimmed := strings.TrimSpace(namespace)
	if trimmed == "" {
		return errors.New("namespace must not be empty")
	}
	if trimmed != namespace || strings.ContainsAny(namespace, `/\`) || namespace == "." || namespace == ".." {
		return fmt.Errorf("invalid namespace %q", namespace)
	}
	return nil
}
