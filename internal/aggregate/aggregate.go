// Package aggregate merges per-segment transcription fragments into one
// integrated document ordered by timestamp.
package aggregate

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"echonote/internal/artifacts"
	"echonote/internal/logging"
	"echonote/internal/services"
)

// Separator terminates each fragment's text in the integrated document.
const Separator = "。"

// Aggregator reads transcription fragments for a namespace and writes the
// integrated transcript artifact.
type Aggregator struct {
	store  *artifacts.Store
	logger *slog.Logger
}

// New constructs an Aggregator over the given artifact store.
func New(store *artifacts.Store, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		store:  store,
		logger: logging.NewComponentLogger(logger, "aggregator"),
	}
}

// Integrate merges every fragment written by the transcribe stage for the
// namespace into one document, ordered by timestamp ascending with ties kept
// in read order, and persists it as the stage's integrated artifact. The
// merge is a full replacement: rerunning with the same fragment set
// reproduces identical output.
func (a *Aggregator) Integrate(ctx context.Context, namespace string) (artifacts.Integrated, error) {
	var result artifacts.Integrated

	names, err := a.store.ListArtifacts(artifacts.StageTranscribed, namespace)
	if err != nil {
		return result, err
	}

	fragments := make([]artifacts.Fragment, 0, len(names))
	for _, name := range names {
		if name == artifacts.IntegratedName {
			continue
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}
		var frag artifacts.Fragment
		if err := a.store.ReadArtifact(artifacts.StageTranscribed, namespace, name, &frag); err != nil {
			return result, err
		}
		fragments = append(fragments, frag)
	}

	if len(fragments) == 0 {
		return result, services.Wrap(services.ErrEmptyNamespace, "aggregate", "integrate", namespace, nil)
	}

	sort.SliceStable(fragments, func(i, j int) bool {
		return lessTimestamp(fragments[i].Timestamp, fragments[j].Timestamp)
	})

	var b strings.Builder
	for _, frag := range fragments {
		b.WriteString(frag.Text)
		b.WriteString(Separator)
	}
	result.Text = b.String()

	if err := a.store.WriteArtifact(artifacts.StageTranscribed, namespace, artifacts.IntegratedName, result); err != nil {
		return artifacts.Integrated{}, err
	}

	logging.WithContext(ctx, a.logger).Info("fragments integrated",
		logging.String(logging.FieldNamespace, namespace),
		logging.Int("fragments", len(fragments)),
	)
	return result, nil
}

// lessTimestamp orders RFC 3339 instants; unparseable values compare as
// strings so ordering stays deterministic for malformed input.
func lessTimestamp(a, b string) bool {
	ta, errA := time.Parse(time.RFC3339, a)
	tb, errB := time.Parse(time.RFC3339, b)
	if errA != nil || errB != nil {
		return a < b
	}
	return ta.Before(tb)
}
