package aggregate_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"echonote/internal/aggregate"
	"echonote/internal/artifacts"
	"echonote/internal/logging"
	"echonote/internal/services"
)

func newAggregator(t *testing.T) (*aggregate.Aggregator, *artifacts.Store) {
	t.Helper()
	store := artifacts.NewStore(t.TempDir(), logging.NewNop())
	return aggregate.New(store, logging.NewNop()), store
}

func writeFragment(t *testing.T, store *artifacts.Store, ns, name string, frag artifacts.Fragment) {
	t.Helper()
	require.NoError(t, store.WriteArtifact(artifacts.StageTranscribed, ns, name, frag))
}

func TestIntegrateOrdersByTimestampNotFilename(t *testing.T) {
	agg, store := newAggregator(t)

	writeFragment(t, store, "session1", "a.json", artifacts.Fragment{
		Text: "world", Timestamp: "2024-01-01T00:00:01Z", Source: "a.wav",
	})
	writeFragment(t, store, "session1", "b.json", artifacts.Fragment{
		Text: "hello", Timestamp: "2024-01-01T00:00:00Z", Source: "b.wav",
	})

	result, err := agg.Integrate(context.Background(), "session1")
	require.NoError(t, err)
	assert.Equal(t, "hello。world。", result.Text)

	var persisted artifacts.Integrated
	require.NoError(t, store.ReadArtifact(artifacts.StageTranscribed, "session1", artifacts.IntegratedName, &persisted))
	assert.Equal(t, result, persisted)
}

func TestIntegrateTiesKeepReadOrder(t *testing.T) {
	agg, store := newAggregator(t)

	ts := "2024-05-05T10:00:00Z"
	writeFragment(t, store, "ns", "a.json", artifacts.Fragment{Text: "first", Timestamp: ts})
	writeFragment(t, store, "ns", "b.json", artifacts.Fragment{Text: "second", Timestamp: ts})
	writeFragment(t, store, "ns", "c.json", artifacts.Fragment{Text: "third", Timestamp: ts})

	result, err := agg.Integrate(context.Background(), "ns")
	require.NoError(t, err)
	assert.Equal(t, "first。second。third。", result.Text)
}

func TestIntegrateIsIdempotent(t *testing.T) {
	agg, store := newAggregator(t)

	writeFragment(t, store, "ns", "a.json", artifacts.Fragment{Text: "a", Timestamp: "2024-01-01T00:00:00Z"})
	writeFragment(t, store, "ns", "b.json", artifacts.Fragment{Text: "b", Timestamp: "2024-01-01T00:00:01Z"})

	first, err := agg.Integrate(context.Background(), "ns")
	require.NoError(t, err)
	second, err := agg.Integrate(context.Background(), "ns")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestIntegrateReplacesAfterNewFragments(t *testing.T) {
	agg, store := newAggregator(t)

	writeFragment(t, store, "ns", "a.json", artifacts.Fragment{Text: "b", Timestamp: "2024-01-01T00:00:01Z"})
	first, err := agg.Integrate(context.Background(), "ns")
	require.NoError(t, err)
	assert.Equal(t, "b。", first.Text)

	// A later-arriving fragment with an earlier timestamp lands in front on
	// the rerun: the integrated artifact is replaced wholesale.
	writeFragment(t, store, "ns", "b.json", artifacts.Fragment{Text: "a", Timestamp: "2024-01-01T00:00:00Z"})
	second, err := agg.Integrate(context.Background(), "ns")
	require.NoError(t, err)
	assert.Equal(t, "a。b。", second.Text)
}

func TestIntegrateEmptyNamespace(t *testing.T) {
	agg, _ := newAggregator(t)

	_, err := agg.Integrate(context.Background(), "empty")
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrEmptyNamespace)
}

func TestIntegrateIgnoresPriorIntegratedArtifact(t *testing.T) {
	agg, store := newAggregator(t)

	writeFragment(t, store, "ns", "a.json", artifacts.Fragment{Text: "solo", Timestamp: "2024-01-01T00:00:00Z"})
	_, err := agg.Integrate(context.Background(), "ns")
	require.NoError(t, err)

	// Rerunning must not treat the integrated document as a fragment.
	result, err := agg.Integrate(context.Background(), "ns")
	require.NoError(t, err)
	assert.Equal(t, "solo。", result.Text)
}

func TestIntegrateCorruptFragmentFails(t *testing.T) {
	agg, store := newAggregator(t)

	writeFragment(t, store, "ns", "a.json", artifacts.Fragment{Text: "ok", Timestamp: "2024-01-01T00:00:00Z"})
	// Write a structurally different document under a fragment name.
	require.NoError(t, store.WriteArtifact(artifacts.StageTranscribed, "ns", "b.json", []string{"not", "a", "fragment"}))

	_, err := agg.Integrate(context.Background(), "ns")
	assert.ErrorIs(t, err, services.ErrCorrupt)
}
