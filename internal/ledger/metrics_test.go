package ledger_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrwa/rwa-ledger/internal/domain"
	"github.com/openrwa/rwa-ledger/internal/ledger"
	"github.com/openrwa/rwa-ledger/internal/metrics"
)

func TestEngine_RecordsCallMetrics(t *testing.T) {
	ctx := context.Background()
	m := metrics.NewWith(prometheus.NewRegistry())

	eng, err := ledger.New(testParams(), ledger.NewMemoryJournal(), ledger.WithMetrics(m))
	require.NoError(t, err)
	require.NoError(t, eng.Load(ctx))

	_, err = eng.TokenizeAsset(ctx, registrar, 1, "ipfs://asset", 50_000)
	require.NoError(t, err)
	_, err = eng.TokenizeAsset(ctx, investor, 1, "ipfs://other", 50_000)
	require.ErrorIs(t, err, domain.ErrNotAuthorized)

	assert.Equal(t, float64(1),
		testutil.ToFloat64(m.EventsCommitted.WithLabelValues(string(domain.EventAssetTokenized))))
	assert.Equal(t, float64(1),
		testutil.ToFloat64(m.CallsRejected.WithLabelValues("tokenize_asset", "104")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.JournalSeq))

	// Both the committed and the rejected call produced a timing sample
	// under the operation label
	assert.Equal(t, 1, testutil.CollectAndCount(m.CallDuration, "ledger_call_duration_seconds"))
}
