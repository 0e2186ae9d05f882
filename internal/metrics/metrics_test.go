package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/fddmap/internal/model"
)

func TestObserveDocument(t *testing.T) {
	okBefore := testutil.ToFloat64(documentsTotal.WithLabelValues("ok"))
	errBefore := testutil.ToFloat64(documentsTotal.WithLabelValues("error"))

	ObserveDocument(nil, 10*time.Millisecond)
	ObserveDocument(errors.New("boom"), time.Millisecond)

	assert.Equal(t, okBefore+1, testutil.ToFloat64(documentsTotal.WithLabelValues("ok")))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(documentsTotal.WithLabelValues("error")))
}

func TestObserveResult(t *testing.T) {
	before := testutil.ToFloat64(sectionsTotal.WithLabelValues("fallback"))
	overlapBefore := testutil.ToFloat64(findingsTotal.WithLabelValues("overlap"))

	ObserveResult(&model.Result{
		Sections: []model.SectionMatch{{Method: model.MethodFallback}, {Method: model.MethodPrimary}},
		Findings: []model.Finding{{Kind: model.FindingOverlap}},
	})
	ObserveResult(nil)

	assert.Equal(t, before+1, testutil.ToFloat64(sectionsTotal.WithLabelValues("fallback")))
	assert.Equal(t, overlapBefore+1, testutil.ToFloat64(findingsTotal.WithLabelValues("overlap")))
}

func TestWriteTextfile(t *testing.T) {
	VerifierCacheHit()
	ObserveVerifierCall("openai", nil)

	path := filepath.Join(t.TempDir(), "fddmap.prom")
	require.NoError(t, WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "fddmap_verify_cache_hits_total"))
	assert.True(t, strings.Contains(string(data), `fddmap_verify_calls_total{outcome="ok",provider="openai"}`))
}

func TestObserveRateWait(t *testing.T) {
	ObserveRateWait("anthropic", 250*time.Millisecond)
	assert.GreaterOrEqual(t, testutil.CollectAndCount(verifierRateWait, "fddmap_verify_rate_wait_seconds"), 1)
}
