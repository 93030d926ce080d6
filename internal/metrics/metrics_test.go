package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"adaptivequiz/internal/model"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveSelection(t *testing.T) {
	m := NewSelection()

	m.ObserveSelection(model.SourceCompletion, "", 120*time.Millisecond)
	m.ObserveSelection(model.SourceFallback, "timeout", 7*time.Second)
	m.ObserveSelection(model.SourceFallback, "timeout", 7*time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.outcomes.WithLabelValues("fallback", "timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.outcomes.WithLabelValues("completion", "")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `quiz_selection_total{reason="timeout",source="fallback"} 2`)
}
