package obs_test

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pricelist/internal/obs"
)

func TestDomainMetricsRecorders(t *testing.T) {
	obs.MustRegisterDomainMetrics("pricelist_test", prometheus.NewRegistry())

	before := testutil.ToFloat64(obs.PriceQuotesTotal.WithLabelValues("matched"))
	obs.RecordPriceQuote(true)
	obs.RecordPriceQuote(false)
	require.Equal(t, before+1, testutil.ToFloat64(obs.PriceQuotesTotal.WithLabelValues("matched")))
	require.GreaterOrEqual(t, testutil.ToFloat64(obs.PriceQuotesTotal.WithLabelValues("no_match")), 1.0)

	obs.RecordCatalogLoad("static", nil, 12)
	require.Equal(t, 12.0, testutil.ToFloat64(obs.CatalogRecords))
	obs.RecordCatalogLoad("http", errors.New("boom"), 0)
	require.GreaterOrEqual(t, testutil.ToFloat64(obs.CatalogLoadsTotal.WithLabelValues("http", "error")), 1.0)

	obs.RecordListOp("add_line", nil)
	require.GreaterOrEqual(t, testutil.ToFloat64(obs.ShoppingListOpsTotal.WithLabelValues("add_line", "ok")), 1.0)
}

func TestParseBucketsCSV(t *testing.T) {
	require.Equal(t, []float64{5, 12.5, 250}, obs.ParseBucketsCSV(" 5, x, -1, ,12.5,250"))
	require.Nil(t, obs.ParseBucketsCSV(""))
}
