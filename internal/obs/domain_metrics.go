package obs

import (
	"errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// PriceQuotesTotal counts price resolutions by result (matched, no_match).
	PriceQuotesTotal *prometheus.CounterVec
	// CatalogLoadsTotal counts catalog loads by source and result.
	CatalogLoadsTotal *prometheus.CounterVec
	// CatalogRecords reports the record count of the installed catalog snapshot.
	CatalogRecords prometheus.Gauge
	// ShoppingListOpsTotal counts shopping list mutations by operation and result.
	ShoppingListOpsTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		PriceQuotesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "price_quotes_total",
			Help:      "Count of price resolutions by outcome.",
		}, []string{"result"})
		CatalogLoadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_loads_total",
			Help:      "Count of catalog loads by source and outcome.",
		}, []string{"source", "result"})
		CatalogRecords = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_records",
			Help:      "Number of price records in the installed catalog.",
		})
		ShoppingListOpsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shopping_list_ops_total",
			Help:      "Count of shopping list operations by outcome.",
		}, []string{"op", "result"})

		PriceQuotesTotal = register(reg, PriceQuotesTotal)
		CatalogLoadsTotal = register(reg, CatalogLoadsTotal)
		CatalogRecords = register(reg, CatalogRecords)
		ShoppingListOpsTotal = register(reg, ShoppingListOpsTotal)
	})
}

// RecordPriceQuote increments PriceQuotesTotal when metrics are registered.
func RecordPriceQuote(matched bool) {
	if PriceQuotesTotal == nil {
		return
	}
	result := "no_match"
	if matched {
		result = "matched"
	}
	PriceQuotesTotal.WithLabelValues(result).Inc()
}

// RecordCatalogLoad tracks a catalog load outcome and, on success, the record count.
func RecordCatalogLoad(source string, err error, records int) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	if CatalogLoadsTotal != nil {
		CatalogLoadsTotal.WithLabelValues(source, result).Inc()
	}
	if CatalogRecords != nil {
		CatalogRecords.Set(float64(records))
	}
}

// RecordListOp tracks a shopping list operation outcome.
func RecordListOp(op string, err error) {
	if ShoppingListOpsTotal == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	ShoppingListOpsTotal.WithLabelValues(op, result).Inc()
}

// register adds c to reg, returning the collector already registered under
// the same descriptor when there is one.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(fmt.Errorf("register metric: %w", err))
	}
	return c
}
