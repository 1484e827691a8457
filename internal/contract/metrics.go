package contract

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ledgerInvocationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_invocations_total",
		Help: "Total contract invocations by contract, function, and outcome.",
	}, []string{"contract", "function", "outcome"})

	ledgerInvocationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_invocation_duration_seconds",
		Help:    "Contract invocation duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"contract", "function"})

	ledgerJournalEntriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_journal_entries_total",
		Help: "Total invocation journal entries appended.",
	})

	ledgerJournalFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ledger_journal_failures_total",
		Help: "Total invocation journal appends that failed.",
	})
)

func recordInvocation(contract, function, outcome string, d time.Duration) {
	ledgerInvocationsTotal.WithLabelValues(contract, function, outcome).Inc()
	ledgerInvocationDuration.WithLabelValues(contract, function).Observe(d.Seconds())
}

func recordJournalAppend(ok bool) {
	if ok {
		ledgerJournalEntriesTotal.Inc()
	} else {
		ledgerJournalFailuresTotal.Inc()
	}
}
