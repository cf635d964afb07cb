package ledger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var storeRetries = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "swearjar_ledger_store_failures",
	Help: "Number of failed ledger store operations, by operation",
}, []string{"op"})
