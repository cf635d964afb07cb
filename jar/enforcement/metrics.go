package enforcement

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var mutesIssued = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "swearjar_mutes_issued",
	Help: "Number of mutes issued, by whether an existing mute was extended",
}, []string{"extended"})

var mutesReverted = promauto.NewCounter(prometheus.CounterOpts{
	Name: "swearjar_mutes_reverted",
	Help: "Number of mutes which expired and were reverted",
})

var mutesActive = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "swearjar_mutes_active",
	Help: "Number of currently armed mute reversal timers",
})

var enforcementFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "swearjar_enforcement_failures",
	Help: "Number of failed restriction side effects, by operation",
}, []string{"op"})
