package sink

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var sinkFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "swearjar_sink_failures",
	Help: "Number of failed platform API calls, by operation",
}, []string{"op"})

var notifyFailures = promauto.NewCounter(prometheus.CounterOpts{
	Name: "swearjar_notify_failures",
	Help: "Number of failed out-of-band moderator notifications",
})
