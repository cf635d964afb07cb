package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var eventProcessDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name: "swearjar_message_duration_sec",
	Help: "Total duration of message processing",
})

var eventProcessCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "swearjar_messages_processed",
	Help: "Number of messages processed",
})

var eventErrorCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "swearjar_message_errors",
	Help: "Number of message pipelines which failed, by pipeline",
}, []string{"pipeline"})

var findingCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "swearjar_findings",
	Help: "Number of policy findings, by kind",
}, []string{"kind"})

var muteCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "swearjar_engine_mutes",
	Help: "Number of mutes triggered by message processing, by pipeline",
}, []string{"pipeline"})

var sinkErrorCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "swearjar_engine_sink_errors",
	Help: "Number of failed platform side effects during message processing",
}, []string{"op"})

var coinsAwarded = promauto.NewCounter(prometheus.CounterOpts{
	Name: "swearjar_coins_awarded",
	Help: "Coins credited for positive words",
})

var coinsPenalized = promauto.NewCounter(prometheus.CounterOpts{
	Name: "swearjar_coins_penalized",
	Help: "Coins deducted for swearing",
})
