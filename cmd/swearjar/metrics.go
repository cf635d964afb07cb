package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("swearjar")

var messagesReceived = promauto.NewCounter(prometheus.CounterOpts{
	Name: "swearjar_messages_received",
	Help: "Number of guild messages received from the gateway",
})

var messagesFailed = promauto.NewCounter(prometheus.CounterOpts{
	Name: "swearjar_messages_failed",
	Help: "Number of messages with at least one failed pipeline",
})

var commandsHandled = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "swearjar_commands_handled",
	Help: "Number of slash commands handled, by command and outcome",
}, []string{"command", "outcome"})
