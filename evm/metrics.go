package evm

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds the engine metrics. It is not registered with the default
// prometheus registry; embedders gather or register it themselves.
var Registry = prometheus.NewRegistry()

var (
	opcodeCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "evm",
		Name:      "opcodes_total",
		Help:      "Number of executed instructions.",
	})
	frameCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "evm",
		Name:      "frames_total",
		Help:      "Number of entered frames by message type.",
	}, []string{"type"})
	frameHaltCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "evm",
		Name:      "frames_halted_total",
		Help:      "Number of halted frames by final status.",
	}, []string{"status"})
	precompileCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "evm",
		Name:      "precompile_calls_total",
		Help:      "Number of precompiled contract invocations.",
	})
	codeCacheHitCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "evm",
		Subsystem: "code_cache",
		Name:      "hits_total",
		Help:      "Analysed code served from the cache.",
	})
	codeCacheMissCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "evm",
		Subsystem: "code_cache",
		Name:      "misses_total",
		Help:      "Analysed code missing from the cache.",
	})
)

func init() {
	Registry.MustRegister(
		opcodeCounter,
		frameCounter,
		frameHaltCounter,
		precompileCounter,
		codeCacheHitCounter,
		codeCacheMissCounter,
	)
}
