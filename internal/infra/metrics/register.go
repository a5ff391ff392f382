package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once       sync.Once
	collectors []prometheus.Collector
)

// register queues collectors from each file's init().
func register(cs ...prometheus.Collector) {
	collectors = append(collectors, cs...)
}

// MustRegister registers every queued collector with the default registry, once.
func MustRegister() {
	once.Do(func() { MustRegisterWith(prometheus.DefaultRegisterer) })
}

// MustRegisterWith registers every queued collector with reg. Tests use a
// fresh registry; production goes through MustRegister.
func MustRegisterWith(reg prometheus.Registerer) {
	if len(collectors) > 0 {
		reg.MustRegister(collectors...)
	}
}

// norm lowercases label values so callers cannot split a series by casing.
func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
