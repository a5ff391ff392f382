package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(dbPoolConns) }

// state: total|idle|acquired|max
var dbPoolConns = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "paypal_relay_db_pool_connections",
		Help: "PostgreSQL pool connections by state.",
	},
	[]string{"state"},
)

// PoolStat is the part of pgxpool.Stat the gauges read.
type PoolStat interface {
	TotalConns() int32
	IdleConns() int32
	AcquiredConns() int32
	MaxConns() int32
}

func SetDBPoolStats(s PoolStat) {
	dbPoolConns.WithLabelValues("total").Set(float64(s.TotalConns()))
	dbPoolConns.WithLabelValues("idle").Set(float64(s.IdleConns()))
	dbPoolConns.WithLabelValues("acquired").Set(float64(s.AcquiredConns()))
	dbPoolConns.WithLabelValues("max").Set(float64(s.MaxConns()))
}
