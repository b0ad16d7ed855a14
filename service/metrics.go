// (c) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package service

import (
	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "zkledger"

type metrics struct {
	receipts    prometheus.Counter
	validations *prometheus.CounterVec
	failures    *prometheus.CounterVec
	execution   *prometheus.HistogramVec
}

func newMetrics(registerer prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		receipts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "receipts_created",
			Help:      "Number of receipts created",
		}),
		validations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validations",
			Help:      "Number of validation requests by result",
		}, []string{"result"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failures",
			Help:      "Number of failed requests by method",
		}, []string{"method"}),
		execution: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "environment_seconds",
			Help:      "Time spent in the execution environment",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		}, []string{"operation"}),
	}

	errs := wrappers.Errs{}
	errs.Add(
		registerer.Register(m.receipts),
		registerer.Register(m.validations),
		registerer.Register(m.failures),
		registerer.Register(m.execution),
	)
	return m, errs.Err
}
