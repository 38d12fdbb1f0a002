// Copyright 2025 l3montree UG (haftungsbeschraenkt).
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var CorrelationTaskAmount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "threatlinker_correlation_task_amount",
	Help: "Amount of correlation tasks started",
})

var CorrelationTaskSuccess = promauto.NewCounter(prometheus.CounterOpts{
	Name: "threatlinker_correlation_task_success",
	Help: "Amount of correlation tasks which reached the complete status",
})

var SingleCVEDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "threatlinker_single_cve_correlation_duration_seconds",
	Help:    "Duration of scoring a single CVE against the CAPEC catalog in seconds",
	Buckets: prometheus.DefBuckets,
})

var SingleCVEFailures = promauto.NewCounter(prometheus.CounterOpts{
	Name: "threatlinker_single_cve_correlation_failures",
	Help: "Amount of CVEs whose correlation ended in a failed record",
})

var SubgroupDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "threatlinker_subgroup_duration_minutes",
	Help:    "Duration of processing one CVE subgroup in minutes",
	Buckets: prometheus.DefBuckets,
})

var CallbackFailures = promauto.NewCounter(prometheus.CounterOpts{
	Name: "threatlinker_completion_callback_failures",
	Help: "Amount of failed completion callback deliveries (after retries)",
})
