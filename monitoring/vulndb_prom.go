// Copyright 2025 l3montree UG (haftungsbeschraenkt).
// SPDX-License-Identifier: 	AGPL-3.0-or-later

package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var VulnDBUpdateDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "threatlinker_vulndb_update_duration_minutes",
	Help:    "Duration of the vulndb update in minutes",
	Buckets: prometheus.DefBuckets,
})
