// Copyright © 2024 The wlscope authors

package analysis

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// cacheLookups counts per-file cache lookups.
	// Labels: cache (resolve, globals), result (hit, miss)
	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wlscope",
		Subsystem: "analysis",
		Name:      "cache_lookups_total",
		Help:      "Total per-file cache lookups by cache and result",
	}, []string{"cache", "result"})

	// cacheInvalidations counts tree rebuilds that discarded a cache.
	cacheInvalidations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wlscope",
		Subsystem: "analysis",
		Name:      "cache_invalidations_total",
		Help:      "Total per-file cache invalidations by cache",
	}, []string{"cache"})

	// filesScanned counts workspace files parsed by ScanWorkspace.
	// Labels: result (ok, error)
	filesScanned = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wlscope",
		Subsystem: "analysis",
		Name:      "files_scanned_total",
		Help:      "Total workspace files scanned by result",
	}, []string{"result"})
)
