// Copyright 2025 ScentStack
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package catalog

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"scentstack/platform/enrichment"
	"scentstack/platform/shared/logger"
	"scentstack/platform/store"
)

// Prometheus metrics
var (
	promRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scentstack_catalog_requests_total",
			Help: "Total number of catalog requests",
		},
		[]string{"method", "status"},
	)
	promRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scentstack_catalog_request_duration_milliseconds",
			Help:    "Request duration in milliseconds",
			Buckets: []float64{1, 2, 5, 10, 20, 50, 100, 200, 500, 1000},
		},
		[]string{"method"},
	)
	promEnrichmentFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scentstack_catalog_enrichment_fallbacks_total",
			Help: "Total number of note lookups that degraded to an empty string",
		},
	)
)

func init() {
	// Register Prometheus metrics
	prometheus.MustRegister(promRequestsTotal)
	prometheus.MustRegister(promRequestDuration)
	prometheus.MustRegister(promEnrichmentFallbacks)
}

// healthHandler reports process liveness. It deliberately does not touch the
// store: the connection is established lazily on first catalog request.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "catalog",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Run starts the catalog HTTP service and blocks.
func Run() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLog := logger.New("catalog")

	missing := cfg.MissingRequired()
	if len(missing) > 0 {
		appLog.Warn("", "Required configuration missing; requests will fail until provided", map[string]interface{}{
			"missing": missing,
		})
	}

	perfumeStore := store.New(cfg.MongoURI, cfg.Database)

	var cache *enrichment.Cache
	if cfg.RedisAddr != "" {
		cache = enrichment.NewCache(cfg.RedisAddr, enrichment.DefaultCacheTTL)
	}

	enricher := enrichment.NewClient(enrichment.Config{
		BaseURL: cfg.NotesAPIURL,
		APIKey:  cfg.NotesAPIKey,
	}, cache)

	handler := NewPerfumesHandler(perfumeStore, enricher, appLog, missing)

	router := mux.NewRouter()
	router.HandleFunc("/health", healthHandler).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	// Single method-dispatched route; unsupported methods get 405 + Allow
	router.HandleFunc("/api/perfumes", handler.HandlePerfumes)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(router)

	appLog.Info("", "Catalog service listening", map[string]interface{}{
		"port":          cfg.Port,
		"redis_enabled": cfg.RedisAddr != "",
	})

	if err := http.ListenAndServe(":"+cfg.Port, corsHandler); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
