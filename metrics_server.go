package main

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jmccarv/substsolve/internal/logging"
)

func newMetricsRouter(reg *prometheus.Registry) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))
	return router
}

// startMetricsServer serves /metrics in the background. A failure to listen
// is logged and otherwise ignored so it never stops the search.
func startMetricsServer(addr string, reg *prometheus.Registry, logger logging.Logger) *http.Server {
	srv := &http.Server{Addr: addr, Handler: newMetricsRouter(reg)}
	go func() {
		logger.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "addr", addr, "error", err)
		}
	}()
	return srv
}
