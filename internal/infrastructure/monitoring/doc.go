/*
Package monitoring provides metrics collection for the scraper service.

# Overview

Prometheus metrics covering the HTTP surface, the execution core (attempts,
gate rejections, fallback tiers, sandbox evaluation time) and external
dependencies (code generation, fetch, breakers). Each Metrics value owns a
private registry so several can coexist in one process.

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	timer := monitoring.NewTimer(metrics, "codegen", "generate")
	// ... call the model ...
	timer.Stop("success")
*/
package monitoring
