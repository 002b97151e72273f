package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gilsentrycs/monitor-flights/config"
	"github.com/gilsentrycs/monitor-flights/pkg/health"
	"github.com/gilsentrycs/monitor-flights/report"
)

const maxRunsLimit = 200

func healthHandler(checker *health.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if checker == nil {
			c.JSON(http.StatusOK, gin.H{"status": health.StatusUp})
			return
		}
		rep := checker.CheckHealth(c.Request.Context())
		code := http.StatusOK
		if rep.Status == health.StatusDown {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, rep)
	}
}

func statusHandler(sched Scheduler) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sched == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "scheduler is not running"})
			return
		}
		c.JSON(http.StatusOK, sched.Status())
	}
}

func latestReportHandler(cfg config.ReportConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path, err := report.Latest(cfg.OutputDir, cfg.FilePrefix)
		if errors.Is(err, report.ErrNoReports) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no reports saved yet"})
			return
		}
		if err != nil {
			c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list reports"})
			return
		}

		rep, err := report.Load(path)
		if err != nil {
			c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read latest report"})
			return
		}
		c.JSON(http.StatusOK, rep)
	}
}

func listRunsHandler(history RunHistory) gin.HandlerFunc {
	return func(c *gin.Context) {
		if history == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "run history is disabled"})
			return
		}

		limit := 20
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
				return
			}
			limit = min(n, maxRunsLimit)
		}

		runs, err := history.ListRuns(c.Request.Context(), limit)
		if err != nil {
			c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list runs"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"runs": runs, "count": len(runs)})
	}
}

func trendHandler(history RunHistory, origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if history == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "run history is disabled"})
			return
		}
		destination := strings.TrimSpace(c.Param("destination"))

		points, err := history.PriceTrend(c.Request.Context(), origin, destination)
		if err != nil {
			c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load price trend"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"origin":      origin,
			"destination": destination,
			"points":      points,
		})
	}
}

func triggerScanHandler(sched Scheduler, scanCtx context.Context) gin.HandlerFunc {
	return func(c *gin.Context) {
		if sched == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "scheduler is not running"})
			return
		}
		if !sched.Trigger(scanCtx) {
			c.JSON(http.StatusConflict, gin.H{"error": "a scan is already running"})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"status": "scan started"})
	}
}
