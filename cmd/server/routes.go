// Package main provides the advising chat server entry point.
package main

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	domerrors "github.com/haksamate/advisor-go/internal/errors"
	"github.com/haksamate/advisor-go/internal/logger"
	"github.com/haksamate/advisor-go/internal/orchestrator"
	"github.com/haksamate/advisor-go/internal/rag"
	"github.com/haksamate/advisor-go/internal/ratelimit"
	"github.com/haksamate/advisor-go/internal/storage"
	"github.com/haksamate/advisor-go/internal/stringutil"
	"github.com/haksamate/advisor-go/internal/tools"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxChatMessageRunes caps one chat message; longer input is rejected
// before parsing.
const maxChatMessageRunes = 500

// validStudentID checks the ID shape before the store is hit.
func validStudentID(id string) bool {
	return len(id) == 8 && stringutil.IsNumeric(id)
}

type routeDeps struct {
	orch      *orchestrator.Orchestrator
	db        *storage.DB
	limiter   *ratelimit.PerKeyLimiter
	registry  *prometheus.Registry
	bm25Index *rag.BM25Index
	vectorDB  *rag.VectorDB
	log       *logger.Logger
}

type authRequest struct {
	StudentID string `json:"student_id" binding:"required"`
}

type chatRequest struct {
	StudentID string `json:"student_id" binding:"required"`
	Message   string `json:"message" binding:"required"`
}

// setupRoutes configures all HTTP routes.
func setupRoutes(router *gin.Engine, deps routeDeps) {
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"service": "advisor"})
	})

	// Liveness probe. Never checks dependencies, only that the process
	// is serving.
	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/healthz", healthHandler)
	router.HEAD("/healthz", healthHandler)

	// Readiness probe with a full dependency check.
	readyHandler := func(c *gin.Context) {
		if err := deps.db.Ready(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"reason": err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":   "ready",
			"database": "connected",
			"search": gin.H{
				"bm25_documents": deps.bm25Index.Count(),
				"vector_enabled": deps.vectorDB.IsEnabled(),
			},
		})
	}
	router.GET("/ready", readyHandler)
	router.HEAD("/ready", readyHandler)

	router.POST("/auth", authHandler(deps))
	router.POST("/chat", chatHandler(deps))

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.registry, promhttp.HandlerOpts{})))
}

// authHandler verifies a student ID against the store and returns the
// identity payload the chat endpoint expects.
func authHandler(deps routeDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req authRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "student_id is required"})
			return
		}
		if !validStudentID(req.StudentID) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "student_id must be 8 digits"})
			return
		}

		student, err := deps.db.GetStudentByID(c.Request.Context(), req.StudentID)
		if err != nil {
			if errors.Is(err, domerrors.ErrNotFound) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown student"})
				return
			}
			deps.log.WithError(err).WithStudent(req.StudentID).Errorf("Auth lookup failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"student_id": student.ID,
			"name":       student.Name,
			"verified":   true,
		})
	}
}

// chatHandler runs one advising turn. The orchestrator owns all turn
// failures, so any 200 response carries user-safe text even on the
// errored path.
func chatHandler(deps routeDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req chatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "student_id and message are required"})
			return
		}
		if !validStudentID(req.StudentID) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "student_id must be 8 digits"})
			return
		}
		if len([]rune(strings.TrimSpace(req.Message))) == 0 || len([]rune(req.Message)) > maxChatMessageRunes {
			c.JSON(http.StatusBadRequest, gin.H{"error": "message must be 1-500 characters"})
			return
		}

		if !deps.limiter.Allow(req.StudentID) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}

		student, err := deps.db.GetStudentByID(c.Request.Context(), req.StudentID)
		if err != nil {
			if errors.Is(err, domerrors.ErrNotFound) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown student"})
				return
			}
			deps.log.WithError(err).WithStudent(req.StudentID).Errorf("Chat identity lookup failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		resp := deps.orch.Process(c.Request.Context(), orchestrator.Request{
			Identity: tools.Identity{StudentID: student.ID, Name: student.Name, Verified: true},
			Message:  req.Message,
		})

		c.JSON(http.StatusOK, gin.H{
			"state":    string(resp.State),
			"category": string(resp.Category),
			"text":     resp.Text,
		})
	}
}
