// Package api serves single decisions over HTTP.
package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tonobo/autopilot"
)

type Router struct {
	cfg autopilot.Config
	log *log.Logger
}

func New(cfg autopilot.Config, logger *log.Logger) *Router {
	return &Router{cfg: cfg, log: logger}
}

// Engine builds the gin engine with the /ping, /start, /move and /end
// routes.
func (r *Router) Engine() *gin.Engine {
	e := gin.New()
	e.Use(gin.LoggerWithWriter(r.log.Writer()), gin.Recovery())

	e.POST("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{})
	})

	e.POST("/start", func(c *gin.Context) {
		id := uuid.NewString()
		r.log.Printf("start session %s", id)
		c.JSON(http.StatusOK, gin.H{
			"session": id,
			"cols":    r.cfg.Cols,
			"rows":    r.cfg.Rows,
		})
	})

	e.POST("/end", func(c *gin.Context) {
		r.log.Printf("end session %s", c.Query("session"))
		c.JSON(http.StatusOK, gin.H{})
	})

	e.POST("/move", r.move)
	return e
}

func (r *Router) move(c *gin.Context) {
	// The body is the snapshot document itself, as read by -move.
	var snap autopilot.PerceptionSnapshot
	if err := c.ShouldBindJSON(&snap); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	d, err := autopilot.DecideOnce(r.cfg, snap)
	if err != nil {
		var te *autopilot.TerminationError
		if !errors.As(err, &te) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		r.log.Printf("move: %v", err)
		c.JSON(statusFor(te.Reason), gin.H{"reason": te.Reason, "error": err.Error()})
		return
	}
	if r.cfg.Debug {
		autopilot.PrintGrid(r.log.Writer(), d.Board, d.Path)
	}
	c.JSON(http.StatusOK, gin.H{
		"move":     d.Move,
		"path":     d.Path,
		"fallback": d.Fallback,
	})
}

func statusFor(reason autopilot.Reason) int {
	switch reason {
	case autopilot.ReasonGameOver:
		return http.StatusConflict
	case autopilot.ReasonInvariantViolation:
		return http.StatusInternalServerError
	}
	return http.StatusUnprocessableEntity
}
