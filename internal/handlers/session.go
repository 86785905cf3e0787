// internal/handlers/session.go
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/CkBcDD/NexBack/internal/config"
	"github.com/CkBcDD/NexBack/internal/engine"
	"github.com/CkBcDD/NexBack/internal/repository"
	"github.com/CkBcDD/NexBack/internal/session"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// activeSessionKey is the cookie-session key remembering the trainee's
// current training session.
const activeSessionKey = "activeSessionID"

type SessionHandler struct {
	log *zap.Logger
	mgr *session.Manager
}

func NewSessionHandler(log *zap.Logger, mgr *session.Manager) *SessionHandler {
	return &SessionHandler{log: log, mgr: mgr}
}

// startRequest carries per-session overrides of the configured game
// defaults. Pointer fields distinguish "not sent" from an explicit
// zero, so a client can request e.g. a 0.0 match probability.
type startRequest struct {
	NLevel                   *int     `json:"n_level"`
	TrialCount               *int     `json:"trial_count"`
	Alphabet                 *string  `json:"alphabet"`
	PositionMatchProbability *float64 `json:"position_match_probability"`
	AudioMatchProbability    *float64 `json:"audio_match_probability"`
	InterferenceProbability  *float64 `json:"interference_probability"`
	ResponseWindowMS         *int     `json:"response_window_ms"`
	ScoringMode              *string  `json:"scoring_mode"`
	Seed                     *int64   `json:"seed"`
}

// buildConfig layers request overrides over the game defaults.
func buildConfig(req startRequest) engine.SessionConfig {
	defaults := config.Conf.Game
	cfg := engine.SessionConfig{
		NLevel:                   defaults.NLevel,
		TrialCount:               defaults.TrialCount,
		Alphabet:                 defaults.Alphabet,
		PositionMatchProbability: defaults.PositionMatchProbability,
		AudioMatchProbability:    defaults.AudioMatchProbability,
		InterferenceProbability:  defaults.InterferenceProbability,
		ResponseWindow:           time.Duration(defaults.ResponseWindowMS) * time.Millisecond,
		ScoringMode:              engine.ScoringStandard,
		Seed:                     req.Seed,
	}
	if req.NLevel != nil {
		cfg.NLevel = *req.NLevel
	}
	if req.TrialCount != nil {
		cfg.TrialCount = *req.TrialCount
	}
	if req.Alphabet != nil {
		cfg.Alphabet = *req.Alphabet
	}
	if req.PositionMatchProbability != nil {
		cfg.PositionMatchProbability = *req.PositionMatchProbability
	}
	if req.AudioMatchProbability != nil {
		cfg.AudioMatchProbability = *req.AudioMatchProbability
	}
	if req.InterferenceProbability != nil {
		cfg.InterferenceProbability = *req.InterferenceProbability
	}
	if req.ResponseWindowMS != nil {
		cfg.ResponseWindow = time.Duration(*req.ResponseWindowMS) * time.Millisecond
	}
	if req.ScoringMode != nil {
		cfg.ScoringMode = engine.ScoringMode(*req.ScoringMode)
	}
	return cfg
}

// Start creates a new training session. Invalid configurations are the
// caller's error; everything else is a server fault.
func (h *SessionHandler) Start(c *gin.Context) {
	var req startRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.log.Warn("Failed to bind session start request", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
	}

	cfg := buildConfig(req)
	id, err := h.mgr.Start(cfg)
	if err != nil {
		if errors.Is(err, engine.ErrInvalidConfig) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.log.Error("Failed to start session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start session"})
		return
	}

	cookieSession := sessions.Default(c)
	cookieSession.Set(activeSessionKey, id)
	if err := cookieSession.Save(); err != nil {
		h.log.Warn("Failed to save cookie session", zap.Error(err))
	}

	c.JSON(http.StatusCreated, gin.H{
		"session_id":         id,
		"n_level":            cfg.NLevel,
		"trial_count":        cfg.TrialCount,
		"response_window_ms": cfg.ResponseWindow.Milliseconds(),
		"scoring_mode":       cfg.ScoringMode,
	})
}

// State reports the session's live snapshot: machine state, current
// stimulus and progress. UI and audio collaborators poll this.
func (h *SessionHandler) State(c *gin.Context) {
	snap, err := h.mgr.Snapshot(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	c.JSON(http.StatusOK, snap)
}

type respondRequest struct {
	Modality string `json:"modality" binding:"required"`
}

// Respond records a match key press. Duplicate and late presses are
// expected inputs, not errors; they simply have no effect.
func (h *SessionHandler) Respond(c *gin.Context) {
	var req respondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	modality, err := engine.ParseModality(req.Modality)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.mgr.Submit(c.Param("id"), modality); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	c.Status(http.StatusAccepted)
}

// Abort force-completes the session; the scored prefix still counts.
func (h *SessionHandler) Abort(c *gin.Context) {
	if err := h.mgr.Abort(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

// Result returns the final aggregate scores once the session completed.
func (h *SessionHandler) Result(c *gin.Context) {
	snap, err := h.mgr.Snapshot(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	if snap.Result == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Session still in progress"})
		return
	}
	c.JSON(http.StatusOK, snap.Result)
}

// History lists recently persisted session summaries, newest first.
func (h *SessionHandler) History(c *gin.Context) {
	records, err := repository.ListSessionHistory(50)
	if err != nil {
		h.log.Error("Failed to load session history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load history"})
		return
	}
	c.JSON(http.StatusOK, records)
}

// HistoryDetail returns one persisted session with its trial rows.
func (h *SessionHandler) HistoryDetail(c *gin.Context) {
	record, err := repository.GetSessionBySessionID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	trials, err := repository.GetTrialsForSession(record.ID)
	if err != nil {
		h.log.Error("Failed to load session trials", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load trials"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": record, "trials": trials})
}
