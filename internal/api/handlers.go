package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/ajitpratap0/cryptofunk/internal/audit"
	"github.com/ajitpratap0/cryptofunk/internal/config"
	"github.com/ajitpratap0/cryptofunk/internal/pool"
	"github.com/ajitpratap0/cryptofunk/internal/validation"
)

// handleRoot reports the service name and version.
func (s *Server) handleRoot(c *gin.Context) {
	name, version := "poolmind-orchestrator", "unknown"
	if s.cfg != nil {
		name = s.cfg.App.Name
		version = s.cfg.App.Version
	}
	c.JSON(http.StatusOK, gin.H{"service": name, "version": version})
}

// handleGetHealth is a liveness probe; it does not touch the ledger or orchestrator.
func (s *Server) handleGetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleGetStatus reports whether the continuous cycle loop is running, the
// circuit breaker state, and the most recent cycle record.
func (s *Server) handleGetStatus(c *gin.Context) {
	history := s.orch.History()
	var last interface{}
	if len(history) > 0 {
		last = history[len(history)-1]
	}

	c.JSON(http.StatusOK, gin.H{
		"running":         s.orch.IsRunning(),
		"breaker_tripped": s.orch.BreakerTripped(),
		"cycle_count":     len(history),
		"last_cycle":      last,
	})
}

// handleStart begins the continuous Observe→Reason→Act→Reflect loop in the
// background. It is a no-op (200, running=true already) if the loop is
// already active, since Orchestrator.Run may only be entered once per
// process lifetime.
func (s *Server) handleStart(c *gin.Context) {
	if s.orch.IsRunning() {
		c.JSON(http.StatusOK, gin.H{"running": true, "message": "already running"})
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.runCancel = cancel
	go s.orch.Run(ctx)

	s.logOrchestratorAction(c, audit.EventTypeOrchestratorStart, "", true, "")
	c.JSON(http.StatusAccepted, gin.H{"running": true})
}

// handleStop requests the continuous loop to exit after its current cycle.
func (s *Server) handleStop(c *gin.Context) {
	s.orch.Stop()
	if s.runCancel != nil {
		s.runCancel()
		s.runCancel = nil
	}

	s.logOrchestratorAction(c, audit.EventTypeOrchestratorStop, "", true, "")
	c.JSON(http.StatusOK, gin.H{"running": false})
}

// handleRunOneCycle triggers exactly one cycle synchronously. It is rejected
// while the continuous loop is active, per spec.md's RunOneCycle semantics.
func (s *Server) handleRunOneCycle(c *gin.Context) {
	if s.orch.IsRunning() {
		c.JSON(http.StatusConflict, gin.H{"error": "continuous loop is running; stop it before triggering a manual cycle"})
		return
	}

	rec := s.orch.RunOneCycle(c.Request.Context())
	s.logOrchestratorAction(c, audit.EventTypeCycleRunManual, "", rec.Err == "", rec.Err)
	c.JSON(http.StatusOK, rec)
}

// handleGetPoolMetrics returns the pool-wide snapshot (NAV, cash ratio, ROI,
// asset allocation).
func (s *Server) handleGetPoolMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, s.ledger.PoolMetrics())
}

// handleListParticipants returns per-participant metrics for every participant.
func (s *Server) handleListParticipants(c *gin.Context) {
	metrics, err := s.ledger.ParticipantMetrics("")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"participants": metrics})
}

type addParticipantRequest struct {
	ID         string  `json:"id" binding:"required"`
	Investment float64 `json:"investment" binding:"required"`
}

// handleAddParticipant admits a new participant with an initial investment.
func (s *Server) handleAddParticipant(c *gin.Context) {
	var req addParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	v := validation.NewParticipantValidator()
	v.ValidateParticipantID(req.ID)
	v.ValidateInvestment(req.Investment)
	if v.HasErrors() {
		c.JSON(http.StatusBadRequest, gin.H{"error": v.Errors().Error()})
		return
	}

	investment := decimal.NewFromFloat(req.Investment)
	err := s.ledger.AddParticipant(req.ID, investment)

	success := err == nil
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	s.logPoolAction(c, audit.EventTypeParticipantAdded, req.ID, map[string]interface{}{
		"participant_id": req.ID,
		"investment":     req.Investment,
	}, success, errMsg)

	if err != nil {
		status := http.StatusInternalServerError
		if err == pool.ErrDuplicateParticipant || err == pool.ErrInvalidAmount {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": req.ID})
}

type withdrawalRequest struct {
	Amount float64 `json:"amount" binding:"required"`
}

// handleRequestWithdrawal enqueues a pending withdrawal for a participant.
// It does not move cash; ProcessWithdrawals settles it.
func (s *Server) handleRequestWithdrawal(c *gin.Context) {
	participantID := c.Param("id")

	var req withdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	v := validation.NewParticipantValidator()
	v.ValidateParticipantID(participantID)
	v.ValidateWithdrawalAmount(req.Amount)
	if v.HasErrors() {
		c.JSON(http.StatusBadRequest, gin.H{"error": v.Errors().Error()})
		return
	}

	amount := decimal.NewFromFloat(req.Amount)
	err := s.ledger.RequestWithdrawal(participantID, amount)

	success := err == nil
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	s.logPoolAction(c, audit.EventTypeWithdrawalRequested, participantID, map[string]interface{}{
		"participant_id": participantID,
		"amount":         req.Amount,
	}, success, errMsg)

	if err != nil {
		status := http.StatusInternalServerError
		switch err {
		case pool.ErrUnknownParticipant, pool.ErrInvalidAmount, pool.ErrOverdrawn:
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"participant_id": participantID, "status": "pending"})
}

// handleProcessWithdrawals settles every pending withdrawal the current cash
// reserve can cover.
func (s *Server) handleProcessWithdrawals(c *gin.Context) {
	results := s.ledger.ProcessWithdrawals()

	s.logPoolAction(c, audit.EventTypeWithdrawalsProcessed, "", map[string]interface{}{
		"count": len(results),
	}, true, "")

	c.JSON(http.StatusOK, gin.H{"results": results})
}

// handleGetConfig returns the running configuration with secrets redacted.
func (s *Server) handleGetConfig(c *gin.Context) {
	if s.cfg == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "configuration unavailable"})
		return
	}
	redacted := config.RedactConfig(s.cfg)

	if s.audit != nil {
		s.audit.LogSecurityEvent(c.Request.Context(), audit.EventTypeConfigViewed, "", c.ClientIP(), "config", "Configuration viewed", nil)
	}

	c.JSON(http.StatusOK, redacted)
}

func (s *Server) logOrchestratorAction(c *gin.Context, eventType audit.EventType, resource string, success bool, errMsg string) {
	if s.audit == nil {
		return
	}
	s.audit.LogOrchestratorAction(c.Request.Context(), eventType, "", c.ClientIP(), resource, success, errMsg)
}

func (s *Server) logPoolAction(c *gin.Context, eventType audit.EventType, resource string, metadata map[string]interface{}, success bool, errMsg string) {
	if s.audit == nil {
		return
	}
	s.audit.LogPoolAction(c.Request.Context(), eventType, "", c.ClientIP(), resource, metadata, success, errMsg)
}
