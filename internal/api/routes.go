package api

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/health", s.handleGetHealth)

		orch := v1.Group("/orchestrator")
		{
			orch.GET("/status", s.handleGetStatus)
			orch.POST("/start", s.handleStart)
			orch.POST("/stop", s.handleStop)
			orch.POST("/run-once", s.handleRunOneCycle)
		}

		poolGroup := v1.Group("/pool")
		{
			poolGroup.GET("/metrics", s.handleGetPoolMetrics)
		}

		participants := v1.Group("/participants")
		{
			participants.GET("", s.handleListParticipants)
			participants.POST("", s.handleAddParticipant)
			participants.POST("/:id/withdrawals", s.handleRequestWithdrawal)
		}

		withdrawals := v1.Group("/withdrawals")
		{
			withdrawals.POST("/process", s.handleProcessWithdrawals)
		}

		v1.GET("/config", s.handleGetConfig)
	}

	// Root endpoint
	s.router.GET("/", s.handleRoot)
}
