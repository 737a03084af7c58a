package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sadopc/pomodoro/internal/timer"
)

type durationRequest struct {
	Minutes int    `json:"minutes"`
	Type    string `json:"type"`
}

func (s *Server) timerState(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"state": s.app.Timer.State()})
}

func (s *Server) timerStart(c *gin.Context) {
	s.app.Timer.Start()
	s.timerState(c)
}

func (s *Server) timerPause(c *gin.Context) {
	s.app.Timer.Pause()
	s.timerState(c)
}

func (s *Server) timerReset(c *gin.Context) {
	s.app.Timer.Reset()
	s.timerState(c)
}

func (s *Server) timerSkip(c *gin.Context) {
	s.app.Timer.Skip()
	s.timerState(c)
}

func (s *Server) timerDuration(c *gin.Context) {
	var req durationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, badRequest("invalid_json", "invalid request body"))
		return
	}
	seg, ok := timer.ParseSegment(req.Type)
	if !ok {
		writeError(c, badRequest("invalid_segment", "type must be focus, break or long_break"))
		return
	}
	if req.Minutes <= 0 {
		writeError(c, badRequest("invalid_minutes", "minutes must be positive"))
		return
	}
	s.app.Timer.SetDuration(req.Minutes, seg)
	s.timerState(c)
}
