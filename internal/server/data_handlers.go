package server

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sadopc/pomodoro/internal/export"
	"github.com/sadopc/pomodoro/internal/stats"
	"github.com/sadopc/pomodoro/internal/store"
)

// maxImportSize bounds the request body of /api/import.
const maxImportSize = 10 << 20

type achievementView struct {
	store.Achievement
	Title string `json:"title"`
}

func (s *Server) statistics(c *gin.Context) {
	st := s.app.Store.Statistics()
	c.JSON(http.StatusOK, gin.H{
		"statistics": st,
		"trend":      s.app.Stats.Trend(),
		"focusTime":  stats.FormatFocusTime(st.TotalFocusMinutes),
		"today":      st.DailyTotals[store.DateKey(time.Now())],
	})
}

func (s *Server) analytics(c *gin.Context) {
	period, err := stats.ParsePeriod(c.Query("period"))
	if err != nil {
		writeError(c, badRequest("invalid_period", err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"series": s.app.Stats.FocusSeries(period)})
}

func (s *Server) achievements(c *gin.Context) {
	list := s.app.Store.Achievements()
	out := make([]achievementView, 0, len(list))
	for _, a := range list {
		out = append(out, achievementView{Achievement: a, Title: store.AchievementTitles[a.ID]})
	}
	c.JSON(http.StatusOK, gin.H{"achievements": out})
}

func (s *Server) sessions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sessions": s.app.Store.Sessions()})
}

func (s *Server) getSettings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"settings": s.app.Store.Settings()})
}

func (s *Server) updateSettings(c *gin.Context) {
	var patch map[string]any
	if err := c.ShouldBindJSON(&patch); err != nil {
		writeError(c, badRequest("invalid_json", "invalid request body"))
		return
	}
	if !s.app.UpdateSettings(patch) {
		writeError(c, badRequest("invalid_settings", "settings were not applied"))
		return
	}
	s.getSettings(c)
}

// exportBackup returns the full backup document, or the session log when
// format is csv or json.
func (s *Server) exportBackup(c *gin.Context) {
	switch c.DefaultQuery("format", "backup") {
	case "backup":
	case "csv":
		c.Header("Content-Type", "text/csv; charset=utf-8")
		c.Header("Content-Disposition", `attachment; filename="pomodoro-sessions.csv"`)
		if err := export.WriteCSV(c.Writer, s.app.Store.Sessions(), export.TaskIndex(s.app.Store.Tasks())); err != nil {
			s.log.Warn("csv export failed", "err", err)
		}
		return
	case "json":
		c.Header("Content-Type", "application/json; charset=utf-8")
		if err := export.WriteJSON(c.Writer, s.app.Store.Sessions(), export.TaskIndex(s.app.Store.Tasks())); err != nil {
			s.log.Warn("json export failed", "err", err)
		}
		return
	default:
		writeError(c, badRequest("invalid_format", "format must be backup, csv or json"))
		return
	}

	data, err := s.app.Store.ExportAll()
	if err != nil {
		writeError(c, internalError("export failed"))
		return
	}
	now := time.Now()
	s.app.MarkBackup(now)
	c.Header("Content-Disposition", `attachment; filename="`+export.BackupFilename(now)+`"`)
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

func (s *Server) importBackup(c *gin.Context) {
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImportSize+1))
	if err != nil {
		writeError(c, badRequest("invalid_body", "could not read request body"))
		return
	}
	if len(data) > maxImportSize {
		writeError(c, newAPIError(http.StatusRequestEntityTooLarge, "too_large", "backup is too large"))
		return
	}
	if !json.Valid(data) {
		writeError(c, badRequest("invalid_json", "backup is not valid JSON"))
		return
	}
	report, ok := s.app.Import(data)
	if !ok {
		apiErr := badRequest("invalid_backup", "backup could not be imported")
		apiErr.Details = report
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": report})
}
