package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sadopc/pomodoro/internal/store"
	"github.com/sadopc/pomodoro/internal/tasks"
)

type createTaskRequest struct {
	Title              string         `json:"title"`
	Description        string         `json:"description"`
	Priority           store.Priority `json:"priority"`
	Category           string         `json:"category"`
	EstimatedPomodoros int            `json:"estimatedPomodoros"`
	DueDate            string         `json:"dueDate"`
	Tags               []string       `json:"tags"`
}

type updateTaskRequest struct {
	Title              *string         `json:"title"`
	Description        *string         `json:"description"`
	Priority           *store.Priority `json:"priority"`
	Category           *string         `json:"category"`
	EstimatedPomodoros *int            `json:"estimatedPomodoros"`
	CompletedPomodoros *int            `json:"completedPomodoros"`
	DueDate            *string         `json:"dueDate"`
	Tags               *[]string       `json:"tags"`
}

func (s *Server) listTasks(c *gin.Context) {
	opts := tasks.DefaultListOptions

	filter, err := tasks.ParseFilter(c.Query("filter"))
	if err != nil {
		writeError(c, badRequest("invalid_filter", err.Error()))
		return
	}
	opts.Filter = filter

	if raw := c.Query("sort"); raw != "" {
		key, err := tasks.ParseSort(raw)
		if err != nil {
			writeError(c, badRequest("invalid_sort", err.Error()))
			return
		}
		opts.Sort = key
		opts.Desc = false
	}
	if raw := c.Query("desc"); raw != "" {
		desc, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(c, badRequest("invalid_desc", "desc must be a boolean"))
			return
		}
		opts.Desc = desc
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": s.app.Tasks.List(opts),
		"stats": s.app.Tasks.Stats(),
	})
}

func (s *Server) createTask(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, badRequest("invalid_json", "invalid request body"))
		return
	}
	task, err := s.app.Tasks.Create(tasks.Input{
		Title:              req.Title,
		Description:        req.Description,
		Priority:           req.Priority,
		Category:           req.Category,
		EstimatedPomodoros: req.EstimatedPomodoros,
		DueDate:            req.DueDate,
		Tags:               req.Tags,
	})
	if err != nil {
		writeError(c, taskError(err))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"task": task})
}

func (s *Server) getTask(c *gin.Context) {
	task, err := s.app.Tasks.Get(c.Param("id"))
	if err != nil {
		writeError(c, taskError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

func (s *Server) updateTask(c *gin.Context) {
	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, badRequest("invalid_json", "invalid request body"))
		return
	}
	task, err := s.app.Tasks.Update(c.Param("id"), tasks.Patch{
		Title:              req.Title,
		Description:        req.Description,
		Priority:           req.Priority,
		Category:           req.Category,
		EstimatedPomodoros: req.EstimatedPomodoros,
		CompletedPomodoros: req.CompletedPomodoros,
		DueDate:            req.DueDate,
		Tags:               req.Tags,
	})
	if err != nil {
		writeError(c, taskError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

func (s *Server) deleteTask(c *gin.Context) {
	if err := s.app.Tasks.Delete(c.Param("id")); err != nil {
		writeError(c, taskError(err))
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) toggleTask(c *gin.Context) {
	task, err := s.app.Tasks.ToggleCompletion(c.Param("id"))
	if err != nil {
		writeError(c, taskError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

func (s *Server) activateTask(c *gin.Context) {
	task, err := s.app.Tasks.SetActive(c.Param("id"))
	if err != nil {
		writeError(c, taskError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task, "state": s.app.Timer.State()})
}
