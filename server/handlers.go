package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hupe1980/rephrase/coordinator"
	"github.com/hupe1980/rephrase/core"
	"github.com/hupe1980/rephrase/history"
)

const errMessageRequired = "Message is required"

type rephraseRequest struct {
	Message *string `json:"message"`
	UserID  string  `json:"user_id"`
	Context struct {
		ChatHistory     []core.ConversationTurn `json:"chat_history"`
		IncludeJira     *bool                   `json:"include_jira"`
		IncludeCalendar *bool                   `json:"include_calendar"`
	} `json:"context"`
}

type rephraseResponse struct {
	Success bool `json:"success"`
	*core.Suggestion
	Suggestions contextSuggestions `json:"suggestions"`
}

// contextSuggestions repeats the context tier rewrites keyed the way the web
// client reads them.
type contextSuggestions struct {
	Jira     string `json:"jira"`
	Calendar string `json:"calendar"`
}

type analyzeRequest struct {
	Message     *string                 `json:"message"`
	ChatHistory []core.ConversationTurn `json:"chat_history"`
}

type saveMessageRequest struct {
	Sender  string  `json:"sender"`
	Message *string `json:"message"`
}

type userContext struct {
	UserID string               `json:"user_id"`
	Tasks  []core.Task          `json:"tasks"`
	Events []core.CalendarEvent `json:"events"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": ServiceName,
		"version": Version,
	})
}

func (s *Server) rephrase(c *gin.Context) {
	var req rephraseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err.Error())
		return
	}
	if req.Message == nil {
		s.badRequest(c, errMessageRequired)
		return
	}

	sug, err := s.pipeline.Rephrase(c.Request.Context(), coordinator.Request{
		UserID:          userOrDefault(req.UserID),
		Message:         *req.Message,
		History:         req.Context.ChatHistory,
		IncludeTasks:    boolOrTrue(req.Context.IncludeJira),
		IncludeCalendar: boolOrTrue(req.Context.IncludeCalendar),
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, rephraseResponse{
		Success:    true,
		Suggestion: sug,
		Suggestions: contextSuggestions{
			Jira:     sug.Analysis.TaskRewrite,
			Calendar: sug.Analysis.CalendarRewrite,
		},
	})
}

func (s *Server) analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err.Error())
		return
	}
	if req.Message == nil {
		s.badRequest(c, errMessageRequired)
		return
	}

	a, err := s.pipeline.Analyze(c.Request.Context(), *req.Message, req.ChatHistory)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  *req.Message,
		"analysis": a,
	})
}

func (s *Server) userContext(c *gin.Context) {
	userID := userOrDefault(c.Query("user_id"))
	ctx := userContext{
		UserID: userID,
		Tasks:  s.context.TasksForUser(userID),
		Events: s.context.EventsForUser(userID),
	}
	if ctx.Tasks == nil {
		ctx.Tasks = []core.Task{}
	}
	if ctx.Events == nil {
		ctx.Events = []core.CalendarEvent{}
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "context": ctx})
}

func (s *Server) examples(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "examples": Examples})
}

func (s *Server) saveMessage(c *gin.Context) {
	var req saveMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err.Error())
		return
	}
	if req.Message == nil {
		s.badRequest(c, errMessageRequired)
		return
	}

	msg, err := s.history.Append(c.Request.Context(), userOrDefault(req.Sender), *req.Message)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": msg})
}

func (s *Server) listHistory(c *gin.Context) {
	msgs, err := s.history.List(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "messages": msgs})
}

func (s *Server) complete(c *gin.Context) {
	text := c.Query("text")
	if strings.TrimSpace(text) == "" {
		s.badRequest(c, "text is required")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":               true,
		"contextual_suggestion": s.pipeline.Complete(c.Request.Context(), text),
	})
}

func (s *Server) badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"success": false, "error": msg})
}

// fail maps pipeline and history errors onto status codes.
func (s *Server) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, coordinator.ErrEmptyMessage), errors.Is(err, history.ErrEmptyText):
		s.badRequest(c, err.Error())
	case errors.Is(err, coordinator.ErrAllStepsFailed):
		s.loggerFor(c).Warn("rephrase failed", "error", err)
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
			"success":   false,
			"error":     err.Error(),
			"retryable": true,
		})
	default:
		s.loggerFor(c).Error("request failed", "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
	}
}

func userOrDefault(id string) string {
	if id = strings.TrimSpace(id); id == "" {
		return coordinator.DefaultUserID
	}
	return id
}

func boolOrTrue(b *bool) bool {
	return b == nil || *b
}
