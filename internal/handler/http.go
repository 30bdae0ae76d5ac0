package handler

import (
	"context"
	"net/http"
	"strings"

	"khrafet/internal/session"
	"khrafet/internal/storygen"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StoryService - операции над сессиями, которые нужны HTTP-слою.
type StoryService interface {
	Start(ctx context.Context, params session.StartParams) (*session.Session, error)
	Choose(ctx context.Context, id uuid.UUID, choiceID string) (*session.Session, error)
	Retry(ctx context.Context, id uuid.UUID) (*session.Session, error)
	Get(ctx context.Context, id uuid.UUID) (*session.Session, error)
	Transcript(ctx context.Context, id uuid.UUID) (*session.Transcript, error)
}

// ChapterGenerator - генерация главы без сессии.
type ChapterGenerator interface {
	GenerateChapter(ctx context.Context, req storygen.GenerationRequest, priorCount int) (storygen.Chapter, error)
}

// Handler обслуживает HTTP API историй.
type Handler struct {
	sessions StoryService
	chapters ChapterGenerator
	catalog  session.Catalog
	logger   *zap.Logger
}

// NewHandler создает Handler.
func NewHandler(sessions StoryService, chapters ChapterGenerator, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		sessions: sessions,
		chapters: chapters,
		catalog:  session.DefaultCatalog(),
		logger:   logger.Named("http"),
	}
}

// RegisterRoutes регистрирует маршруты /api/v1. generation применяется к маршрутам, вызывающим модель.
func (h *Handler) RegisterRoutes(router gin.IRouter, generation ...gin.HandlerFunc) {
	api := router.Group("/api/v1")
	api.GET("/catalog", h.getCatalog)
	api.GET("/sessions/:id", h.getSession)
	api.GET("/sessions/:id/transcript", h.getTranscript)

	gen := api.Group("", generation...)
	gen.POST("/chapters", h.generateChapter)
	gen.POST("/sessions", h.startSession)
	gen.POST("/sessions/:id/choices", h.choose)
	gen.POST("/sessions/:id/retry", h.retry)
}

// --- Requests / responses ---

type generateChapterRequest struct {
	Genre         string `json:"genre" binding:"required"`
	Tone          string `json:"tone" binding:"required"`
	StorySoFar    string `json:"story_so_far"`
	LastChoice    string `json:"last_choice"`
	PriorChapters int    `json:"prior_chapters" binding:"min=0"`
}

type startSessionRequest struct {
	Genre  string `json:"genre" binding:"required"`
	Tone   string `json:"tone" binding:"required"`
	Length string `json:"length" binding:"required"`
}

type chooseRequest struct {
	ChoiceID string `json:"choice_id" binding:"required"`
}

type sessionResponse struct {
	*session.Session
	CurrentChapter    *storygen.Chapter `json:"current_chapter,omitempty"`
	IsFinalChapter    bool              `json:"is_final_chapter"`
	ChaptersRemaining int               `json:"chapters_remaining"`
}

func newSessionResponse(s *session.Session) sessionResponse {
	resp := sessionResponse{
		Session:           s,
		IsFinalChapter:    s.IsFinalChapter(),
		ChaptersRemaining: max(s.Budget-len(s.Chapters), 0),
	}
	if current, ok := s.CurrentChapter(); ok {
		resp.CurrentChapter = &current
	}
	return resp
}

// --- Handlers ---

func (h *Handler) getCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog)
}

func (h *Handler) generateChapter(c *gin.Context) {
	var req generateChapterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	genre, tone := strings.TrimSpace(req.Genre), strings.TrimSpace(req.Tone)
	if genre == "" || tone == "" {
		badRequest(c, "genre and tone are required")
		return
	}

	chapter, err := h.chapters.GenerateChapter(c.Request.Context(), storygen.GenerationRequest{
		Genre:      genre,
		Tone:       tone,
		StorySoFar: req.StorySoFar,
		LastChoice: req.LastChoice,
	}, req.PriorChapters)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, chapter)
}

func (h *Handler) startSession(c *gin.Context) {
	var req startSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	sess, err := h.sessions.Start(c.Request.Context(), session.StartParams{
		Genre:  req.Genre,
		Tone:   req.Tone,
		Length: req.Length,
	})
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, newSessionResponse(sess))
}

func (h *Handler) getSession(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	sess, err := h.sessions.Get(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(sess))
}

func (h *Handler) choose(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var req chooseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return
	}
	sess, err := h.sessions.Choose(c.Request.Context(), id, req.ChoiceID)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(sess))
}

func (h *Handler) retry(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	sess, err := h.sessions.Retry(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, newSessionResponse(sess))
}

func (h *Handler) getTranscript(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	transcript, err := h.sessions.Transcript(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, transcript)
}

func sessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid session id")
		return uuid.Nil, false
	}
	return id, true
}
