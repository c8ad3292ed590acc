package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Prasoon2050/Indian-Observer/app/database"
	"github.com/Prasoon2050/Indian-Observer/app/ingestion"
)

const defaultListLimit = 50

func NewHandler(articleRepo database.ArticleRepository, statusRepo database.StatusRepository,
	generator GeneratorInterface, scheduler ingestion.TaskSchedulerInterface, version string) *Handler {
	return &Handler{
		articleRepo: articleRepo,
		statusRepo:  statusRepo,
		generator:   generator,
		scheduler:   scheduler,
		version:     version,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"status":    "ok",
		"version":   h.version,
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	count, err := h.articleRepo.GetCount()
	if err != nil {
		slog.Error("Database error", "operation", "get_count", "error", err)
		health["status"] = "degraded"
		c.JSON(http.StatusServiceUnavailable, health)
		return
	}
	health["articles"] = count

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetNews(c *gin.Context) {
	category := c.Query("category")
	limit := parseLimit(c.Query("limit"))

	articles, err := h.articleRepo.GetPublished(category, limit)
	if err != nil {
		slog.Error("Database error", "operation", "get_published", "category", category, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load articles"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"articles": toArticleResponses(articles),
		"count":    len(articles),
	})
}

func (h *Handler) GetNewsByID(c *gin.Context) {
	article, err := h.articleRepo.GetByID(c.Param("id"))
	if err != nil {
		slog.Error("Database error", "operation", "get_by_id", "id", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load article"})
		return
	}
	if article == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
		return
	}

	c.JSON(http.StatusOK, toArticleResponse(*article))
}

func (h *Handler) GetTrending(c *gin.Context) {
	limit := parseLimit(c.Query("limit"))

	articles, err := h.articleRepo.GetTrending(limit)
	if err != nil {
		slog.Error("Database error", "operation", "get_trending", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load trending articles"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"articles": toArticleResponses(articles),
		"count":    len(articles),
	})
}

func (h *Handler) GetTrendingStatus(c *gin.Context) {
	status, err := h.statusRepo.Get(ingestion.RunKey)
	if err != nil {
		slog.Error("Database error", "operation", "get_status", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load run status"})
		return
	}

	if status == nil {
		c.JSON(http.StatusOK, RunStatusResponse{
			Key:           ingestion.RunKey,
			LastRunStatus: database.RunStatusIdle,
			Issues:        []string{},
		})
		return
	}

	c.JSON(http.StatusOK, toRunStatusResponse(status))
}

// RefreshTrending enqueues an ingestion run and acknowledges immediately.
func (h *Handler) RefreshTrending(c *gin.Context) {
	if err := h.scheduler.EnqueueRun(); err != nil {
		slog.Error("Failed to enqueue ingestion run", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Scheduler is unavailable or busy"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message": "Ingestion run enqueued",
		"status":  "/trending/status",
	})
}

func (h *Handler) GenerateNews(c *gin.Context) {
	var req GenerateNewsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "topic is required"})
		return
	}

	generateReq := ingestion.GenerateRequest{
		Topic:       req.Topic,
		AutoPublish: req.AutoPublish,
		Actor:       c.GetHeader("X-Actor"),
	}

	if req.Async {
		if err := h.scheduler.EnqueueGeneration(generateReq); err != nil {
			slog.Error("Failed to enqueue topic generation", "topic", req.Topic, "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Scheduler is unavailable or busy"})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{
			"message": "Generation enqueued",
			"topic":   req.Topic,
		})
		return
	}

	article, err := h.generator.GenerateFromTopic(c.Request.Context(), generateReq)
	if err != nil {
		slog.Error("Manual generation failed", "topic", req.Topic, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, toArticleResponse(*article))
}

func (h *Handler) PublishNews(c *gin.Context) {
	article, err := h.articleRepo.Publish(c.Param("id"))
	if err != nil {
		slog.Error("Database error", "operation", "publish", "id", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to publish article"})
		return
	}
	if article == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
		return
	}

	c.JSON(http.StatusOK, toArticleResponse(*article))
}

func (h *Handler) DeleteNews(c *gin.Context) {
	article, err := h.articleRepo.GetByID(c.Param("id"))
	if err != nil {
		slog.Error("Database error", "operation", "get_by_id", "id", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load article"})
		return
	}
	if article == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
		return
	}

	if err := h.articleRepo.Delete(article.ID); err != nil {
		slog.Error("Database error", "operation", "delete", "id", article.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete article"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Article deleted", "id": article.ID})
}

func (h *Handler) GetDrafts(c *gin.Context) {
	limit := parseLimit(c.Query("limit"))

	articles, err := h.articleRepo.GetDrafts(limit)
	if err != nil {
		slog.Error("Database error", "operation", "get_drafts", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load drafts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"articles": toArticleResponses(articles),
		"count":    len(articles),
	})
}

func parseLimit(raw string) int {
	if raw == "" {
		return defaultListLimit
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 || limit > 200 {
		return defaultListLimit
	}
	return limit
}
