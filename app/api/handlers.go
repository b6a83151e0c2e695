package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mena-signal/server/app/database"
	"github.com/mena-signal/server/app/tasks"
)

func NewHandler(sourceRepo database.SourceRepository, itemRepo database.ItemRepository,
	analysisRepo database.AnalysisRepository, runRepo database.RunRepository,
	submitter tasks.Submitter, version string, analyzerModel string, queueEnabled bool) *Handler {
	return &Handler{
		sourceRepo:    sourceRepo,
		itemRepo:      itemRepo,
		analysisRepo:  analysisRepo,
		runRepo:       runRepo,
		submitter:     submitter,
		version:       version,
		analyzerModel: analyzerModel,
		queueEnabled:  queueEnabled,
	}
}

func (h *Handler) GetInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":     "MENA Signal",
		"version":     h.version,
		"description": "AI funding and company news aggregator with MENA market-fit analysis",
		"endpoints": gin.H{
			"items":   "/items",
			"item":    "/items/<id>",
			"sources": "/sources",
			"runs":    "/runs",
			"health":  "/health",
			"stats":   "/stats",
		},
		"analyzer": h.analyzerModel,
	})
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if itemCount, err := h.itemRepo.GetItemCount(); err == nil {
		health["items"] = itemCount
	} else {
		health["status"] = "degraded"
	}

	if sourceCount, err := h.sourceRepo.GetSourceCount(); err == nil {
		health["sources"] = sourceCount
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := map[string]interface{}{
		"analyzer":      h.analyzerModel,
		"queue_enabled": h.queueEnabled,
	}

	itemCount, err := h.itemRepo.GetItemCount()
	if err != nil {
		slog.Error("Database error", "operation", "item_count", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	stats["items"] = itemCount

	if sourceCount, err := h.sourceRepo.GetSourceCount(); err == nil {
		stats["sources"] = sourceCount
	}

	if analysisCount, err := h.analysisRepo.GetAnalysisCount(); err == nil {
		stats["analyzed"] = analysisCount
		stats["pending_analysis"] = itemCount - analysisCount
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) ListItems(c *gin.Context) {
	filter := database.ItemFilter{
		Type:       database.ItemType(c.Query("type")),
		Query:      c.Query("q"),
		DateRange:  c.Query("date_range"),
		ShowHidden: c.Query("show_hidden") == "true",
		Page:       1,
		PageSize:   20,
	}

	switch filter.Type {
	case "", database.ItemTypeFunding, database.ItemTypeCompany:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item type"})
		return
	}

	switch filter.DateRange {
	case "", "24h", "7d", "30d":
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date range"})
		return
	}

	if raw := c.Query("min_score"); raw != "" {
		minScore, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid min_score parameter"})
			return
		}
		filter.MinScore = &minScore
	}

	if raw := c.Query("page"); raw != "" {
		if page, err := strconv.Atoi(raw); err == nil && page > 0 {
			filter.Page = page
		}
	}

	if raw := c.Query("page_size"); raw != "" {
		if size, err := strconv.Atoi(raw); err == nil && size > 0 && size <= 100 {
			filter.PageSize = size
		}
	}

	items, total, err := h.itemRepo.ListItems(filter)
	if err != nil {
		slog.Error("Database error", "operation", "list_items", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	payload := make([]map[string]interface{}, 0, len(items))
	for i := range items {
		payload = append(payload, h.itemPayload(&items[i]))
	}

	pages := (total + filter.PageSize - 1) / filter.PageSize

	c.JSON(http.StatusOK, gin.H{
		"items":     payload,
		"total":     total,
		"page":      filter.Page,
		"page_size": filter.PageSize,
		"pages":     pages,
	})
}

func (h *Handler) GetItem(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item id"})
		return
	}

	item, err := h.itemRepo.GetItem(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_item", "item_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if item == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
		return
	}

	c.JSON(http.StatusOK, h.itemPayload(item))
}

func (h *Handler) itemPayload(item *database.Item) map[string]interface{} {
	payload := map[string]interface{}{
		"id":           item.ID,
		"type":         item.Type,
		"title":        item.Title,
		"company_name": item.CompanyName,
		"url":          item.URL,
		"summary":      item.Summary,
		"hidden":       item.Hidden,
		"created_at":   item.CreatedAt.Format(time.RFC3339),
	}

	if item.SourceID != 0 {
		payload["source_id"] = item.SourceID
	}

	if item.PublishedAt != nil {
		payload["published_at"] = item.PublishedAt.Format(time.RFC3339)
	}

	switch item.Type {
	case database.ItemTypeFunding:
		if detail, err := h.itemRepo.GetFundingDetail(item.ID); err == nil && detail != nil {
			payload["funding"] = gin.H{
				"round_type": detail.RoundType,
				"amount_usd": detail.AmountUSD,
				"investors":  detail.Investors,
			}
		}
	case database.ItemTypeCompany:
		if detail, err := h.itemRepo.GetCompanyDetail(item.ID); err == nil && detail != nil {
			payload["company"] = gin.H{
				"one_liner":  detail.OneLiner,
				"category":   detail.Category,
				"stage_hint": detail.StageHint,
			}
		}
	}

	if analysis, err := h.analysisRepo.GetAnalysis(item.ID); err == nil && analysis != nil {
		payload["analysis"] = gin.H{
			"fit_score": analysis.FitScore,
			"summary":   analysis.Summary,
			"rubric": gin.H{
				"budget_buyer_exists":           analysis.BudgetBuyerExists,
				"localization_arabic_bilingual": analysis.LocalizationArabicBilingual,
				"regulatory_friction":           analysis.RegulatoryFriction,
				"distribution_path":             analysis.DistributionPath,
				"time_to_revenue":               analysis.TimeToRevenue,
			},
			"model":      analysis.ModelName,
			"created_at": analysis.CreatedAt.Format(time.RFC3339),
		}
	}

	return payload
}

func (h *Handler) ListSources(c *gin.Context) {
	sources, err := h.sourceRepo.ListSources()
	if err != nil {
		slog.Error("Database error", "operation", "list_sources", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	payload := make([]map[string]interface{}, 0, len(sources))
	for i := range sources {
		payload = append(payload, sourcePayload(&sources[i]))
	}

	c.JSON(http.StatusOK, gin.H{
		"sources": payload,
		"total":   len(payload),
	})
}

func sourcePayload(source *database.Source) map[string]interface{} {
	return map[string]interface{}{
		"id":         source.ID,
		"name":       source.Name,
		"type":       source.Type,
		"url":        source.URL,
		"category":   source.Category,
		"enabled":    source.Enabled,
		"created_at": source.CreatedAt.Format(time.RFC3339),
	}
}

func (h *Handler) ListRuns(c *gin.Context) {
	var sourceID int64
	if raw := c.Query("source_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid source_id parameter"})
			return
		}
		sourceID = parsed
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	runs, err := h.runRepo.ListRuns(sourceID, limit)
	if err != nil {
		slog.Error("Database error", "operation", "list_runs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	payload := make([]map[string]interface{}, 0, len(runs))
	for _, run := range runs {
		runInfo := map[string]interface{}{
			"id":          run.ID,
			"source_id":   run.SourceID,
			"status":      run.Status,
			"items_added": run.ItemsAdded,
			"started_at":  run.StartedAt.Format(time.RFC3339),
		}
		if run.FinishedAt != nil {
			runInfo["finished_at"] = run.FinishedAt.Format(time.RFC3339)
		}
		if run.Error != "" {
			runInfo["error"] = run.Error
		}
		payload = append(payload, runInfo)
	}

	c.JSON(http.StatusOK, gin.H{
		"runs":  payload,
		"total": len(payload),
	})
}

func (h *Handler) APITriggerIngest(c *gin.Context) {
	if raw := c.Query("source_id"); raw != "" {
		sourceID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid source_id parameter"})
			return
		}

		source, err := h.sourceRepo.GetSource(sourceID)
		if err != nil {
			slog.Error("Database error", "operation", "get_source", "source_id", sourceID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}
		if source == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Source not found"})
			return
		}

		jobID, err := h.submitter.SubmitIngestSource(c.Request.Context(), sourceID)
		if err != nil {
			slog.Error("Failed to submit ingestion", "source_id", sourceID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit ingestion"})
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"job_id":    jobID,
			"source_id": sourceID,
			"message":   "Ingestion submitted",
		})
		return
	}

	jobID, err := h.submitter.SubmitIngestAll(c.Request.Context())
	if err != nil {
		slog.Error("Failed to submit ingestion", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit ingestion"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"job_id":  jobID,
		"message": "Ingestion submitted for all enabled sources",
	})
}

func (h *Handler) APIReanalyze(c *gin.Context) {
	itemIDs, err := h.itemRepo.ListItemIDsWithoutAnalysis()
	if err != nil {
		slog.Error("Database error", "operation", "list_unanalyzed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	submitted := 0
	for _, itemID := range itemIDs {
		if err := h.submitter.SubmitAnalysis(c.Request.Context(), itemID); err != nil {
			slog.Warn("Failed to submit analysis", "item_id", itemID, "error", err)
			continue
		}
		submitted++
	}

	c.JSON(http.StatusAccepted, gin.H{
		"submitted": submitted,
		"total":     len(itemIDs),
		"message":   "Analysis submitted for items without one",
	})
}

func (h *Handler) APICreateSource(c *gin.Context) {
	var req createSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	sourceType := database.SourceType(req.Type)
	switch sourceType {
	case "":
		sourceType = database.SourceTypeRSS
	case database.SourceTypeRSS, database.SourceTypeAPI, database.SourceTypeManual:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid source type"})
		return
	}

	existing, err := h.sourceRepo.GetSourceByURL(req.URL)
	if err != nil {
		slog.Error("Database error", "operation", "get_source_by_url", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Source with this URL already exists"})
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	source := database.Source{
		Name:     req.Name,
		Type:     sourceType,
		URL:      req.URL,
		Category: req.Category,
		Enabled:  enabled,
	}

	if err := h.sourceRepo.CreateSource(&source); err != nil {
		slog.Error("Database error", "operation", "create_source", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusCreated, sourcePayload(&source))
}

func (h *Handler) APIUpdateSource(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid source id"})
		return
	}

	var req updateSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	source, err := h.sourceRepo.GetSource(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_source", "source_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if source == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Source not found"})
		return
	}

	if req.Enabled != nil {
		if err := h.sourceRepo.SetSourceEnabled(id, *req.Enabled); err != nil {
			slog.Error("Database error", "operation", "set_source_enabled", "source_id", id, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}
		source.Enabled = *req.Enabled
	}

	if req.Category != nil {
		if err := h.sourceRepo.UpdateSourceCategory(id, *req.Category); err != nil {
			slog.Error("Database error", "operation", "update_source_category", "source_id", id, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}
		source.Category = *req.Category
	}

	c.JSON(http.StatusOK, sourcePayload(source))
}
