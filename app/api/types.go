package api

import (
	"github.com/mena-signal/server/app/database"
	"github.com/mena-signal/server/app/tasks"
)

type Handler struct {
	sourceRepo    database.SourceRepository
	itemRepo      database.ItemRepository
	analysisRepo  database.AnalysisRepository
	runRepo       database.RunRepository
	submitter     tasks.Submitter
	version       string
	analyzerModel string
	queueEnabled  bool
}

type createSourceRequest struct {
	Name     string `json:"name" binding:"required"`
	URL      string `json:"url" binding:"required"`
	Type     string `json:"type"`
	Category string `json:"category"`
	Enabled  *bool  `json:"enabled"`
}

type updateSourceRequest struct {
	Enabled  *bool   `json:"enabled"`
	Category *string `json:"category"`
}
