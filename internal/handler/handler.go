package handler

import (
	"context"
	"errors"
	"net/http"

	"chartq/backend/helper"
	"chartq/backend/internal/model"
	"chartq/backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	defaultSchema       = "public"
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// ChartQuerier produces a chart spec and description for a request.
type ChartQuerier interface {
	Query(ctx context.Context, req model.ChartQueryRequest) (model.ChartQueryResponse, error)
}

// Handler serves the HTTP API. db is nil when no database is configured;
// the dataset and history endpoints then answer 503.
type Handler struct {
	charts ChartQuerier
	db     service.DBClient
}

func New(charts ChartQuerier, db service.DBClient) *Handler {
	return &Handler{charts: charts, db: db}
}

func abortDetail(c *gin.Context, status int, detail string) {
	c.AbortWithStatusJSON(status, model.ErrorResponse{Detail: detail})
}

// schemaParam treats an absent or blank ?schema= as the default schema.
func schemaParam(c *gin.Context) string {
	if schema := c.Query("schema"); schema != "" {
		return schema
	}
	return defaultSchema
}

func (h *Handler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "pong",
	})
}

func (h *Handler) ListTablesHandler(c *gin.Context) {
	if h.db == nil {
		abortDetail(c, http.StatusServiceUnavailable, "No database configured")
		return
	}

	schema := schemaParam(c)

	tables, err := h.db.ListTables(schema)
	if err != nil {
		log.Error().Err(err).Str("schema", schema).Msg("list tables")
		abortDetail(c, http.StatusInternalServerError, "Failed to list tables: "+err.Error())
		return
	}

	if tables == nil {
		tables = []string{}
	}

	c.JSON(http.StatusOK, gin.H{"tables": tables})
}

// ListColumnsHandler describes a table in the columns_info shape accepted
// by /query.
func (h *Handler) ListColumnsHandler(c *gin.Context) {
	if h.db == nil {
		abortDetail(c, http.StatusServiceUnavailable, "No database configured")
		return
	}

	schema := schemaParam(c)
	table := c.Query("table")
	if table == "" {
		abortDetail(c, http.StatusBadRequest, "Missing 'table' query parameter")
		return
	}

	columns, err := h.db.ListColumns(schema, table)
	switch {
	case errors.Is(err, service.ErrInvalidIdentifier):
		abortDetail(c, http.StatusBadRequest, "Invalid schema or table name")
		return
	case errors.Is(err, service.ErrTableNotFound):
		abortDetail(c, http.StatusNotFound, "Table not found: "+schema+"."+table)
		return
	case err != nil:
		log.Error().Err(err).Str("schema", schema).Str("table", table).Msg("list columns")
		abortDetail(c, http.StatusInternalServerError, "Failed to fetch columns: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"columns_info": columns})
}

func (h *Handler) ListQueriesHandler(c *gin.Context) {
	if h.db == nil {
		abortDetail(c, http.StatusServiceUnavailable, "No database configured")
		return
	}

	limit := helper.ParseLimit(c.Query("limit"), defaultHistoryLimit, maxHistoryLimit)

	records, err := h.db.ListQueries(limit)
	if err != nil {
		log.Error().Err(err).Msg("list queries")
		abortDetail(c, http.StatusInternalServerError, "Failed to fetch query history: "+err.Error())
		return
	}

	if records == nil {
		records = []model.QueryRecord{}
	}

	c.JSON(http.StatusOK, gin.H{"queries": records})
}
