package handler

import (
	"net/http"

	"chartq/backend/internal/model"

	"github.com/gin-gonic/gin"
)

// QueryHandler answers POST /query with a Vega-Lite spec and its
// description. Any provider failure is a 500 with a detail message.
func (h *Handler) QueryHandler(c *gin.Context) {
	var req model.ChartQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortDetail(c, http.StatusBadRequest, "Invalid request")
		return
	}

	resp, err := h.charts.Query(c.Request.Context(), req)
	if err != nil {
		abortDetail(c, http.StatusInternalServerError, "Error processing request: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, resp)
}
