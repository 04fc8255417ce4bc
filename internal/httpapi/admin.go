package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func (h *handler) adminPostings(c *gin.Context) {
	all, _ := strconv.ParseBool(c.Query("include_deleted"))
	rows, err := h.Audit.Postings(c.Request.Context(), all)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *handler) adminPosting(c *gin.Context) {
	id, err := idParam(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	row, err := h.Audit.Posting(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}
