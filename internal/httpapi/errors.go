package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"eden/internal/apperr"
	"eden/internal/notify"
)

func statusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindAuthorization:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindUnsupportedMedia:
		return http.StatusUnsupportedMediaType
	case apperr.KindDependency:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// writeError renders err as {"error", "kind"} with the status of its kind.
func (h *handler) writeError(c *gin.Context, err error) {
	h.writeErrorStatus(c, statusOf(apperr.KindOf(err)), err)
}

// writeCartError is writeError for cart pricing, where an unknown product makes the
// cart itself invalid.
func (h *handler) writeCartError(c *gin.Context, err error) {
	status := statusOf(apperr.KindOf(err))
	if apperr.KindOf(err) == apperr.KindNotFound {
		status = http.StatusUnprocessableEntity
	}
	h.writeErrorStatus(c, status, err)
}

func (h *handler) writeErrorStatus(c *gin.Context, status int, err error) {
	kind := apperr.KindOf(err)
	if kind == "" {
		kind = "internal"
	}
	if status >= http.StatusInternalServerError {
		h.Log.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": apperr.Message(err), "kind": kind})
}

func badRequest(op string, err error) error {
	return apperr.Validation(op, "invalid request: %v", err)
}

// idParam parses the :id path parameter.
func idParam(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.NotFound("httpapi.id", "not found")
	}
	return uint(id), nil
}

// withDelivery adds the outcome of a confirmation email to a success body.
func withDelivery(body gin.H, d notify.Delivery) gin.H {
	body["notification"] = d.Status
	if d.Partial() {
		body["warning"] = "Saved, but the confirmation email may be delayed."
	}
	return body
}
