package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"eden/internal/auth"
	"eden/internal/models"
	"eden/internal/moderation"
	"eden/internal/upload"
)

// bindFields decodes a posting body, JSON or multipart, into the payload for its
// type. A multipart "image" file is stored and its path set on the payload; the
// returned path must be removed if the posting is not saved.
func (h *handler) bindFields(c *gin.Context, op string, kind models.Kind) (moderation.Fields, string, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		if kind == "" {
			kind = models.Kind(c.PostForm("type"))
		}
		f, err := moderation.NewFields(kind)
		if err != nil {
			return nil, "", err
		}
		if err := c.ShouldBindWith(f, binding.FormMultipart); err != nil {
			return nil, "", badRequest(op, err)
		}
		fh, err := c.FormFile("image")
		if err != nil {
			return f, "", nil
		}
		path, err := h.Uploads.SaveFile(fh, upload.Images)
		if err != nil {
			return nil, "", err
		}
		setImage(f, path)
		return f, path, nil
	}

	raw, err := c.GetRawData()
	if err != nil {
		return nil, "", badRequest(op, err)
	}
	if kind == "" {
		var head struct {
			Type models.Kind `json:"type"`
		}
		if err := json.Unmarshal(raw, &head); err != nil {
			return nil, "", badRequest(op, err)
		}
		kind = head.Type
	}
	f, err := moderation.NewFields(kind)
	if err != nil {
		return nil, "", err
	}
	if err := json.Unmarshal(raw, f); err != nil {
		return nil, "", badRequest(op, err)
	}
	return f, "", nil
}

func setImage(f moderation.Fields, path string) {
	switch v := f.(type) {
	case *moderation.JobListingFields:
		v.ImagePath = path
	case *moderation.StoreItemFields:
		v.ImagePath = path
	case *moderation.ServiceAvailFields:
		v.ImagePath = path
	}
}

func (h *handler) discardUpload(path string) {
	if path == "" {
		return
	}
	if err := h.Uploads.Remove(path); err != nil {
		h.Log.Warn("orphan upload not removed", "path", path, "error", err)
	}
}

func (h *handler) createPosting(c *gin.Context) {
	actor, _ := auth.ActorFrom(c)
	f, image, err := h.bindFields(c, "httpapi.createPosting", "")
	if err != nil {
		h.writeError(c, err)
		return
	}
	id, err := h.Postings.Create(c.Request.Context(), actor, f)
	if err != nil {
		h.discardUpload(image)
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Request submitted", "id": id, "status": models.StatusPending})
}

func (h *handler) updatePosting(c *gin.Context) {
	ctx := c.Request.Context()
	actor, _ := auth.ActorFrom(c)
	id, err := idParam(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	current, err := h.Postings.Get(ctx, actor, id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	f, image, err := h.bindFields(c, "httpapi.updatePosting", current.Kind)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if err := h.Postings.Update(ctx, actor, id, f); err != nil {
		h.discardUpload(image)
		h.writeError(c, err)
		return
	}
	if image != "" && current.ImagePath != "" {
		h.discardUpload(current.ImagePath)
	}
	p, err := h.Postings.Get(ctx, actor, id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPostingDTO(p))
}

func (h *handler) getPosting(c *gin.Context) {
	actor, _ := auth.ActorFrom(c)
	id, err := idParam(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	p, err := h.Postings.Get(c.Request.Context(), actor, id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPostingDTO(p))
}

func (h *handler) deletePosting(c *gin.Context) {
	actor, _ := auth.ActorFrom(c)
	id, err := idParam(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if err := h.Postings.SoftDelete(c.Request.Context(), actor, id); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Request deleted", "id": id})
}

func (h *handler) listMine(c *gin.Context) {
	actor, _ := auth.ActorFrom(c)
	ps, err := h.Postings.ListMine(c.Request.Context(), actor)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPostingDTOs(ps))
}

func (h *handler) listPending(c *gin.Context) {
	actor, _ := auth.ActorFrom(c)
	ps, err := h.Postings.ListPendingForModeration(c.Request.Context(), actor)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPostingDTOs(ps))
}

// listApproved serves the public listings. With an empty kind the "kind" query
// parameter picks it, defaulting to the store.
func (h *handler) listApproved(kind models.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		k := kind
		if k == "" {
			k = models.Kind(c.DefaultQuery("kind", string(models.KindStore)))
		}
		filter := models.PostingFilter{
			Subcategory: strings.TrimSpace(c.Query("subcategory")),
			Search:      strings.TrimSpace(c.Query("search")),
		}
		ps, err := h.Postings.ListApprovedPublic(c.Request.Context(), k, filter)
		if err != nil {
			h.writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, toPostingDTOs(ps))
	}
}

func (h *handler) approvePosting(c *gin.Context) {
	h.moderate(c, "Request approved", h.Postings.Approve)
}

func (h *handler) rejectPosting(c *gin.Context) {
	h.moderate(c, "Request rejected", h.Postings.Reject)
}

func (h *handler) moderate(c *gin.Context, done string, action moderationAction) {
	actor, _ := auth.ActorFrom(c)
	id, err := idParam(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	d, err := action(c.Request.Context(), actor, id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, withDelivery(gin.H{"message": done, "id": id}, d))
}
