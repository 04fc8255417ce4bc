package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"eden/internal/apperr"
	"eden/internal/auth"
	"eden/internal/models"
	"eden/internal/moderation"
	"eden/internal/notify"
	"eden/internal/upload"
)

type moderationAction func(ctx context.Context, actor models.Actor, id uint) (notify.Delivery, error)

type applicationDTO struct {
	ID             uint                     `json:"id"`
	RequestID      uint                     `json:"request_id"`
	ApplicantName  string                   `json:"applicant_name"`
	ApplicantEmail string                   `json:"applicant_email"`
	ResumePath     string                   `json:"resume_path"`
	Status         models.ApplicationStatus `json:"status"`
	SubmittedAt    time.Time                `json:"submitted_at"`
}

type applicationForm struct {
	RequestID      uint   `form:"request_id"`
	ApplicantName  string `form:"applicant_name"`
	ApplicantEmail string `form:"applicant_email"`
}

func (h *handler) submitApplication(c *gin.Context) {
	const op = "httpapi.submitApplication"
	var in applicationForm
	if err := c.ShouldBind(&in); err != nil {
		h.writeError(c, badRequest(op, err))
		return
	}
	fh, err := c.FormFile("resume")
	if err != nil {
		h.writeError(c, apperr.Validation(op, "resume is required"))
		return
	}
	path, err := h.Uploads.SaveFile(fh, upload.Resume)
	if err != nil {
		h.writeError(c, err)
		return
	}

	id, err := h.Applications.Submit(c.Request.Context(), moderation.Submission{
		RequestID:      in.RequestID,
		ApplicantName:  in.ApplicantName,
		ApplicantEmail: in.ApplicantEmail,
		ResumePath:     path,
	})
	if err != nil {
		h.discardUpload(path)
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Application submitted successfully.", "id": id})
}

func (h *handler) listApplications(c *gin.Context) {
	actor, _ := auth.ActorFrom(c)
	id, err := idParam(c)
	if err != nil {
		h.writeError(c, err)
		return
	}
	apps, err := h.Applications.ListForRequest(c.Request.Context(), actor, id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	out := make([]applicationDTO, 0, len(apps))
	for _, a := range apps {
		out = append(out, applicationDTO{
			ID:             a.ID,
			RequestID:      a.RequestID,
			ApplicantName:  a.ApplicantName,
			ApplicantEmail: a.ApplicantEmail,
			ResumePath:     a.ResumePath,
			Status:         a.Status,
			SubmittedAt:    a.SubmittedAt,
		})
	}
	c.JSON(http.StatusOK, out)
}

func (h *handler) acceptApplication(c *gin.Context) {
	h.moderate(c, "Application accepted", h.Applications.Accept)
}

func (h *handler) rejectApplication(c *gin.Context) {
	h.moderate(c, "Application rejected", h.Applications.Reject)
}
