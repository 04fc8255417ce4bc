package moderation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"eden/internal/apperr"
	"eden/internal/models"
	"eden/internal/notify"
)

type ApplicationStore interface {
	Create(ctx context.Context, a *models.Application) error
	Get(ctx context.Context, id uint) (*models.Application, error)
	ListByRequest(ctx context.Context, requestID uint) ([]models.Application, error)
	UpdateStatus(ctx context.Context, id uint, from, to models.ApplicationStatus) (bool, error)
}

// PostingReader is the read side of PostingStore.
type PostingReader interface {
	Get(ctx context.Context, id uint) (*models.Posting, error)
}

// Submission is an application to a job listing with an already stored resume.
type Submission struct {
	RequestID      uint   `json:"request_id" validate:"required"`
	ApplicantName  string `json:"applicant_name" validate:"required,max=200"`
	ApplicantEmail string `json:"applicant_email" validate:"required,email"`
	ResumePath     string `json:"resume_path" validate:"required"`
}

// Applications moderates job applications. The listing's owner decides, admins may override.
type Applications struct {
	apps     ApplicationStore
	postings PostingReader
	notifier Notifier
	log      *slog.Logger
}

func NewApplications(apps ApplicationStore, postings PostingReader, notifier Notifier, logger *slog.Logger) *Applications {
	return &Applications{apps: apps, postings: postings, notifier: notifier, log: logger}
}

// Submit records an application to an approved job listing.
func (s *Applications) Submit(ctx context.Context, sub Submission) (uint, error) {
	const op = "applications.Submit"
	sub.ApplicantName = strings.TrimSpace(sub.ApplicantName)
	sub.ApplicantEmail = strings.TrimSpace(sub.ApplicantEmail)
	if err := validateStruct(op, &sub); err != nil {
		return 0, err
	}
	if _, err := s.openListing(ctx, op, sub.RequestID); err != nil {
		return 0, err
	}

	a := &models.Application{
		RequestID:      sub.RequestID,
		ApplicantName:  sub.ApplicantName,
		ApplicantEmail: sub.ApplicantEmail,
		ResumePath:     sub.ResumePath,
		Status:         models.ApplicationPending,
	}
	if err := s.apps.Create(ctx, a); err != nil {
		return 0, err
	}
	s.log.Info("application submitted", "application_id", a.ID, "request_id", a.RequestID)
	return a.ID, nil
}

// ListForRequest returns the applications of a job listing to its owner or an admin.
func (s *Applications) ListForRequest(ctx context.Context, actor models.Actor, requestID uint) ([]models.Application, error) {
	const op = "applications.List"
	listing, err := s.postings.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if listing.Deleted() || listing.Kind != models.KindJobListing {
		return nil, apperr.NotFound(op, "job listing %d not found", requestID)
	}
	if listing.OwnerID != actor.ID && !actor.IsAdmin {
		return nil, apperr.Authorization(op, "not your job listing")
	}
	return s.apps.ListByRequest(ctx, requestID)
}

func (s *Applications) Accept(ctx context.Context, actor models.Actor, id uint) (notify.Delivery, error) {
	return s.resolve(ctx, "applications.Accept", actor, id, models.ApplicationAccepted)
}

func (s *Applications) Reject(ctx context.Context, actor models.Actor, id uint) (notify.Delivery, error) {
	return s.resolve(ctx, "applications.Reject", actor, id, models.ApplicationRejected)
}

func (s *Applications) resolve(ctx context.Context, op string, actor models.Actor, id uint, to models.ApplicationStatus) (notify.Delivery, error) {
	a, err := s.apps.Get(ctx, id)
	if err != nil {
		return notify.Delivery{}, err
	}
	listing, err := s.postings.Get(ctx, a.RequestID)
	if err != nil {
		return notify.Delivery{}, err
	}
	if listing.Deleted() {
		return notify.Delivery{}, apperr.NotFound(op, "job listing %d not found", a.RequestID)
	}
	if listing.OwnerID != actor.ID && !actor.IsAdmin {
		return notify.Delivery{}, apperr.Authorization(op, "not your job listing")
	}
	if a.Status != models.ApplicationPending {
		return notify.Delivery{}, apperr.NotFound(op, "no pending application %d", id)
	}
	ok, err := s.apps.UpdateStatus(ctx, id, models.ApplicationPending, to)
	if err != nil {
		return notify.Delivery{}, err
	}
	if !ok {
		return notify.Delivery{}, apperr.Conflict(op, "application %d was answered concurrently", id)
	}
	s.log.Info("application answered", "application_id", id, "status", to, "actor_id", actor.ID)

	verdict := "accepted"
	if to == models.ApplicationRejected {
		verdict = "not selected"
	}
	return s.notifier.Dispatch(ctx, notify.Message{
		To:      a.ApplicantEmail,
		Subject: fmt.Sprintf("Your application for %q", listing.Title),
		Text: fmt.Sprintf("Hello %s,\n\nYour application for %q has been %s.\n\nThank you for your interest in EDEN.\n",
			a.ApplicantName, listing.Title, verdict),
	}), nil
}

// openListing loads a job listing that accepts applications.
func (s *Applications) openListing(ctx context.Context, op string, id uint) (*models.Posting, error) {
	listing, err := s.postings.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if listing.Kind != models.KindJobListing || listing.Deleted() || listing.Status != models.StatusApproved {
		return nil, apperr.NotFound(op, "job listing %d is not open for applications", id)
	}
	return listing, nil
}
