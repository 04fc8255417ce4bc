// Package moderation enforces who may create, edit, moderate and delete postings,
// and which status transitions are legal:
//
//	pending ──approve──▶ approved
//	pending ──reject───▶ rejected
//	pending | approved | rejected ──delete──▶ deleted (terminal)
//
// approve and reject are admin-only; delete is open to the owner and to admins.
package moderation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"eden/internal/apperr"
	"eden/internal/models"
	"eden/internal/notify"
)

// PostingStore is the persistence the engine needs. Status changes are conditional
// so that two moderators racing on one posting cannot both win.
type PostingStore interface {
	Create(ctx context.Context, p *models.Posting) error
	Get(ctx context.Context, id uint) (*models.Posting, error)
	ListByOwner(ctx context.Context, ownerID uint) ([]models.Posting, error)
	ListByStatus(ctx context.Context, status models.Status) ([]models.Posting, error)
	ListApproved(ctx context.Context, kind models.Kind, filter models.PostingFilter) ([]models.Posting, error)
	UpdateStatus(ctx context.Context, id uint, from, to models.Status) (bool, error)
	MarkDeleted(ctx context.Context, id uint, at time.Time) (bool, error)
	UpdatePending(ctx context.Context, p *models.Posting) (bool, error)
}

// UserDirectory resolves owners for notifications.
type UserDirectory interface {
	Get(ctx context.Context, id uint) (*models.User, error)
}

// Notifier dispatches mail without making the caller depend on its success.
type Notifier interface {
	Dispatch(ctx context.Context, msg notify.Message) notify.Delivery
}

type Engine struct {
	postings PostingStore
	users    UserDirectory
	notifier Notifier
	log      *slog.Logger
	now      func() time.Time
}

func NewEngine(postings PostingStore, users UserDirectory, notifier Notifier, logger *slog.Logger) *Engine {
	return &Engine{postings: postings, users: users, notifier: notifier, log: logger, now: time.Now}
}

// Create validates fields for their kind and stores a new pending posting owned by actor.
func (e *Engine) Create(ctx context.Context, actor models.Actor, fields Fields) (uint, error) {
	const op = "moderation.Create"
	if err := validateFields(op, fields); err != nil {
		return 0, err
	}
	if err := e.checkParentJob(ctx, op, actor, fields); err != nil {
		return 0, err
	}

	p := &models.Posting{OwnerID: actor.ID, Kind: fields.Kind(), Status: models.StatusPending}
	fields.apply(p)
	if err := e.postings.Create(ctx, p); err != nil {
		return 0, err
	}
	e.log.Info("posting created", "posting_id", p.ID, "kind", p.Kind, "owner_id", actor.ID)
	return p.ID, nil
}

// checkParentJob makes sure a service availability points at somebody else's approved job listing.
func (e *Engine) checkParentJob(ctx context.Context, op string, actor models.Actor, fields Fields) error {
	sa, ok := fields.(*ServiceAvailFields)
	if !ok {
		return nil
	}
	parent, err := e.postings.Get(ctx, sa.ParentJobID)
	if errors.Is(err, apperr.ErrNotFound) {
		return apperr.Validation(op, "job listing %d does not exist", sa.ParentJobID)
	}
	if err != nil {
		return err
	}
	if parent.OwnerID == actor.ID {
		return apperr.Validation(op, "cannot offer a service on your own job listing")
	}
	if parent.Kind != models.KindJobListing || parent.Deleted() || parent.Status != models.StatusApproved {
		return apperr.Validation(op, "parent_job_id must reference an approved job listing")
	}
	return nil
}

// Update rewrites the fields of a posting. Only the owner may edit, and only while
// the posting is still pending.
func (e *Engine) Update(ctx context.Context, actor models.Actor, id uint, fields Fields) error {
	const op = "moderation.Update"
	p, err := e.live(ctx, op, id)
	if err != nil {
		return err
	}
	if p.OwnerID != actor.ID {
		return apperr.Authorization(op, "not your posting")
	}
	if p.Status != models.StatusPending {
		return apperr.Conflict(op, "only pending postings can be edited")
	}
	if err := validateFields(op, fields); err != nil {
		return err
	}
	if fields.Kind() != p.Kind {
		return apperr.Validation(op, "posting type cannot change from %s to %s", p.Kind, fields.Kind())
	}
	if err := e.checkParentJob(ctx, op, actor, fields); err != nil {
		return err
	}

	fields.apply(p)
	ok, err := e.postings.UpdatePending(ctx, p)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Conflict(op, "posting %d was moderated while being edited", id)
	}
	return nil
}

// Get returns a posting the actor is allowed to see: approved postings to anyone,
// others to their owner and to admins.
func (e *Engine) Get(ctx context.Context, actor models.Actor, id uint) (*models.Posting, error) {
	const op = "moderation.Get"
	p, err := e.live(ctx, op, id)
	if err != nil {
		return nil, err
	}
	if p.Status == models.StatusApproved || actor.IsAdmin || (actor.ID != 0 && p.OwnerID == actor.ID) {
		return p, nil
	}
	return nil, apperr.NotFound(op, "posting %d not found", id)
}

// ListMine returns the actor's postings that are not deleted, newest first.
func (e *Engine) ListMine(ctx context.Context, actor models.Actor) ([]models.Posting, error) {
	return e.postings.ListByOwner(ctx, actor.ID)
}

// ListPendingForModeration returns every pending posting, newest first. Admin only.
func (e *Engine) ListPendingForModeration(ctx context.Context, actor models.Actor) ([]models.Posting, error) {
	if !actor.IsAdmin {
		return nil, apperr.Authorization("moderation.ListPending", "admin access required")
	}
	return e.postings.ListByStatus(ctx, models.StatusPending)
}

// ListApprovedPublic returns approved postings of kind, newest first.
func (e *Engine) ListApprovedPublic(ctx context.Context, kind models.Kind, filter models.PostingFilter) ([]models.Posting, error) {
	const op = "moderation.ListApproved"
	if !kind.Valid() {
		return nil, apperr.Validation(op, "unknown posting type %q", kind)
	}
	if filter.Subcategory != "" {
		if kind != models.KindStore {
			return nil, apperr.Validation(op, "subcategory applies to store postings only")
		}
		if err := validate.Var(filter.Subcategory, "oneof=tools decoration plants flowers miscellaneous"); err != nil {
			return nil, apperr.Validation(op, "unknown subcategory %q", filter.Subcategory)
		}
	}
	return e.postings.ListApproved(ctx, kind, filter)
}

// Approve moves a pending posting to approved and tells the owner.
func (e *Engine) Approve(ctx context.Context, actor models.Actor, id uint) (notify.Delivery, error) {
	return e.resolve(ctx, "moderation.Approve", actor, id, models.StatusApproved)
}

// Reject moves a pending posting to rejected and tells the owner.
func (e *Engine) Reject(ctx context.Context, actor models.Actor, id uint) (notify.Delivery, error) {
	return e.resolve(ctx, "moderation.Reject", actor, id, models.StatusRejected)
}

func (e *Engine) resolve(ctx context.Context, op string, actor models.Actor, id uint, to models.Status) (notify.Delivery, error) {
	if !actor.IsAdmin {
		return notify.Delivery{}, apperr.Authorization(op, "admin access required")
	}
	p, err := e.live(ctx, op, id)
	if err != nil {
		return notify.Delivery{}, err
	}
	if p.Status != models.StatusPending {
		return notify.Delivery{}, apperr.NotFound(op, "no pending posting %d", id)
	}
	ok, err := e.postings.UpdateStatus(ctx, id, models.StatusPending, to)
	if err != nil {
		return notify.Delivery{}, err
	}
	if !ok {
		return notify.Delivery{}, apperr.Conflict(op, "posting %d was moderated concurrently", id)
	}
	e.log.Info("posting moderated", "posting_id", id, "status", to, "admin_id", actor.ID)

	p.Status = to
	return e.notifyOwner(ctx, p), nil
}

// SoftDelete marks a posting deleted. Owners may delete their own postings, admins any.
func (e *Engine) SoftDelete(ctx context.Context, actor models.Actor, id uint) error {
	const op = "moderation.SoftDelete"
	p, err := e.live(ctx, op, id)
	if err != nil {
		return err
	}
	if p.OwnerID != actor.ID && !actor.IsAdmin {
		return apperr.Authorization(op, "not your posting")
	}
	ok, err := e.postings.MarkDeleted(ctx, id, e.now())
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound(op, "posting %d not found", id)
	}
	e.log.Info("posting deleted", "posting_id", id, "actor_id", actor.ID, "by_admin", p.OwnerID != actor.ID)
	return nil
}

// live loads a posting that has not been deleted.
func (e *Engine) live(ctx context.Context, op string, id uint) (*models.Posting, error) {
	p, err := e.postings.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Deleted() {
		return nil, apperr.NotFound(op, "posting %d not found", id)
	}
	return p, nil
}

func (e *Engine) notifyOwner(ctx context.Context, p *models.Posting) notify.Delivery {
	owner, err := e.users.Get(ctx, p.OwnerID)
	if err != nil {
		e.log.Warn("posting owner lookup failed", "posting_id", p.ID, "owner_id", p.OwnerID, "error", err)
		return notify.Delivery{Status: notify.StatusSkipped}
	}
	if owner.Email == nil {
		return notify.Delivery{Status: notify.StatusSkipped}
	}
	text := fmt.Sprintf("Hello %s,\n\nYour posting %q has been %s by an EDEN administrator.\n",
		owner.Username, p.Title, p.Status)
	return e.notifier.Dispatch(ctx, notify.Message{
		To:      *owner.Email,
		Subject: fmt.Sprintf("Your EDEN posting was %s", p.Status),
		Text:    text,
	})
}
