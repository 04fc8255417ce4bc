package models

import "time"

// Kind: what a posting offers; fixed at creation
type Kind string

const (
	KindJobListing   Kind = "job_listing"
	KindStore        Kind = "store"
	KindServiceAvail Kind = "service_avail"
)

func (k Kind) Valid() bool {
	switch k {
	case KindJobListing, KindStore, KindServiceAvail:
		return true
	}
	return false
}

// Status: moderation state of a posting
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusDeleted  Status = "deleted"
)

// Subcategories a store posting may be filed under.
var Subcategories = []string{"tools", "decoration", "plants", "flowers", "miscellaneous"}

// Posting: table postings. Kind-specific columns are NULL for other kinds.
type Posting struct {
	Base
	OwnerID     uint   `gorm:"index;not null"`
	Kind        Kind   `gorm:"type:varchar(16);not null;index;check:chk_postings_kind,kind IN ('job_listing','store','service_avail')"`
	Status      Status `gorm:"type:varchar(16);not null;default:'pending';index;check:chk_postings_status,status IN ('pending','approved','rejected','deleted')"`
	Title       string `gorm:"not null"`
	Description string `gorm:"type:text;not null"`

	HourlyRate    *float64 // job_listing
	PriceCentavos *int64   // store
	Subcategory   *string  `gorm:"type:varchar(32);index"` // store
	ParentJobID   *uint    `gorm:"index"`                  // service_avail

	ImagePath string     // e.g. "/uploads/2f1c….png"
	RemovedAt *time.Time // set together with StatusDeleted
}

// Deleted reports whether the posting has been soft-deleted.
func (p *Posting) Deleted() bool {
	return p.Status == StatusDeleted || p.RemovedAt != nil
}

// PostingFilter narrows the public listing of approved postings.
type PostingFilter struct {
	Subcategory string // store postings only
	Search      string // case-insensitive substring of title or description
}
