package models

import "time"

type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationAccepted ApplicationStatus = "accepted"
	ApplicationRejected ApplicationStatus = "rejected"
)

// Application: table applications; a resume sent to a job listing
type Application struct {
	ID             uint              `gorm:"primaryKey"`
	RequestID      uint              `gorm:"index;not null"` // postings.id of a job listing
	ApplicantName  string            `gorm:"not null"`
	ApplicantEmail string            `gorm:"not null"`
	ResumePath     string            `gorm:"not null"`
	Status         ApplicationStatus `gorm:"type:varchar(16);not null;default:'pending';check:chk_applications_status,status IN ('pending','accepted','rejected')"`
	SubmittedAt    time.Time         `gorm:"autoCreateTime"`
	UpdatedAt      time.Time
}
