package models

import (
	"time"

	"gorm.io/gorm"
)

// JobType categorizes employment arrangements
type JobType string

const (
	JobFullTime   JobType = "full_time"
	JobPartTime   JobType = "part_time"
	JobContract   JobType = "contract"
	JobInternship JobType = "internship"
	JobRemote     JobType = "remote"
)

// ExperienceLevel categorizes seniority
type ExperienceLevel string

const (
	LevelEntry     ExperienceLevel = "entry"
	LevelMid       ExperienceLevel = "mid"
	LevelSenior    ExperienceLevel = "senior"
	LevelExecutive ExperienceLevel = "executive"
)

// Job is a posted opening that accepts applications while active
type Job struct {
	ID       string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	PosterID string `gorm:"not null;index" json:"poster_id"`
	Poster   User   `gorm:"foreignKey:PosterID" json:"poster,omitempty"`

	Title       string          `gorm:"not null" json:"title"`
	Company     string          `gorm:"not null;index" json:"company"`
	Description string          `gorm:"type:text;not null" json:"description"`
	Location    string          `gorm:"index" json:"location"`
	Type        JobType         `gorm:"type:varchar(20);index" json:"type"`
	Experience  ExperienceLevel `gorm:"type:varchar(20);index" json:"experience"`
	Skills      StringArray     `gorm:"type:text[]" json:"skills"`

	SalaryMin *int `json:"salary_min,omitempty"`
	SalaryMax *int `json:"salary_max,omitempty"`

	IsActive bool       `gorm:"default:true;index" json:"is_active"`
	Deadline *time.Time `json:"deadline,omitempty"`

	ViewCount        int `gorm:"default:0" json:"view_count"`
	ApplicationCount int `gorm:"default:0" json:"application_count"`

	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// ApplicationStatus is the review state of a job application
type ApplicationStatus string

const (
	ApplicationApplied     ApplicationStatus = "applied"
	ApplicationReviewing   ApplicationStatus = "reviewing"
	ApplicationShortlisted ApplicationStatus = "shortlisted"
	ApplicationInterviewed ApplicationStatus = "interviewed"
	ApplicationRejected    ApplicationStatus = "rejected"
	ApplicationHired       ApplicationStatus = "hired"
)

// ValidApplicationStatus reports whether s is a known review state
func ValidApplicationStatus(s ApplicationStatus) bool {
	switch s {
	case ApplicationApplied, ApplicationReviewing, ApplicationShortlisted,
		ApplicationInterviewed, ApplicationRejected, ApplicationHired:
		return true
	}
	return false
}

// JobApplication is one user's application to one job, at most once
type JobApplication struct {
	ID          string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	JobID       string `gorm:"not null;index:idx_job_applications_pair,unique" json:"job_id"`
	Job         Job    `gorm:"foreignKey:JobID" json:"job,omitempty"`
	ApplicantID string `gorm:"not null;index:idx_job_applications_pair,unique;index" json:"applicant_id"`
	Applicant   User   `gorm:"foreignKey:ApplicantID" json:"applicant,omitempty"`

	CoverLetter string `gorm:"type:text" json:"cover_letter,omitempty"`
	ResumeURL   string `json:"resume_url,omitempty"`

	Status ApplicationStatus `gorm:"type:varchar(20);default:applied;index" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (j *Job) BeforeCreate(tx *gorm.DB) error {
	if j.ID == "" {
		j.ID = generateUUID()
	}
	return nil
}

func (a *JobApplication) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = generateUUID()
	}
	return nil
}
