package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/connectly/backend/internal/database"
	"github.com/connectly/backend/internal/logger"
	"github.com/connectly/backend/internal/models"
	"github.com/connectly/backend/internal/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// CreateJob posts a new job opening
// POST /api/v1/jobs
func (h *Handlers) CreateJob(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Title       string     `json:"title" binding:"required,min=1,max=200"`
		Company     string     `json:"company" binding:"required,min=1,max=200"`
		Description string     `json:"description" binding:"required,min=1,max=20000"`
		Location    string     `json:"location" binding:"max=100"`
		Type        string     `json:"type" binding:"omitempty,oneof=full_time part_time contract internship remote"`
		Experience  string     `json:"experience" binding:"omitempty,oneof=entry mid senior executive"`
		Skills      []string   `json:"skills" binding:"max=50"`
		SalaryMin   *int       `json:"salary_min" binding:"omitempty,min=0"`
		SalaryMax   *int       `json:"salary_max" binding:"omitempty,min=0"`
		Deadline    *time.Time `json:"deadline"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	if req.SalaryMin != nil && req.SalaryMax != nil && *req.SalaryMin > *req.SalaryMax {
		util.RespondValidationError(c, "salary_min", "Minimum salary cannot exceed maximum")
		return
	}
	if req.Deadline != nil && req.Deadline.Before(time.Now()) {
		util.RespondValidationError(c, "deadline", "Deadline must be in the future")
		return
	}

	job := models.Job{
		PosterID:    user.ID,
		Title:       req.Title,
		Company:     req.Company,
		Description: req.Description,
		Location:    req.Location,
		Type:        models.JobType(req.Type),
		Experience:  models.ExperienceLevel(req.Experience),
		Skills:      models.StringArray(req.Skills),
		SalaryMin:   req.SalaryMin,
		SalaryMax:   req.SalaryMax,
		IsActive:    true,
		Deadline:    req.Deadline,
	}
	if req.Type == "" {
		job.Type = models.JobFullTime
	}

	if err := database.DB.Create(&job).Error; err != nil {
		logger.ErrorWithFields("Failed to create job", err)
		util.RespondInternalError(c, "Failed to create job")
		return
	}

	job.Poster = *user
	c.JSON(http.StatusCreated, gin.H{"job": job})
}

// ListJobs lists active jobs with optional filters
// GET /api/v1/jobs
func (h *Handlers) ListJobs(c *gin.Context) {
	if _, ok := util.GetUserIDFromContext(c); !ok {
		return
	}
	page, limit, offset := util.Pagination(c.Query("page"), c.Query("limit"), 20, 100)

	query := database.DB.Model(&models.Job{}).Where("is_active = ?", true)

	if q := strings.TrimSpace(c.Query("q")); q != "" {
		pattern := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(company) LIKE ? OR LOWER(description) LIKE ?",
			pattern, pattern, pattern)
	}
	if location := strings.TrimSpace(c.Query("location")); location != "" {
		query = query.Where("LOWER(location) LIKE ?", "%"+strings.ToLower(location)+"%")
	}
	if jobType := c.Query("type"); jobType != "" {
		query = query.Where("type = ?", jobType)
	}
	if experience := c.Query("experience"); experience != "" {
		query = query.Where("experience = ?", experience)
	}
	for _, skill := range util.ParseCSV(c.Query("skills")) {
		query = query.Where("? = ANY(skills)", skill)
	}

	var jobs []models.Job
	err := query.
		Preload("Poster").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&jobs).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to load jobs")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"jobs": jobs,
		"meta": gin.H{"page": page, "limit": limit, "count": len(jobs)},
	})
}

// GetJob returns one job and counts the view
// GET /api/v1/jobs/:id
func (h *Handlers) GetJob(c *gin.Context) {
	jobID := c.Param("id")
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var job models.Job
	if err := database.DB.Preload("Poster").First(&job, "id = ?", jobID).Error; err != nil {
		util.RespondNotFound(c, "job")
		return
	}

	if userID != job.PosterID {
		if err := database.DB.Model(&job).
			UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error; err != nil {
			logger.WarnWithFields("Failed to count job view for "+jobID, err)
		} else {
			job.ViewCount++
		}
	}

	c.JSON(http.StatusOK, gin.H{"job": job})
}

// UpdateJob edits a job posting. Only the poster may edit.
// PUT /api/v1/jobs/:id
func (h *Handlers) UpdateJob(c *gin.Context) {
	jobID := c.Param("id")
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var job models.Job
	if err := database.DB.First(&job, "id = ?", jobID).Error; err != nil {
		util.RespondNotFound(c, "job")
		return
	}
	if job.PosterID != user.ID {
		util.RespondForbidden(c, "You do not own this job posting")
		return
	}

	var req struct {
		Title       *string    `json:"title" binding:"omitempty,min=1,max=200"`
		Description *string    `json:"description" binding:"omitempty,min=1,max=20000"`
		Location    *string    `json:"location" binding:"omitempty,max=100"`
		Type        *string    `json:"type" binding:"omitempty,oneof=full_time part_time contract internship remote"`
		Experience  *string    `json:"experience" binding:"omitempty,oneof=entry mid senior executive"`
		Skills      *[]string  `json:"skills"`
		SalaryMin   *int       `json:"salary_min" binding:"omitempty,min=0"`
		SalaryMax   *int       `json:"salary_max" binding:"omitempty,min=0"`
		Deadline    *time.Time `json:"deadline"`
		IsActive    *bool      `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Location != nil {
		updates["location"] = *req.Location
	}
	if req.Type != nil {
		updates["type"] = *req.Type
	}
	if req.Experience != nil {
		updates["experience"] = *req.Experience
	}
	if req.Skills != nil {
		updates["skills"] = models.StringArray(*req.Skills)
	}
	if req.SalaryMin != nil {
		updates["salary_min"] = *req.SalaryMin
	}
	if req.SalaryMax != nil {
		updates["salary_max"] = *req.SalaryMax
	}
	if req.Deadline != nil {
		updates["deadline"] = *req.Deadline
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		if err := database.DB.Model(&job).Updates(updates).Error; err != nil {
			util.RespondInternalError(c, "Failed to update job")
			return
		}
	}

	if err := database.DB.Preload("Poster").First(&job, "id = ?", jobID).Error; err != nil {
		util.RespondInternalError(c, "Failed to reload job")
		return
	}

	c.JSON(http.StatusOK, gin.H{"job": job})
}

// DeleteJob soft-deletes a job posting. Poster or admin only.
// DELETE /api/v1/jobs/:id
func (h *Handlers) DeleteJob(c *gin.Context) {
	jobID := c.Param("id")
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var job models.Job
	if err := database.DB.First(&job, "id = ?", jobID).Error; err != nil {
		util.RespondNotFound(c, "job")
		return
	}
	if job.PosterID != user.ID && !user.IsAdmin {
		util.RespondForbidden(c, "You do not own this job posting")
		return
	}

	if err := database.DB.Delete(&job).Error; err != nil {
		util.RespondInternalError(c, "Failed to delete job")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "job_deleted"})
}

// ApplyToJob submits an application. Inactive or expired jobs and
// duplicate applications are rejected; the poster cannot apply.
// POST /api/v1/jobs/:id/apply
func (h *Handlers) ApplyToJob(c *gin.Context) {
	jobID := c.Param("id")
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	// Both fields are optional, so an empty body is a valid application.
	var req struct {
		CoverLetter string `json:"cover_letter" binding:"max=10000"`
		ResumeURL   string `json:"resume_url" binding:"omitempty,url"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			util.RespondBadRequest(c, err.Error())
			return
		}
	}

	var job models.Job
	if err := database.DB.First(&job, "id = ?", jobID).Error; err != nil {
		util.RespondNotFound(c, "job")
		return
	}

	if job.PosterID == user.ID {
		util.RespondValidationError(c, "id", "You cannot apply to your own job posting")
		return
	}
	if !job.IsActive {
		util.RespondConflict(c, "This job is no longer accepting applications")
		return
	}
	if job.Deadline != nil && job.Deadline.Before(time.Now()) {
		util.RespondConflict(c, "The application deadline has passed")
		return
	}

	application := models.JobApplication{
		JobID:       jobID,
		ApplicantID: user.ID,
		CoverLetter: req.CoverLetter,
		ResumeURL:   req.ResumeURL,
		Status:      models.ApplicationApplied,
	}

	var notif *models.Notification
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&application).Error; err != nil {
			return err
		}
		if err := tx.Model(&job).
			UpdateColumn("application_count", gorm.Expr("application_count + 1")).Error; err != nil {
			return err
		}
		var err error
		notif, err = h.notifier.JobApplied(tx, &job, user)
		return err
	})
	if err != nil {
		// The unique index on (job_id, applicant_id) is the duplicate check,
		// so concurrent applications resolve to a conflict rather than a 500.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			util.RespondConflict(c, "You have already applied to this job")
			return
		}
		logger.ErrorWithFields("Failed to create job application", err)
		util.RespondInternalError(c, "Failed to submit application")
		return
	}
	h.notifier.Dispatch(notif)

	c.JSON(http.StatusCreated, gin.H{"application": application})
}

// ListApplications lists applications for a job. Poster only.
// GET /api/v1/jobs/:id/applications
func (h *Handlers) ListApplications(c *gin.Context) {
	jobID := c.Param("id")
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}
	page, limit, offset := util.Pagination(c.Query("page"), c.Query("limit"), 20, 100)

	var job models.Job
	if err := database.DB.First(&job, "id = ?", jobID).Error; err != nil {
		util.RespondNotFound(c, "job")
		return
	}
	if job.PosterID != user.ID {
		util.RespondForbidden(c, "Only the poster can view applications")
		return
	}

	query := database.DB.
		Preload("Applicant").
		Where("job_id = ?", jobID)
	if status := c.Query("status"); status != "" {
		if !models.ValidApplicationStatus(models.ApplicationStatus(status)) {
			util.RespondValidationError(c, "status", "Unknown application status")
			return
		}
		query = query.Where("status = ?", status)
	}

	var applications []models.JobApplication
	err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&applications).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to load applications")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"applications": applications,
		"meta":         gin.H{"page": page, "limit": limit, "count": len(applications)},
	})
}

// UpdateApplicationStatus moves an application through review states.
// Poster only.
// PUT /api/v1/jobs/:id/applications/:appID
func (h *Handlers) UpdateApplicationStatus(c *gin.Context) {
	jobID := c.Param("id")
	appID := c.Param("appID")
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}
	status := models.ApplicationStatus(req.Status)
	if !models.ValidApplicationStatus(status) {
		util.RespondValidationError(c, "status", "Unknown application status")
		return
	}

	var job models.Job
	if err := database.DB.First(&job, "id = ?", jobID).Error; err != nil {
		util.RespondNotFound(c, "job")
		return
	}
	if job.PosterID != user.ID {
		util.RespondForbidden(c, "Only the poster can review applications")
		return
	}

	var application models.JobApplication
	if err := database.DB.First(&application, "id = ? AND job_id = ?", appID, jobID).Error; err != nil {
		util.RespondNotFound(c, "application")
		return
	}

	if err := database.DB.Model(&application).Update("status", status).Error; err != nil {
		util.RespondInternalError(c, "Failed to update application")
		return
	}
	application.Status = status

	c.JSON(http.StatusOK, gin.H{"application": application})
}

// MyApplications lists the authenticated user's applications
// GET /api/v1/jobs/applications/mine
func (h *Handlers) MyApplications(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	page, limit, offset := util.Pagination(c.Query("page"), c.Query("limit"), 20, 100)

	var applications []models.JobApplication
	err := database.DB.
		Preload("Job").
		Preload("Job.Poster").
		Where("applicant_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&applications).Error
	if err != nil {
		util.RespondInternalError(c, "Failed to load applications")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"applications": applications,
		"meta":         gin.H{"page": page, "limit": limit, "count": len(applications)},
	})
}
