package handlers

import (
	"net/http"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/connectly/backend/internal/models"
)

func (suite *HandlersTestSuite) createJob(poster *models.User, title string) *models.Job {
	j := &models.Job{
		PosterID:    poster.ID,
		Title:       title,
		Company:     "Acme Corp",
		Description: "Build things",
		Location:    "Remote",
		Type:        models.JobFullTime,
		Experience:  models.LevelMid,
		IsActive:    true,
	}
	require.NoError(suite.T(), suite.db.Create(j).Error)
	return j
}

func (suite *HandlersTestSuite) TestCreateJob() {
	t := suite.T()

	w := suite.do("POST", "/api/v1/jobs", map[string]interface{}{
		"title":       "Backend Engineer",
		"company":     "Acme Corp",
		"description": "Go services and Postgres",
		"location":    "Berlin",
		"type":        "full_time",
		"experience":  "senior",
		"skills":      []string{"go", "postgres"},
		"salary_min":  70000,
		"salary_max":  95000,
	}, suite.user)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	job := suite.parseBody(w)["job"].(map[string]interface{})
	assert.Equal(t, suite.user.ID, job["poster_id"])
	assert.Equal(t, true, job["is_active"])
}

func (suite *HandlersTestSuite) TestCreateJobValidation() {
	t := suite.T()

	// Inverted salary range
	w := suite.do("POST", "/api/v1/jobs", map[string]interface{}{
		"title":       "Engineer",
		"company":     "Acme",
		"description": "x",
		"salary_min":  90000,
		"salary_max":  50000,
	}, suite.user)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// Deadline in the past
	w = suite.do("POST", "/api/v1/jobs", map[string]interface{}{
		"title":       "Engineer",
		"company":     "Acme",
		"description": "x",
		"deadline":    time.Now().Add(-24 * time.Hour).Format(time.RFC3339),
	}, suite.user)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// Unknown job type
	w = suite.do("POST", "/api/v1/jobs", map[string]interface{}{
		"title":       "Engineer",
		"company":     "Acme",
		"description": "x",
		"type":        "gig",
	}, suite.user)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestListJobsExcludesInactive() {
	t := suite.T()
	suite.createJob(suite.user, "Active Role")
	closed := suite.createJob(suite.user, "Closed Role")
	require.NoError(t, suite.db.Model(closed).Update("is_active", false).Error)

	w := suite.do("GET", "/api/v1/jobs", nil, suite.other)
	require.Equal(t, http.StatusOK, w.Code)

	jobs := suite.parseBody(w)["jobs"].([]interface{})
	require.Len(t, jobs, 1)
	assert.Equal(t, "Active Role", jobs[0].(map[string]interface{})["title"])
}

func (suite *HandlersTestSuite) TestGetJobCountsViews() {
	t := suite.T()
	job := suite.createJob(suite.user, "Viewed Role")

	// Poster's own view does not count
	w := suite.do("GET", "/api/v1/jobs/"+job.ID, nil, suite.user)
	require.Equal(t, http.StatusOK, w.Code)

	w = suite.do("GET", "/api/v1/jobs/"+job.ID, nil, suite.other)
	require.Equal(t, http.StatusOK, w.Code)

	var stored models.Job
	require.NoError(t, suite.db.First(&stored, "id = ?", job.ID).Error)
	assert.Equal(t, 1, stored.ViewCount)
}

func (suite *HandlersTestSuite) TestApplyToJob() {
	t := suite.T()
	job := suite.createJob(suite.user, "Open Role")

	w := suite.do("POST", "/api/v1/jobs/"+job.ID+"/apply", map[string]interface{}{
		"cover_letter": "I would love to work on this",
	}, suite.other)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	app := suite.parseBody(w)["application"].(map[string]interface{})
	assert.Equal(t, "applied", app["status"])

	var stored models.Job
	require.NoError(t, suite.db.First(&stored, "id = ?", job.ID).Error)
	assert.Equal(t, 1, stored.ApplicationCount)

	// Poster notified
	var count int64
	suite.db.Model(&models.Notification{}).
		Where("user_id = ? AND type = ?", suite.user.ID, models.NotifJobApplication).
		Count(&count)
	assert.Equal(t, int64(1), count)

	// Applying twice conflicts
	w = suite.do("POST", "/api/v1/jobs/"+job.ID+"/apply", nil, suite.other)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func (suite *HandlersTestSuite) TestApplyWithoutBody() {
	t := suite.T()
	job := suite.createJob(suite.user, "Optional Letter Role")

	// Both payload fields are optional, so no body at all is accepted
	w := suite.do("POST", "/api/v1/jobs/"+job.ID+"/apply", nil, suite.other)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	app := suite.parseBody(w)["application"].(map[string]interface{})
	assert.Equal(t, "applied", app["status"])
	assert.Nil(t, app["cover_letter"])

	// A body that is present is still validated
	job2 := suite.createJob(suite.user, "Validated Role")
	w = suite.do("POST", "/api/v1/jobs/"+job2.ID+"/apply", map[string]interface{}{
		"resume_url": "not-a-url",
	}, suite.other)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestApplyRacingDuplicateConflicts() {
	t := suite.T()
	job := suite.createJob(suite.user, "Contested Role")

	// A rival request's row landing first leaves the unique index to
	// reject this one
	require.NoError(t, suite.db.Create(&models.JobApplication{
		JobID:       job.ID,
		ApplicantID: suite.other.ID,
		Status:      models.ApplicationApplied,
	}).Error)

	w := suite.do("POST", "/api/v1/jobs/"+job.ID+"/apply", nil, suite.other)
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	var count int64
	suite.db.Model(&models.JobApplication{}).Where("job_id = ?", job.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func (suite *HandlersTestSuite) TestApplyEdgeCases() {
	t := suite.T()
	job := suite.createJob(suite.user, "Edge Role")

	// Own posting
	w := suite.do("POST", "/api/v1/jobs/"+job.ID+"/apply", nil, suite.user)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// Closed posting
	require.NoError(t, suite.db.Model(job).Update("is_active", false).Error)
	w = suite.do("POST", "/api/v1/jobs/"+job.ID+"/apply", nil, suite.other)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Past deadline
	require.NoError(t, suite.db.Model(job).Updates(map[string]interface{}{
		"is_active": true,
		"deadline":  time.Now().Add(-time.Hour),
	}).Error)
	w = suite.do("POST", "/api/v1/jobs/"+job.ID+"/apply", nil, suite.other)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func (suite *HandlersTestSuite) TestListApplicationsPosterOnly() {
	t := suite.T()
	job := suite.createJob(suite.user, "Staffed Role")

	w := suite.do("POST", "/api/v1/jobs/"+job.ID+"/apply", nil, suite.other)
	require.Equal(t, http.StatusCreated, w.Code)

	w = suite.do("GET", "/api/v1/jobs/"+job.ID+"/applications", nil, suite.other)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = suite.do("GET", "/api/v1/jobs/"+job.ID+"/applications", nil, suite.user)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, suite.parseBody(w)["applications"], 1)
}

func (suite *HandlersTestSuite) TestUpdateApplicationStatus() {
	t := suite.T()
	job := suite.createJob(suite.user, "Review Role")

	w := suite.do("POST", "/api/v1/jobs/"+job.ID+"/apply", nil, suite.other)
	require.Equal(t, http.StatusCreated, w.Code)
	appID := suite.parseBody(w)["application"].(map[string]interface{})["id"].(string)

	// Only the poster can review
	w = suite.do("PUT", "/api/v1/jobs/"+job.ID+"/applications/"+appID, map[string]interface{}{
		"status": "shortlisted",
	}, suite.other)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Unknown status rejected
	w = suite.do("PUT", "/api/v1/jobs/"+job.ID+"/applications/"+appID, map[string]interface{}{
		"status": "maybe",
	}, suite.user)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = suite.do("PUT", "/api/v1/jobs/"+job.ID+"/applications/"+appID, map[string]interface{}{
		"status": "shortlisted",
	}, suite.user)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var stored models.JobApplication
	require.NoError(t, suite.db.First(&stored, "id = ?", appID).Error)
	assert.Equal(t, models.ApplicationShortlisted, stored.Status)
}

func (suite *HandlersTestSuite) TestMyApplications() {
	t := suite.T()
	job := suite.createJob(suite.user, "Mine Role")

	w := suite.do("POST", "/api/v1/jobs/"+job.ID+"/apply", nil, suite.other)
	require.Equal(t, http.StatusCreated, w.Code)

	w = suite.do("GET", "/api/v1/jobs/applications/mine", nil, suite.other)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, suite.parseBody(w)["applications"], 1)

	w = suite.do("GET", "/api/v1/jobs/applications/mine", nil, suite.user)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, suite.parseBody(w)["applications"], 0)
}

func (suite *HandlersTestSuite) TestUpdateAndDeleteJob() {
	t := suite.T()
	job := suite.createJob(suite.user, "Mutable Role")

	w := suite.do("PUT", "/api/v1/jobs/"+job.ID, map[string]interface{}{
		"title":     "Renamed Role",
		"is_active": false,
	}, suite.other)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = suite.do("PUT", "/api/v1/jobs/"+job.ID, map[string]interface{}{
		"title":     "Renamed Role",
		"is_active": false,
	}, suite.user)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var stored models.Job
	require.NoError(t, suite.db.First(&stored, "id = ?", job.ID).Error)
	assert.Equal(t, "Renamed Role", stored.Title)
	assert.False(t, stored.IsActive)

	w = suite.do("DELETE", "/api/v1/jobs/"+job.ID, nil, suite.user)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "job_deleted", suite.parseBody(w)["message"])
}
