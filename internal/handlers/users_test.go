package handlers

import (
	"net/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/connectly/backend/internal/models"
)

func (suite *HandlersTestSuite) TestGetUser() {
	t := suite.T()

	w := suite.do("GET", "/api/v1/users/"+suite.other.ID, nil, suite.user)
	require.Equal(t, http.StatusOK, w.Code)

	resp := suite.parseBody(w)
	user := resp["user"].(map[string]interface{})
	assert.Equal(t, suite.other.ID, user["id"])
	assert.Equal(t, false, resp["is_connected"])

	// The view was counted and the owner notified
	var stored models.User
	require.NoError(t, suite.db.First(&stored, "id = ?", suite.other.ID).Error)
	assert.Equal(t, 1, stored.ProfileViews)

	var count int64
	suite.db.Model(&models.Notification{}).
		Where("user_id = ? AND type = ?", suite.other.ID, models.NotifProfileView).
		Count(&count)
	assert.Equal(t, int64(1), count)
}

func (suite *HandlersTestSuite) TestGetOwnProfileDoesNotCountView() {
	t := suite.T()

	w := suite.do("GET", "/api/v1/users/"+suite.user.ID, nil, suite.user)
	require.Equal(t, http.StatusOK, w.Code)

	var stored models.User
	require.NoError(t, suite.db.First(&stored, "id = ?", suite.user.ID).Error)
	assert.Equal(t, 0, stored.ProfileViews)
}

func (suite *HandlersTestSuite) TestPrivateProfileReducedCard() {
	t := suite.T()
	require.NoError(t, suite.db.Model(suite.other).Update("is_private", true).Error)

	w := suite.do("GET", "/api/v1/users/"+suite.other.ID, nil, suite.user)
	require.Equal(t, http.StatusOK, w.Code)

	user := suite.parseBody(w)["user"].(map[string]interface{})
	assert.Equal(t, true, user["is_private"])
	assert.Contains(t, user, "first_name")
	assert.NotContains(t, user, "email")
	assert.NotContains(t, user, "bio")

	// No view recorded for the reduced card
	var stored models.User
	require.NoError(t, suite.db.First(&stored, "id = ?", suite.other.ID).Error)
	assert.Equal(t, 0, stored.ProfileViews)

	// Connections still get the full profile
	suite.connect(suite.user, suite.other)
	w = suite.do("GET", "/api/v1/users/"+suite.other.ID, nil, suite.user)
	require.Equal(t, http.StatusOK, w.Code)
	resp := suite.parseBody(w)
	assert.Equal(t, true, resp["is_connected"])
	assert.Contains(t, resp["user"].(map[string]interface{}), "bio")
}

func (suite *HandlersTestSuite) TestUpdateMe() {
	t := suite.T()

	w := suite.do("PUT", "/api/v1/users/me", map[string]interface{}{
		"headline": "Staff Engineer",
		"location": "Berlin",
		"skills":   []string{"go", "postgres", "redis"},
	}, suite.user)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var stored models.User
	require.NoError(t, suite.db.First(&stored, "id = ?", suite.user.ID).Error)
	assert.Equal(t, "Staff Engineer", stored.Headline)
	assert.Equal(t, "Berlin", stored.Location)
	assert.ElementsMatch(t, []string{"go", "postgres", "redis"}, []string(stored.Skills))
	// Untouched fields survive the partial update
	assert.Equal(t, "Jane", stored.FirstName)

	// Bad avatar URL rejected
	w = suite.do("PUT", "/api/v1/users/me", map[string]interface{}{
		"avatar_url": "not a url",
	}, suite.user)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestUpdateMeExperience() {
	t := suite.T()

	w := suite.do("PUT", "/api/v1/users/me", map[string]interface{}{
		"experience": []map[string]interface{}{
			{"title": "Engineer", "company": "Acme", "start_date": "2020-01"},
		},
		"education": []map[string]interface{}{
			{"school": "TU Berlin", "degree": "BSc", "field": "CS"},
		},
	}, suite.user)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	user := suite.parseBody(w)["user"].(map[string]interface{})
	experience := user["experience"].([]interface{})
	require.Len(t, experience, 1)
	assert.Equal(t, "Acme", experience[0].(map[string]interface{})["company"])
}

func (suite *HandlersTestSuite) TestSearchUsers() {
	t := suite.T()
	require.NoError(t, suite.db.Model(suite.other).Updates(map[string]interface{}{
		"headline": "Kernel hacker",
		"location": "Munich",
		"skills":   models.StringArray{"c", "rust"},
	}).Error)

	// By name
	w := suite.do("GET", "/api/v1/users/search?q=john", nil, suite.user)
	require.Equal(t, http.StatusOK, w.Code)
	users := suite.parseBody(w)["users"].([]interface{})
	require.Len(t, users, 1)
	assert.Equal(t, suite.other.ID, users[0].(map[string]interface{})["id"])

	// By location
	w = suite.do("GET", "/api/v1/users/search?location=munich", nil, suite.user)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, suite.parseBody(w)["users"], 1)

	// By skill
	w = suite.do("GET", "/api/v1/users/search?skills=rust", nil, suite.user)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, suite.parseBody(w)["users"], 1)

	// No criteria
	w = suite.do("GET", "/api/v1/users/search", nil, suite.user)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestGetSuggestions() {
	t := suite.T()
	bridge := suite.createUser("Bea", "Bridge")
	candidate := suite.createUser("Cal", "Candidate")

	// user - bridge - candidate, so candidate is second degree
	suite.connect(suite.user, bridge)
	suite.connect(bridge, candidate)

	w := suite.do("GET", "/api/v1/users/suggestions", nil, suite.user)
	require.Equal(t, http.StatusOK, w.Code)

	users := suite.parseBody(w)["users"].([]interface{})
	require.Len(t, users, 1)
	assert.Equal(t, candidate.ID, users[0].(map[string]interface{})["id"])
}

func (suite *HandlersTestSuite) TestToggleFollow() {
	t := suite.T()

	w := suite.do("POST", "/api/v1/users/"+suite.other.ID+"/follow", nil, suite.user)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, suite.parseBody(w)["following"])

	var target, follower models.User
	require.NoError(t, suite.db.First(&target, "id = ?", suite.other.ID).Error)
	require.NoError(t, suite.db.First(&follower, "id = ?", suite.user.ID).Error)
	assert.Equal(t, 1, target.FollowerCount)
	assert.Equal(t, 1, follower.FollowingCount)

	// Again to unfollow
	w = suite.do("POST", "/api/v1/users/"+suite.other.ID+"/follow", nil, suite.user)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, suite.parseBody(w)["following"])

	require.NoError(t, suite.db.First(&target, "id = ?", suite.other.ID).Error)
	assert.Equal(t, 0, target.FollowerCount)

	// Self-follow rejected
	w = suite.do("POST", "/api/v1/users/"+suite.user.ID+"/follow", nil, suite.user)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func (suite *HandlersTestSuite) TestToggleFollowSurfacesCheckErrors() {
	t := suite.T()

	// A broken follows table makes the existence check fail; that must
	// come back as a 500 from the check, not fall through to the create
	require.NoError(t, suite.db.Migrator().DropTable(&models.Follow{}))
	defer func() {
		require.NoError(t, suite.db.AutoMigrate(&models.Follow{}))
	}()

	w := suite.do("POST", "/api/v1/users/"+suite.other.ID+"/follow", nil, suite.user)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "follow state")
}

func (suite *HandlersTestSuite) TestFollowersAndFollowing() {
	t := suite.T()

	w := suite.do("POST", "/api/v1/users/"+suite.other.ID+"/follow", nil, suite.user)
	require.Equal(t, http.StatusOK, w.Code)

	w = suite.do("GET", "/api/v1/users/"+suite.other.ID+"/followers", nil, suite.user)
	require.Equal(t, http.StatusOK, w.Code)
	users := suite.parseBody(w)["users"].([]interface{})
	require.Len(t, users, 1)
	assert.Equal(t, suite.user.ID, users[0].(map[string]interface{})["id"])

	w = suite.do("GET", "/api/v1/users/"+suite.user.ID+"/following", nil, suite.user)
	require.Equal(t, http.StatusOK, w.Code)
	users = suite.parseBody(w)["users"].([]interface{})
	require.Len(t, users, 1)
	assert.Equal(t, suite.other.ID, users[0].(map[string]interface{})["id"])
}
