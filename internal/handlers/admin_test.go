package handlers

import (
	"net/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (suite *HandlersTestSuite) TestAdminStats() {
	t := suite.T()

	// Regular accounts are rejected
	w := suite.do("GET", "/api/v1/admin/stats", nil, suite.user)
	assert.Equal(t, http.StatusForbidden, w.Code)

	admin := suite.createUser("Ada", "Admin")
	require.NoError(t, suite.db.Model(admin).Update("is_admin", true).Error)

	suite.connect(suite.user, suite.other)
	suite.createPost(suite.user, "counted post")
	suite.createJob(suite.user, "Counted Role")

	w = suite.do("GET", "/api/v1/admin/stats", nil, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := suite.parseBody(w)
	assert.Equal(t, float64(3), resp["users"])
	assert.Equal(t, float64(1), resp["posts"])
	assert.Equal(t, float64(1), resp["jobs"])
	// Mirrored rows count as one connection
	assert.Equal(t, float64(1), resp["connections"])
}
