package handlers

import (
	"net/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/connectly/backend/internal/models"
)

func (suite *HandlersTestSuite) requestConnection(from, to *models.User) string {
	w := suite.do("POST", "/api/v1/connections/request", map[string]interface{}{
		"recipient_id": to.ID,
		"message":      "Let's connect",
	}, from)
	require.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())
	return suite.parseBody(w)["request"].(map[string]interface{})["id"].(string)
}

func (suite *HandlersTestSuite) TestRequestConnection() {
	t := suite.T()

	reqID := suite.requestConnection(suite.user, suite.other)
	assert.NotEmpty(t, reqID)

	// Recipient got a notification
	var count int64
	suite.db.Model(&models.Notification{}).
		Where("user_id = ? AND type = ?", suite.other.ID, models.NotifConnectionRequest).
		Count(&count)
	assert.Equal(t, int64(1), count)

	// Duplicate while pending conflicts
	w := suite.do("POST", "/api/v1/connections/request", map[string]interface{}{
		"recipient_id": suite.other.ID,
	}, suite.user)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Reverse direction hits the same pending pair
	w = suite.do("POST", "/api/v1/connections/request", map[string]interface{}{
		"recipient_id": suite.user.ID,
	}, suite.other)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func (suite *HandlersTestSuite) TestRequestConnectionToSelf() {
	w := suite.do("POST", "/api/v1/connections/request", map[string]interface{}{
		"recipient_id": suite.user.ID,
	}, suite.user)
	assert.Equal(suite.T(), http.StatusUnprocessableEntity, w.Code)
}

func (suite *HandlersTestSuite) TestAcceptConnectionRequest() {
	t := suite.T()
	reqID := suite.requestConnection(suite.user, suite.other)

	w := suite.do("POST", "/api/v1/connections/requests/"+reqID+"/respond", map[string]interface{}{
		"action": "accept",
	}, suite.other)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Mirrored edges exist
	var edges int64
	suite.db.Model(&models.Connection{}).
		Where("user_id IN ? AND connected_user_id IN ?",
			[]string{suite.user.ID, suite.other.ID},
			[]string{suite.user.ID, suite.other.ID}).
		Count(&edges)
	assert.Equal(t, int64(2), edges)

	// Both counters incremented
	var u models.User
	require.NoError(t, suite.db.First(&u, "id = ?", suite.user.ID).Error)
	assert.Equal(t, 1, u.ConnectionCount)
	require.NoError(t, suite.db.First(&u, "id = ?", suite.other.ID).Error)
	assert.Equal(t, 1, u.ConnectionCount)

	// Requester told about the acceptance
	var count int64
	suite.db.Model(&models.Notification{}).
		Where("user_id = ? AND type = ?", suite.user.ID, models.NotifConnectionAccepted).
		Count(&count)
	assert.Equal(t, int64(1), count)

	// Responding again conflicts
	w = suite.do("POST", "/api/v1/connections/requests/"+reqID+"/respond", map[string]interface{}{
		"action": "accept",
	}, suite.other)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func (suite *HandlersTestSuite) TestDeclineThenReRequest() {
	t := suite.T()
	reqID := suite.requestConnection(suite.user, suite.other)

	w := suite.do("POST", "/api/v1/connections/requests/"+reqID+"/respond", map[string]interface{}{
		"action": "decline",
	}, suite.other)
	require.Equal(t, http.StatusOK, w.Code)

	// No edges created
	var edges int64
	suite.db.Model(&models.Connection{}).Count(&edges)
	assert.Equal(t, int64(0), edges)

	// Declined pairs can be asked again
	w = suite.do("POST", "/api/v1/connections/request", map[string]interface{}{
		"recipient_id": suite.other.ID,
	}, suite.user)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var reqs []models.ConnectionRequest
	require.NoError(t, suite.db.Find(&reqs).Error)
	require.Len(t, reqs, 1)
	assert.Equal(t, models.RequestPending, reqs[0].Status)
}

func (suite *HandlersTestSuite) TestOnlyRecipientCanRespond() {
	t := suite.T()
	reqID := suite.requestConnection(suite.user, suite.other)

	w := suite.do("POST", "/api/v1/connections/requests/"+reqID+"/respond", map[string]interface{}{
		"action": "accept",
	}, suite.user)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func (suite *HandlersTestSuite) TestListConnectionRequests() {
	t := suite.T()
	suite.requestConnection(suite.user, suite.other)

	w := suite.do("GET", "/api/v1/connections/requests/received", nil, suite.other)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, suite.parseBody(w)["requests"], 1)

	w = suite.do("GET", "/api/v1/connections/requests/sent", nil, suite.user)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, suite.parseBody(w)["requests"], 1)

	// Nothing waiting for the requester
	w = suite.do("GET", "/api/v1/connections/requests/received", nil, suite.user)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, suite.parseBody(w)["requests"], 0)
}

func (suite *HandlersTestSuite) TestListConnections() {
	t := suite.T()
	suite.connect(suite.user, suite.other)

	w := suite.do("GET", "/api/v1/connections", nil, suite.user)
	require.Equal(t, http.StatusOK, w.Code)

	connections := suite.parseBody(w)["connections"].([]interface{})
	require.Len(t, connections, 1)
	edge := connections[0].(map[string]interface{})
	assert.Equal(t, suite.other.ID, edge["connected_user_id"])
	assert.Equal(t, suite.other.ID, edge["connected_user"].(map[string]interface{})["id"])
}

func (suite *HandlersTestSuite) TestRemoveConnection() {
	t := suite.T()
	suite.connect(suite.user, suite.other)

	w := suite.do("DELETE", "/api/v1/connections/"+suite.other.ID, nil, suite.user)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var edges int64
	suite.db.Model(&models.Connection{}).Count(&edges)
	assert.Equal(t, int64(0), edges)

	// A fresh request can follow a removal
	w = suite.do("POST", "/api/v1/connections/request", map[string]interface{}{
		"recipient_id": suite.other.ID,
	}, suite.user)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func (suite *HandlersTestSuite) TestMutualConnections() {
	t := suite.T()
	third := suite.createUser("Mia", "Mutual")

	suite.connect(suite.user, third)
	suite.connect(suite.other, third)

	w := suite.do("GET", "/api/v1/connections/mutual/"+suite.other.ID, nil, suite.user)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := suite.parseBody(w)
	assert.Equal(t, float64(1), resp["count"])
	users := resp["users"].([]interface{})
	require.Len(t, users, 1)
	assert.Equal(t, third.ID, users[0].(map[string]interface{})["id"])
}
