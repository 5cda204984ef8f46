package handlers

import (
	"net/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/connectly/backend/internal/models"
)

func (suite *HandlersTestSuite) createNotification(user, actor *models.User, typ models.NotificationType) *models.Notification {
	n := &models.Notification{
		UserID:  user.ID,
		ActorID: actor.ID,
		Type:    typ,
		Title:   "Test notification",
		Message: "Something happened",
	}
	require.NoError(suite.T(), suite.db.Create(n).Error)
	return n
}

func (suite *HandlersTestSuite) TestGetNotifications() {
	t := suite.T()
	suite.createNotification(suite.user, suite.other, models.NotifPostLike)
	read := suite.createNotification(suite.user, suite.other, models.NotifPostComment)
	require.NoError(t, suite.db.Model(read).Update("is_read", true).Error)

	w := suite.do("GET", "/api/v1/notifications", nil, suite.user)
	require.Equal(t, http.StatusOK, w.Code)

	resp := suite.parseBody(w)
	assert.Len(t, resp["notifications"], 2)
	assert.Equal(t, float64(1), resp["unread_count"])

	// Unread filter
	w = suite.do("GET", "/api/v1/notifications?unread=true", nil, suite.user)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, suite.parseBody(w)["notifications"], 1)

	// Other users see nothing
	w = suite.do("GET", "/api/v1/notifications", nil, suite.other)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, suite.parseBody(w)["notifications"], 0)
}

func (suite *HandlersTestSuite) TestMarkNotificationRead() {
	t := suite.T()
	n := suite.createNotification(suite.user, suite.other, models.NotifPostLike)

	w := suite.do("POST", "/api/v1/notifications/"+n.ID+"/read", nil, suite.user)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	notif := suite.parseBody(w)["notification"].(map[string]interface{})
	assert.Equal(t, true, notif["is_read"])

	var stored models.Notification
	require.NoError(t, suite.db.First(&stored, "id = ?", n.ID).Error)
	assert.True(t, stored.IsRead)
	assert.NotNil(t, stored.ReadAt)

	// Not yours, not found
	w = suite.do("POST", "/api/v1/notifications/"+n.ID+"/read", nil, suite.other)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestMarkAllNotificationsRead() {
	t := suite.T()
	suite.createNotification(suite.user, suite.other, models.NotifPostLike)
	suite.createNotification(suite.user, suite.other, models.NotifPostShare)

	w := suite.do("POST", "/api/v1/notifications/read-all", nil, suite.user)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), suite.parseBody(w)["updated"])

	var unread int64
	suite.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", suite.user.ID, false).
		Count(&unread)
	assert.Equal(t, int64(0), unread)
}

func (suite *HandlersTestSuite) TestDeleteNotification() {
	t := suite.T()
	n := suite.createNotification(suite.user, suite.other, models.NotifPostLike)

	// Someone else's delete misses
	w := suite.do("DELETE", "/api/v1/notifications/"+n.ID, nil, suite.other)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = suite.do("DELETE", "/api/v1/notifications/"+n.ID, nil, suite.user)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "notification_deleted", suite.parseBody(w)["message"])

	var count int64
	suite.db.Model(&models.Notification{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func (suite *HandlersTestSuite) TestClearNotifications() {
	t := suite.T()
	suite.createNotification(suite.user, suite.other, models.NotifPostLike)
	suite.createNotification(suite.user, suite.other, models.NotifMessage)
	kept := suite.createNotification(suite.other, suite.user, models.NotifPostLike)

	w := suite.do("DELETE", "/api/v1/notifications", nil, suite.user)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), suite.parseBody(w)["deleted"])

	// The other user's row survives
	var stored models.Notification
	assert.NoError(t, suite.db.First(&stored, "id = ?", kept.ID).Error)
}
