package handlers

import (
	"net/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/connectly/backend/internal/models"
)

func (suite *HandlersTestSuite) TestCreatePost() {
	t := suite.T()

	w := suite.do("POST", "/api/v1/posts", map[string]interface{}{
		"content": "Shipping a new service in #golang with #grpc",
	}, suite.user)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := suite.parseBody(w)
	post := resp["post"].(map[string]interface{})
	assert.Equal(t, suite.user.ID, post["author_id"])
	assert.Equal(t, "public", post["visibility"])

	tags := post["hashtags"].([]interface{})
	assert.ElementsMatch(t, []interface{}{"golang", "grpc"}, tags)
}

func (suite *HandlersTestSuite) TestCreatePostValidation() {
	t := suite.T()

	// Empty content
	w := suite.do("POST", "/api/v1/posts", map[string]interface{}{"content": ""}, suite.user)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown visibility
	w = suite.do("POST", "/api/v1/posts", map[string]interface{}{
		"content":    "hello",
		"visibility": "everyone",
	}, suite.user)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestCreatePostMentionNotifies() {
	t := suite.T()

	w := suite.do("POST", "/api/v1/posts", map[string]interface{}{
		"content": "Big thanks to @john.smith for the review",
	}, suite.user)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var notifs []models.Notification
	require.NoError(t, suite.db.Where("user_id = ?", suite.other.ID).Find(&notifs).Error)
	require.Len(t, notifs, 1)
	assert.Equal(t, models.NotifMention, notifs[0].Type)
	assert.Equal(t, suite.user.ID, notifs[0].ActorID)
}

func (suite *HandlersTestSuite) TestConnectionsOnlyPostHidden() {
	t := suite.T()

	w := suite.do("POST", "/api/v1/posts", map[string]interface{}{
		"content":    "team only",
		"visibility": "connections",
	}, suite.user)
	require.Equal(t, http.StatusCreated, w.Code)
	postID := suite.parseBody(w)["post"].(map[string]interface{})["id"].(string)

	// Stranger sees 404
	w = suite.do("GET", "/api/v1/posts/"+postID, nil, suite.other)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Author sees it
	w = suite.do("GET", "/api/v1/posts/"+postID, nil, suite.user)
	assert.Equal(t, http.StatusOK, w.Code)

	// Connection sees it
	suite.connect(suite.user, suite.other)
	w = suite.do("GET", "/api/v1/posts/"+postID, nil, suite.other)
	assert.Equal(t, http.StatusOK, w.Code)
}

func (suite *HandlersTestSuite) TestToggleLike() {
	t := suite.T()
	post := suite.createPost(suite.user, "like me")

	// Like
	w := suite.do("POST", "/api/v1/posts/"+post.ID+"/like", nil, suite.other)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, suite.parseBody(w)["liked"])

	var stored models.Post
	require.NoError(t, suite.db.First(&stored, "id = ?", post.ID).Error)
	assert.Equal(t, 1, stored.LikeCount)
	assert.Equal(t, 1, stored.EngagementScore)

	// Author got notified
	var count int64
	suite.db.Model(&models.Notification{}).
		Where("user_id = ? AND type = ?", suite.user.ID, models.NotifPostLike).
		Count(&count)
	assert.Equal(t, int64(1), count)

	// Second call removes the like
	w = suite.do("POST", "/api/v1/posts/"+post.ID+"/like", nil, suite.other)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, suite.parseBody(w)["liked"])

	require.NoError(t, suite.db.First(&stored, "id = ?", post.ID).Error)
	assert.Equal(t, 0, stored.LikeCount)
	assert.Equal(t, 0, stored.EngagementScore)
}

func (suite *HandlersTestSuite) TestSelfLikeDoesNotNotify() {
	t := suite.T()
	post := suite.createPost(suite.user, "my own post")

	w := suite.do("POST", "/api/v1/posts/"+post.ID+"/like", nil, suite.user)
	require.Equal(t, http.StatusOK, w.Code)

	var count int64
	suite.db.Model(&models.Notification{}).Where("user_id = ?", suite.user.ID).Count(&count)
	assert.Equal(t, int64(0), count)
}

func (suite *HandlersTestSuite) TestCreateComment() {
	t := suite.T()
	post := suite.createPost(suite.user, "discuss")

	w := suite.do("POST", "/api/v1/posts/"+post.ID+"/comments", map[string]interface{}{
		"content": "great point",
	}, suite.other)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var stored models.Post
	require.NoError(t, suite.db.First(&stored, "id = ?", post.ID).Error)
	assert.Equal(t, 1, stored.CommentCount)
	assert.Equal(t, 1, stored.EngagementScore)

	w = suite.do("GET", "/api/v1/posts/"+post.ID+"/comments", nil, suite.user)
	require.Equal(t, http.StatusOK, w.Code)
	resp := suite.parseBody(w)
	assert.Len(t, resp["comments"], 1)
}

func (suite *HandlersTestSuite) TestSharePost() {
	t := suite.T()
	post := suite.createPost(suite.user, "share me")

	w := suite.do("POST", "/api/v1/posts/"+post.ID+"/share", map[string]interface{}{
		"comment": "worth reading",
	}, suite.other)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Shares weigh double in the engagement score
	var stored models.Post
	require.NoError(t, suite.db.First(&stored, "id = ?", post.ID).Error)
	assert.Equal(t, 1, stored.ShareCount)
	assert.Equal(t, 2, stored.EngagementScore)

	// Sharing twice conflicts
	w = suite.do("POST", "/api/v1/posts/"+post.ID+"/share", map[string]interface{}{}, suite.other)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func (suite *HandlersTestSuite) TestSharePostWithoutBody() {
	t := suite.T()
	post := suite.createPost(suite.user, "plain reshare")

	// The commentary is optional, so no body at all is accepted
	w := suite.do("POST", "/api/v1/posts/"+post.ID+"/share", nil, suite.other)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// A rival request's row landing first leaves the unique index to
	// reject a replay, and the counters stay put
	other := suite.createPost(suite.user, "contested reshare")
	require.NoError(t, suite.db.Create(&models.PostShare{
		PostID: other.ID,
		UserID: suite.other.ID,
	}).Error)

	w = suite.do("POST", "/api/v1/posts/"+other.ID+"/share", nil, suite.other)
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	var stored models.Post
	require.NoError(t, suite.db.First(&stored, "id = ?", other.ID).Error)
	assert.Equal(t, 0, stored.ShareCount)
}

func (suite *HandlersTestSuite) TestDeletePost() {
	t := suite.T()
	post := suite.createPost(suite.user, "to delete")

	// Someone else cannot delete it
	w := suite.do("DELETE", "/api/v1/posts/"+post.ID, nil, suite.other)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Author can
	w = suite.do("DELETE", "/api/v1/posts/"+post.ID, nil, suite.user)
	assert.Equal(t, http.StatusOK, w.Code)

	w = suite.do("GET", "/api/v1/posts/"+post.ID, nil, suite.user)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func (suite *HandlersTestSuite) TestAdminCanDeleteAnyPost() {
	t := suite.T()
	post := suite.createPost(suite.user, "reported content")

	admin := suite.createUser("Ada", "Admin")
	require.NoError(t, suite.db.Model(admin).Update("is_admin", true).Error)

	w := suite.do("DELETE", "/api/v1/posts/"+post.ID, nil, admin)
	assert.Equal(t, http.StatusOK, w.Code)
}
