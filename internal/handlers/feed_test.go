package handlers

import (
	"net/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/connectly/backend/internal/models"
)

func (suite *HandlersTestSuite) feedPostIDs(as *models.User, path string) []string {
	w := suite.do("GET", path, nil, as)
	require.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())

	var ids []string
	for _, raw := range suite.parseBody(w)["posts"].([]interface{}) {
		ids = append(ids, raw.(map[string]interface{})["id"].(string))
	}
	return ids
}

func (suite *HandlersTestSuite) TestFeedShowsOwnAndConnectionPosts() {
	t := suite.T()
	suite.connect(suite.user, suite.other)

	mine := suite.createPost(suite.user, "my update")
	theirs := suite.createPost(suite.other, "their update")

	ids := suite.feedPostIDs(suite.user, "/api/v1/posts/feed")
	assert.ElementsMatch(t, []string{mine.ID, theirs.ID}, ids)
}

func (suite *HandlersTestSuite) TestFeedHidesStrangersQuietPosts() {
	t := suite.T()
	suite.createPost(suite.other, "quiet stranger post")

	ids := suite.feedPostIDs(suite.user, "/api/v1/posts/feed")
	assert.Empty(t, ids)
}

func (suite *HandlersTestSuite) TestFeedSurfacesTrendingPublicPosts() {
	t := suite.T()
	trending := suite.createPost(suite.other, "viral post")
	require.NoError(t, suite.db.Model(trending).Updates(map[string]interface{}{
		"like_count":       8,
		"share_count":      1,
		"engagement_score": 10,
	}).Error)

	ids := suite.feedPostIDs(suite.user, "/api/v1/posts/feed")
	assert.Equal(t, []string{trending.ID}, ids)
}

func (suite *HandlersTestSuite) TestFeedNeverLeaksConnectionsOnlyPosts() {
	t := suite.T()
	hidden := suite.createPost(suite.other, "members only")
	require.NoError(t, suite.db.Model(hidden).Updates(map[string]interface{}{
		"visibility":       models.VisibilityConnections,
		"engagement_score": 50,
	}).Error)

	// High engagement does not override visibility for strangers
	ids := suite.feedPostIDs(suite.user, "/api/v1/posts/feed")
	assert.Empty(t, ids)

	// Connections do see it
	suite.connect(suite.user, suite.other)
	ids = suite.feedPostIDs(suite.user, "/api/v1/posts/feed")
	assert.Equal(t, []string{hidden.ID}, ids)
}

func (suite *HandlersTestSuite) TestFeedShowsFollowedUsersPublicPosts() {
	t := suite.T()
	w := suite.do("POST", "/api/v1/users/"+suite.other.ID+"/follow", nil, suite.user)
	require.Equal(t, http.StatusOK, w.Code)

	followed := suite.createPost(suite.other, "from someone I follow")

	ids := suite.feedPostIDs(suite.user, "/api/v1/posts/feed")
	assert.Equal(t, []string{followed.ID}, ids)
}

func (suite *HandlersTestSuite) TestFeedPagination() {
	t := suite.T()
	for i := 0; i < 5; i++ {
		suite.createPost(suite.user, "post")
	}

	w := suite.do("GET", "/api/v1/posts/feed?page=1&limit=3", nil, suite.user)
	require.Equal(t, http.StatusOK, w.Code)
	resp := suite.parseBody(w)
	meta := resp["meta"].(map[string]interface{})
	assert.Len(t, resp["posts"], 3)
	assert.Equal(t, true, meta["has_more"])

	w = suite.do("GET", "/api/v1/posts/feed?page=2&limit=3", nil, suite.user)
	require.Equal(t, http.StatusOK, w.Code)
	resp = suite.parseBody(w)
	meta = resp["meta"].(map[string]interface{})
	assert.Len(t, resp["posts"], 2)
	assert.Equal(t, false, meta["has_more"])
}

func (suite *HandlersTestSuite) TestHashtagFeed() {
	t := suite.T()

	w := suite.do("POST", "/api/v1/posts", map[string]interface{}{
		"content": "Concurrency pattern in #golang",
	}, suite.other)
	require.Equal(t, http.StatusCreated, w.Code)
	tagged := suite.parseBody(w)["post"].(map[string]interface{})["id"].(string)

	suite.createPost(suite.other, "no tags here")

	ids := suite.feedPostIDs(suite.user, "/api/v1/posts/hashtag/golang")
	assert.Equal(t, []string{tagged}, ids)

	// Case-insensitive lookup and # prefix tolerated
	ids = suite.feedPostIDs(suite.user, "/api/v1/posts/hashtag/GOLANG")
	assert.Equal(t, []string{tagged}, ids)

	ids = suite.feedPostIDs(suite.user, "/api/v1/posts/hashtag/rust")
	assert.Empty(t, ids)
}
