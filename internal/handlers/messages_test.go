package handlers

import (
	"net/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/connectly/backend/internal/models"
)

func (suite *HandlersTestSuite) sendMessage(from, to *models.User, content string) map[string]interface{} {
	w := suite.do("POST", "/api/v1/messages", map[string]interface{}{
		"recipient_id": to.ID,
		"content":      content,
	}, from)
	require.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())
	return suite.parseBody(w)["message"].(map[string]interface{})
}

func (suite *HandlersTestSuite) TestSendMessage() {
	t := suite.T()

	msg := suite.sendMessage(suite.user, suite.other, "hello there")
	assert.Equal(t, suite.user.ID, msg["sender_id"])
	assert.Equal(t, "text", msg["type"])

	expected := models.ConversationID(suite.user.ID, suite.other.ID)
	assert.Equal(t, expected, msg["conversation_id"])

	// Recipient got a notification
	var count int64
	suite.db.Model(&models.Notification{}).
		Where("user_id = ? AND type = ?", suite.other.ID, models.NotifMessage).
		Count(&count)
	assert.Equal(t, int64(1), count)
}

func (suite *HandlersTestSuite) TestSendMessageEdgeCases() {
	t := suite.T()

	// To self
	w := suite.do("POST", "/api/v1/messages", map[string]interface{}{
		"recipient_id": suite.user.ID,
		"content":      "note to self",
	}, suite.user)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// Unknown recipient
	w = suite.do("POST", "/api/v1/messages", map[string]interface{}{
		"recipient_id": "00000000-0000-0000-0000-000000000000",
		"content":      "anyone there",
	}, suite.user)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Empty content
	w = suite.do("POST", "/api/v1/messages", map[string]interface{}{
		"recipient_id": suite.other.ID,
		"content":      "",
	}, suite.user)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// file type needs a valid URL when given
	w = suite.do("POST", "/api/v1/messages", map[string]interface{}{
		"recipient_id": suite.other.ID,
		"content":      "see attached",
		"type":         "file",
		"file_url":     "not-a-url",
	}, suite.user)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestGetConversation() {
	t := suite.T()
	suite.sendMessage(suite.user, suite.other, "first")
	suite.sendMessage(suite.other, suite.user, "second")
	suite.sendMessage(suite.user, suite.other, "third")

	w := suite.do("GET", "/api/v1/messages/conversations/"+suite.other.ID, nil, suite.user)
	require.Equal(t, http.StatusOK, w.Code)

	resp := suite.parseBody(w)
	messages := resp["messages"].([]interface{})
	require.Len(t, messages, 3)
	// Newest first
	assert.Equal(t, "third", messages[0].(map[string]interface{})["content"])
	assert.Equal(t, models.ConversationID(suite.user.ID, suite.other.ID), resp["conversation_id"])
}

func (suite *HandlersTestSuite) TestGetConversations() {
	t := suite.T()
	third := suite.createUser("Tia", "Third")
	suite.sendMessage(suite.user, suite.other, "hey john")
	suite.sendMessage(third, suite.user, "hey jane")

	w := suite.do("GET", "/api/v1/messages/conversations", nil, suite.user)
	require.Equal(t, http.StatusOK, w.Code)

	conversations := suite.parseBody(w)["conversations"].([]interface{})
	require.Len(t, conversations, 2)

	byPeer := map[string]map[string]interface{}{}
	for _, raw := range conversations {
		conv := raw.(map[string]interface{})
		peer := conv["other_user"].(map[string]interface{})["id"].(string)
		byPeer[peer] = conv
	}

	// The message from third is unread for suite.user
	require.Contains(t, byPeer, third.ID)
	assert.Equal(t, float64(1), byPeer[third.ID]["unread_count"])

	// The one suite.user sent carries no unread for them
	require.Contains(t, byPeer, suite.other.ID)
	assert.Equal(t, float64(0), byPeer[suite.other.ID]["unread_count"])
}

func (suite *HandlersTestSuite) TestConversationsOrderedByLastActivity() {
	t := suite.T()
	third := suite.createUser("Tia", "Third")
	fourth := suite.createUser("Frank", "Fourth")

	suite.sendMessage(suite.user, suite.other, "oldest thread")
	suite.sendMessage(third, suite.user, "middle thread")
	suite.sendMessage(fourth, suite.user, "newest thread")
	// A reply bumps the oldest thread to the top
	suite.sendMessage(suite.other, suite.user, "bumped")

	w := suite.do("GET", "/api/v1/messages/conversations", nil, suite.user)
	require.Equal(t, http.StatusOK, w.Code)

	conversations := suite.parseBody(w)["conversations"].([]interface{})
	require.Len(t, conversations, 3)

	peers := make([]string, 0, len(conversations))
	for _, raw := range conversations {
		conv := raw.(map[string]interface{})
		peers = append(peers, conv["other_user"].(map[string]interface{})["id"].(string))
	}
	assert.Equal(t, []string{suite.other.ID, fourth.ID, third.ID}, peers)

	// Page boundaries follow the same order
	w = suite.do("GET", "/api/v1/messages/conversations?limit=2", nil, suite.user)
	require.Equal(t, http.StatusOK, w.Code)
	page := suite.parseBody(w)["conversations"].([]interface{})
	require.Len(t, page, 2)
	assert.Equal(t, suite.other.ID, page[0].(map[string]interface{})["other_user"].(map[string]interface{})["id"])

	w = suite.do("GET", "/api/v1/messages/conversations?page=2&limit=2", nil, suite.user)
	require.Equal(t, http.StatusOK, w.Code)
	page = suite.parseBody(w)["conversations"].([]interface{})
	require.Len(t, page, 1)
	assert.Equal(t, third.ID, page[0].(map[string]interface{})["other_user"].(map[string]interface{})["id"])
}

func (suite *HandlersTestSuite) TestMarkConversationRead() {
	t := suite.T()
	suite.sendMessage(suite.user, suite.other, "unread one")
	suite.sendMessage(suite.user, suite.other, "unread two")

	w := suite.do("POST", "/api/v1/messages/conversations/"+suite.user.ID+"/read", nil, suite.other)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, float64(2), suite.parseBody(w)["updated"])

	var unread int64
	suite.db.Model(&models.Message{}).
		Where("recipient_id = ? AND read_at IS NULL", suite.other.ID).
		Count(&unread)
	assert.Equal(t, int64(0), unread)

	// Idempotent
	w = suite.do("POST", "/api/v1/messages/conversations/"+suite.user.ID+"/read", nil, suite.other)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(0), suite.parseBody(w)["updated"])
}

func (suite *HandlersTestSuite) TestDeleteConversation() {
	t := suite.T()
	suite.sendMessage(suite.user, suite.other, "soon gone")
	suite.sendMessage(suite.other, suite.user, "me too")

	w := suite.do("DELETE", "/api/v1/messages/conversations/"+suite.other.ID, nil, suite.user)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), suite.parseBody(w)["deleted"])

	var remaining int64
	suite.db.Model(&models.Message{}).Count(&remaining)
	assert.Equal(t, int64(0), remaining)
}
