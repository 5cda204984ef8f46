package handlers

import (
	"net/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (suite *HandlersTestSuite) TestRegisterEndpoint() {
	t := suite.T()

	body := map[string]interface{}{
		"email":      "new.user@example.com",
		"password":   "supersecret1",
		"first_name": "New",
		"last_name":  "User",
		"headline":   "Junior Engineer",
	}

	w := suite.do("POST", "/api/v1/auth/register", body, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := suite.parseBody(w)
	assert.NotEmpty(t, resp["token"])
	user := resp["user"].(map[string]interface{})
	assert.Equal(t, "new.user@example.com", user["email"])
	assert.NotContains(t, user, "password_hash")

	// Same email again conflicts
	w = suite.do("POST", "/api/v1/auth/register", body, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Short password rejected up front
	body["email"] = "another@example.com"
	body["password"] = "short"
	w = suite.do("POST", "/api/v1/auth/register", body, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func (suite *HandlersTestSuite) TestLoginEndpoint() {
	t := suite.T()

	w := suite.do("POST", "/api/v1/auth/register", map[string]interface{}{
		"email":      "login.user@example.com",
		"password":   "supersecret1",
		"first_name": "Log",
		"last_name":  "In",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w = suite.do("POST", "/api/v1/auth/login", map[string]interface{}{
		"email":    "login.user@example.com",
		"password": "supersecret1",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, suite.parseBody(w)["token"])

	w = suite.do("POST", "/api/v1/auth/login", map[string]interface{}{
		"email":    "login.user@example.com",
		"password": "wrongpassword",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
