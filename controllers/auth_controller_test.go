package controllers_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	env := setupEnv(t)
	env.register(t, "alice", "a@x.com", "password1")

	token := env.login(t, "a@x.com", "password1")

	w, data := env.doJSON(t, http.MethodGet, "/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me struct {
		Username string `json:"username"`
		Email    string `json:"email"`
	}
	require.NoError(t, json.Unmarshal(data.Data, &me))
	assert.Equal(t, "alice", me.Username)
	assert.Equal(t, "a@x.com", me.Email)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	env := setupEnv(t)
	env.register(t, "alice", "a@x.com", "password1")

	w, _ := env.doJSON(t, http.MethodPost, "/registration", "", gin.H{
		"username": "alice",
		"email":    "other@x.com",
		"password": "password1",
		"confirm":  "password1",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := setupEnv(t)
	env.register(t, "alice", "a@x.com", "password1")

	w, _ := env.doJSON(t, http.MethodPost, "/registration", "", gin.H{
		"username": "bob",
		"email":    "a@x.com",
		"password": "password1",
		"confirm":  "password1",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRegisterValidation(t *testing.T) {
	env := setupEnv(t)

	cases := []struct {
		name string
		body gin.H
	}{
		{"username too short", gin.H{"username": "a", "email": "a@x.com", "password": "p1", "confirm": "p1"}},
		{"username too long", gin.H{"username": "abcdefghijk", "email": "a@x.com", "password": "p1", "confirm": "p1"}},
		{"bad email", gin.H{"username": "alice", "email": "not-an-email", "password": "p1", "confirm": "p1"}},
		{"password mismatch", gin.H{"username": "alice", "email": "a@x.com", "password": "p1", "confirm": "p2"}},
		{"missing password", gin.H{"username": "alice", "email": "a@x.com"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, _ := env.doJSON(t, http.MethodPost, "/registration", "", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestLoginWrongPassword(t *testing.T) {
	env := setupEnv(t)
	env.register(t, "alice", "a@x.com", "password1")

	w, _ := env.doJSON(t, http.MethodPost, "/login", "", gin.H{
		"email":    "a@x.com",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginUnknownEmail(t *testing.T) {
	env := setupEnv(t)
	w, _ := env.doJSON(t, http.MethodPost, "/login", "", gin.H{
		"email":    "nobody@x.com",
		"password": "whatever",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginNextEcho(t *testing.T) {
	env := setupEnv(t)
	env.register(t, "alice", "a@x.com", "password1")

	w, env2 := env.doJSON(t, http.MethodPost, "/login", "", gin.H{
		"email":    "a@x.com",
		"password": "password1",
		"next":     "/post/7",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var data struct {
		Next string `json:"next"`
	}
	require.NoError(t, json.Unmarshal(env2.Data, &data))
	assert.Equal(t, "/post/7", data.Next)
}

func TestLoginNextRejectsOffsite(t *testing.T) {
	env := setupEnv(t)
	env.register(t, "alice", "a@x.com", "password1")

	w, env2 := env.doJSON(t, http.MethodPost, "/login", "", gin.H{
		"email":    "a@x.com",
		"password": "password1",
		"next":     "https://evil.example/phish",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var data struct {
		Next string `json:"next"`
	}
	require.NoError(t, json.Unmarshal(env2.Data, &data))
	assert.Equal(t, "/home", data.Next)
}

func TestLogoutRevokesToken(t *testing.T) {
	env := setupEnv(t)
	env.register(t, "alice", "a@x.com", "password1")
	token := env.login(t, "a@x.com", "password1")

	w, _ := env.doJSON(t, http.MethodGet, "/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = env.doJSON(t, http.MethodGet, "/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHomeRequiresAuth(t *testing.T) {
	env := setupEnv(t)
	w, _ := env.doJSON(t, http.MethodGet, "/home", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUpdateAccountUniqueness(t *testing.T) {
	env := setupEnv(t)
	env.register(t, "alice", "a@x.com", "password1")
	env.register(t, "bob", "b@x.com", "password1")
	token := env.login(t, "b@x.com", "password1")

	// taking alice's username must conflict
	w := env.postForm(t, "/accounts", token, map[string]string{
		"username": "alice",
		"email":    "b@x.com",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// keeping your own values is not a conflict
	w = env.postForm(t, "/accounts", token, map[string]string{
		"username": "bob",
		"email":    "b@x.com",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	// a fresh username is fine
	w = env.postForm(t, "/accounts", token, map[string]string{
		"username": "bobby",
		"email":    "b@x.com",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "bobby", func() string {
		var u struct{ Username string }
		require.NoError(t, env.db.Table("users").Select("username").Where("email = ?", "b@x.com").Scan(&u).Error)
		return u.Username
	}())
}

func TestGetUserProfile(t *testing.T) {
	env := setupEnv(t)
	env.register(t, "alice", "a@x.com", "password1")
	token := env.login(t, "a@x.com", "password1")
	env.createPost(t, token, "Hello", "World")

	aliceID := env.userID(t, "alice")
	w, data := env.doJSON(t, http.MethodGet, pathUser(aliceID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var payload struct {
		User struct {
			Username string `json:"username"`
		} `json:"user"`
		Posts []struct {
			Title string `json:"title"`
		} `json:"posts"`
	}
	require.NoError(t, json.Unmarshal(data.Data, &payload))
	assert.Equal(t, "alice", payload.User.Username)
	require.Len(t, payload.Posts, 1)
	assert.Equal(t, "Hello", payload.Posts[0].Title)
}

func TestGetUserNotFound(t *testing.T) {
	env := setupEnv(t)
	env.register(t, "alice", "a@x.com", "password1")
	token := env.login(t, "a@x.com", "password1")

	w, _ := env.doJSON(t, http.MethodGet, "/user/9999", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
