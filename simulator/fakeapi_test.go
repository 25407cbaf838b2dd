package simulator

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vpsweb/model"
)

func do(t *testing.T, api *API, method, target, token string, body any) (*httptest.ResponseRecorder, model.Envelope[json.RawMessage]) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	api.ServeHTTP(w, req)
	var env model.Envelope[json.RawMessage]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

func login(t *testing.T, api *API, username string) string {
	t.Helper()
	_, env := do(t, api, http.MethodPost, "/api/auth/login", "", map[string]string{"username": username, "password": "123456"})
	require.Equal(t, 200, env.Code)
	var res model.LoginResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	return res.Token
}

func TestLoginAndGuard(t *testing.T) {
	api := New()
	api.Seed()

	w, env := do(t, api, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 401, env.Code)

	_, env = do(t, api, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "admin", "password": "bad"})
	assert.Equal(t, 401, env.Code)
	assert.Equal(t, "Incorrect username or password", env.ErrMsg)

	alice := login(t, api, "alice")
	w, env = do(t, api, http.MethodGet, "/api/admin/users", alice, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, 403, env.Code)

	admin := login(t, api, "admin")
	_, env = do(t, api, http.MethodGet, "/api/admin/users?page=1&page_size=10", admin, nil)
	require.Equal(t, 200, env.Code)
	var users model.Page[model.User]
	require.NoError(t, json.Unmarshal(env.Data, &users))
	assert.Equal(t, 2, users.Total)
	assert.Equal(t, "admin", users.Items[0].Username)
}

func TestListVideosFilters(t *testing.T) {
	api := New()
	api.Seed()
	token := login(t, api, "admin")

	_, env := do(t, api, http.MethodGet, "/api/videos?status=2&page=1&page_size=10", token, nil)
	var page model.Page[model.Video]
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, 2, page.Total)
	for _, v := range page.Items {
		assert.Equal(t, model.VideoCompleted, v.Status)
	}

	_, env = do(t, api, http.MethodGet, "/api/videos?uploader=alice&page=2&page_size=2", token, nil)
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, 3, page.Total)
	assert.Len(t, page.Items, 1)
}

func TestAnalyzeProducesCurve(t *testing.T) {
	api := New()
	_, uid := api.Seed()
	id := api.AddVideo("fresh", uid, model.VideoPending)
	token := login(t, api, "alice")

	_, env := do(t, api, http.MethodGet, "/api/videos/analysis?id="+id, token, nil)
	var a model.Analysis
	require.NoError(t, json.Unmarshal(env.Data, &a))
	assert.Nil(t, a.Analysis)

	_, env = do(t, api, http.MethodPost, "/api/videos/analysis?id="+id, token, nil)
	require.Equal(t, 200, env.Code)

	_, env = do(t, api, http.MethodGet, "/api/videos/analysis?id="+id, token, nil)
	require.NoError(t, json.Unmarshal(env.Data, &a))
	require.NotNil(t, a.Analysis)
	assert.NotEmpty(t, a.Analysis.CurveData)
	assert.Equal(t, model.VideoCompleted, a.Video.Status)
}

func TestFailInjection(t *testing.T) {
	api := New()
	api.Seed()
	token := login(t, api, "admin")

	api.Fail("/admin/users/set-role", 500, "boom")
	w, env := do(t, api, http.MethodPost, "/api/admin/users/set-role?user_id=x", token, map[string]string{"role": "admin"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 500, env.Code)
	assert.Equal(t, "boom", env.ErrMsg)
	assert.Equal(t, 1, api.Hits("/admin/users/set-role"))

	api.Fail("/admin/users/set-role", 0, "")
	_, env = do(t, api, http.MethodPost, "/api/admin/users/set-role?user_id=x", token, map[string]string{"role": "admin"})
	assert.Equal(t, 404, env.Code)
}

func TestSetRoleAndDeleteUser(t *testing.T) {
	api := New()
	_, uid := api.Seed()
	token := login(t, api, "admin")

	_, env := do(t, api, http.MethodPost, "/api/admin/users/set-role?user_id="+uid, token, map[string]string{"role": "admin"})
	require.Equal(t, 200, env.Code)
	assert.Equal(t, model.RoleAdmin, api.UserRole(uid))

	_, env = do(t, api, http.MethodPost, "/api/admin/users/delete?user_id="+uid, token, nil)
	require.Equal(t, 200, env.Code)
	assert.Empty(t, api.UserRole(uid))

	_, env = do(t, api, http.MethodGet, "/api/videos", token, nil)
	var page model.Page[model.Video]
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, 1, page.Total)
}
