package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/getstreetcred/backend/auth"
	"github.com/getstreetcred/backend/database"
	"github.com/getstreetcred/backend/events"
	"github.com/getstreetcred/backend/storage/sqlstore"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adminEmail = "admin@getstreetcred.com"

func init() {
	gin.SetMode(gin.TestMode)
}

// recordingPublisher keeps every published subject
type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
	fail     bool
}

func (p *recordingPublisher) Publish(_ context.Context, subject string, _ interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	if p.fail {
		return errors.New("broker down")
	}
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.subjects...)
}

var _ events.Publisher = (*recordingPublisher)(nil)

type testAPI struct {
	t      *testing.T
	router *gin.Engine
	events *recordingPublisher
}

func newTestAPI(t *testing.T, opts Options) *testAPI {
	t.Helper()
	db, err := database.Connect(database.Options{
		Driver: database.DriverSQLite,
		URL:    filepath.Join(t.TempDir(), "api.db"),
	})
	require.NoError(t, err)
	store := sqlstore.New(db)
	t.Cleanup(func() { store.Close() })

	pub := &recordingPublisher{}
	h := New(store, auth.NewTokens("test-secret", time.Hour), pub, opts)

	router := gin.New()
	RegisterRoutes(router.Group("/api"), h)
	return &testAPI{t: t, router: router, events: pub}
}

func defaultOptions() Options {
	return Options{AdminEmail: adminEmail, AllowAssertedIdentity: true}
}

// call sends a JSON request, optionally with a bearer token
func (a *testAPI) call(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

type session struct {
	ID    string
	Token string
	Role  string
}

func (a *testAPI) signup(email string) session {
	a.t.Helper()
	w := a.call(http.MethodPost, "/api/auth/signup", gin.H{"email": email, "password": "secret123"}, "")
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(a.t, w)
	return session{ID: body["id"].(string), Token: body["token"].(string), Role: body["role"].(string)}
}

func (a *testAPI) createProject(body gin.H, token string) map[string]interface{} {
	a.t.Helper()
	w := a.call(http.MethodPost, "/api/projects", body, token)
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return decode(a.t, w)
}

func testBridge() gin.H {
	return gin.H{
		"name":           "Test Bridge",
		"location":       "X",
		"description":    "Y",
		"imageUrl":       "http://img",
		"category":       "Bridge",
		"completionYear": 2020,
	}
}

func TestRatingScenario(t *testing.T) {
	api := newTestAPI(t, defaultOptions())
	u1 := api.signup("one@example.com")
	u2 := api.signup("two@example.com")

	project := api.createProject(testBridge(), "")
	assert.Equal(t, "0", project["rating"])
	assert.Equal(t, float64(0), project["ratingCount"])
	assert.Nil(t, project["userId"])
	projectID := project["id"].(string)

	w := api.call(http.MethodPost, "/api/ratings", gin.H{"projectId": projectID, "userId": u1.ID, "rating": 4}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "4.0", body["updatedProject"].(map[string]interface{})["rating"])

	w = api.call(http.MethodPost, "/api/ratings", gin.H{"projectId": projectID, "userId": u2.ID, "rating": 5, "review": "great"}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body = decode(t, w)

	rating := body["rating"].(map[string]interface{})
	assert.Equal(t, projectID, rating["projectId"])
	assert.Equal(t, u2.ID, rating["userId"])
	assert.Equal(t, "great", rating["review"])

	updated := body["updatedProject"].(map[string]interface{})
	assert.Equal(t, "4.5", updated["rating"])
	assert.Equal(t, float64(2), updated["ratingCount"])

	w = api.call(http.MethodGet, "/api/projects/"+projectID+"/ratings", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var ratings []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ratings))
	assert.Len(t, ratings, 2)

	assert.Contains(t, api.events.published(), events.SubjectRatingSubmitted)
}

func TestSignup_Roles(t *testing.T) {
	api := newTestAPI(t, defaultOptions())

	admin := api.signup(" Admin@GetStreetCred.com")
	assert.Equal(t, "admin", admin.Role)
	assert.NotEmpty(t, admin.Token)

	user := api.signup("someone@example.com")
	assert.Equal(t, "user", user.Role)

	assert.Contains(t, api.events.published(), events.SubjectUserCreated)
}

func TestSignup_Validation(t *testing.T) {
	api := newTestAPI(t, defaultOptions())

	w := api.call(http.MethodPost, "/api/auth/signup", gin.H{"email": "  ", "password": "x"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, KindValidation, decode(t, w)["kind"])

	api.signup("dup@example.com")
	w = api.call(http.MethodPost, "/api/auth/signup", gin.H{"email": "DUP@example.com", "password": "other"}, "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, KindConflict, decode(t, w)["kind"])
}

func TestSignin_NormalizesUsername(t *testing.T) {
	api := newTestAPI(t, defaultOptions())

	w := api.call(http.MethodPost, "/api/auth/signup", gin.H{"email": "Foo@Bar.com ", "password": " secret123 "}, "")
	require.Equal(t, http.StatusCreated, w.Code)
	created := decode(t, w)
	assert.Equal(t, "foo@bar.com", created["email"])
	assert.NotContains(t, created, "password")

	w = api.call(http.MethodPost, "/api/auth/signin", gin.H{"email": "foo@bar.com", "password": "secret123"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	signedIn := decode(t, w)
	assert.Equal(t, created["id"], signedIn["id"])
	assert.NotEmpty(t, signedIn["token"])

	w = api.call(http.MethodPost, "/api/auth/signin", gin.H{"email": "foo@bar.com", "password": "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, KindUnauthorized, decode(t, w)["kind"])

	w = api.call(http.MethodPost, "/api/auth/signin", gin.H{"email": "nobody@bar.com", "password": "secret123"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateProject_IgnoresClientAggregate(t *testing.T) {
	api := newTestAPI(t, defaultOptions())
	owner := api.signup("owner@example.com")

	body := testBridge()
	body["rating"] = "5.0"
	body["ratingCount"] = 99
	project := api.createProject(body, owner.Token)

	assert.Equal(t, "0", project["rating"])
	assert.Equal(t, float64(0), project["ratingCount"])
	assert.Equal(t, owner.ID, project["userId"])
	assert.Contains(t, api.events.published(), events.SubjectProjectCreated)
}

func TestCreateProject_Validation(t *testing.T) {
	api := newTestAPI(t, defaultOptions())

	body := testBridge()
	delete(body, "name")
	w := api.call(http.MethodPost, "/api/projects", body, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, KindValidation, decode(t, w)["kind"])

	body = testBridge()
	body["completionYear"] = "soon"
	w = api.call(http.MethodPost, "/api/projects", body, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateProject_CompletionYearRange(t *testing.T) {
	api := newTestAPI(t, defaultOptions())

	for _, year := range []int{-42, 0, 999, 2101} {
		body := testBridge()
		body["completionYear"] = year
		w := api.call(http.MethodPost, "/api/projects", body, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, "year %d", year)
		assert.Equal(t, KindValidation, decode(t, w)["kind"])
	}

	body := testBridge()
	body["completionYear"] = 1000
	assert.Equal(t, float64(1000), api.createProject(body, "")["completionYear"])
}

func TestUpdateProject_CompletionYearRange(t *testing.T) {
	api := newTestAPI(t, defaultOptions())
	owner := api.signup("owner@example.com")
	project := api.createProject(testBridge(), owner.Token)
	path := "/api/projects/" + project["id"].(string)

	for _, year := range []int{0, -42, 2101} {
		w := api.call(http.MethodPatch, path, gin.H{"completionYear": year}, owner.Token)
		assert.Equal(t, http.StatusBadRequest, w.Code, "year %d", year)
		assert.Equal(t, KindValidation, decode(t, w)["kind"])
	}

	w := api.call(http.MethodGet, path, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2020), decode(t, w)["completionYear"])
}

func TestCreateProject_AssertedOwner(t *testing.T) {
	api := newTestAPI(t, defaultOptions())
	owner := api.signup("owner@example.com")

	body := testBridge()
	body["userId"] = owner.ID
	project := api.createProject(body, "")
	assert.Equal(t, owner.ID, project["userId"])

	body["userId"] = "no-such-user"
	project = api.createProject(body, "")
	assert.Nil(t, project["userId"])
}

func TestGetProject_Idempotent(t *testing.T) {
	api := newTestAPI(t, defaultOptions())
	project := api.createProject(testBridge(), "")
	path := "/api/projects/" + project["id"].(string)

	first := api.call(http.MethodGet, path, nil, "")
	second := api.call(http.MethodGet, path, nil, "")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())

	w := api.call(http.MethodGet, "/api/projects/missing", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, KindNotFound, decode(t, w)["kind"])
}

func TestListings(t *testing.T) {
	api := newTestAPI(t, defaultOptions())
	owner := api.signup("owner@example.com")

	api.createProject(testBridge(), owner.Token)
	tower := testBridge()
	tower["name"] = "Tower"
	tower["category"] = "Tower"
	api.createProject(tower, "")

	var list []map[string]interface{}

	w := api.call(http.MethodGet, "/api/projects", nil, "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 2)

	w = api.call(http.MethodGet, "/api/projects/category/Tower", nil, "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Tower", list[0]["name"])

	w = api.call(http.MethodGet, "/api/user-projects/"+owner.ID, nil, "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Test Bridge", list[0]["name"])

	w = api.call(http.MethodGet, "/api/projects/category/Nothing", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestUpdateProject_Authorization(t *testing.T) {
	api := newTestAPI(t, defaultOptions())
	owner := api.signup("owner@example.com")
	other := api.signup("other@example.com")
	admin := api.signup(adminEmail)

	project := api.createProject(testBridge(), owner.Token)
	path := "/api/projects/" + project["id"].(string)
	before := api.call(http.MethodGet, path, nil, "").Body.String()

	w := api.call(http.MethodPatch, path, gin.H{"name": "Hijacked"}, other.Token)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, KindForbidden, decode(t, w)["kind"])

	w = api.call(http.MethodPatch, path, gin.H{"userId": other.ID, "userRole": "admin", "name": "Hijacked"}, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.call(http.MethodPatch, path, gin.H{"name": "Hijacked"}, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	assert.Equal(t, before, api.call(http.MethodGet, path, nil, "").Body.String())

	w = api.call(http.MethodPatch, path, gin.H{"name": "Renamed", "rating": "5.0"}, owner.Token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode(t, w)
	assert.Equal(t, "Renamed", updated["name"])
	assert.Equal(t, "X", updated["location"])
	assert.Equal(t, "0", updated["rating"])

	w = api.call(http.MethodPatch, path, gin.H{"userId": owner.ID, "category": "Tunnel"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Tunnel", decode(t, w)["category"])

	w = api.call(http.MethodPatch, path, gin.H{"completionYear": 2030}, admin.Token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2030), decode(t, w)["completionYear"])

	w = api.call(http.MethodPatch, "/api/projects/missing", gin.H{"name": "x"}, admin.Token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateProject_OwnerlessNeedsAdmin(t *testing.T) {
	api := newTestAPI(t, defaultOptions())
	user := api.signup("user@example.com")

	project := api.createProject(testBridge(), "")
	w := api.call(http.MethodPatch, "/api/projects/"+project["id"].(string), gin.H{"name": "Mine"}, user.Token)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestDeleteProject(t *testing.T) {
	api := newTestAPI(t, defaultOptions())
	owner := api.signup("owner@example.com")
	other := api.signup("other@example.com")

	project := api.createProject(testBridge(), owner.Token)
	path := "/api/projects/" + project["id"].(string)

	w := api.call(http.MethodDelete, path, gin.H{"userId": other.ID, "userRole": "admin"}, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, http.StatusOK, api.call(http.MethodGet, path, nil, "").Code)

	w = api.call(http.MethodPost, "/api/ratings", gin.H{"projectId": project["id"], "userId": other.ID, "rating": 2}, "")
	require.Equal(t, http.StatusCreated, w.Code)

	w = api.call(http.MethodDelete, path, nil, owner.Token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())

	assert.Equal(t, http.StatusNotFound, api.call(http.MethodGet, path, nil, "").Code)
	assert.JSONEq(t, "[]", api.call(http.MethodGet, path+"/ratings", nil, "").Body.String())
	assert.Contains(t, api.events.published(), events.SubjectProjectDeleted)

	w = api.call(http.MethodDelete, path, nil, owner.Token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFeaturedProject(t *testing.T) {
	api := newTestAPI(t, defaultOptions())
	admin := api.signup(adminEmail)
	user := api.signup("user@example.com")

	w := api.call(http.MethodGet, "/api/featured-project", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	a := api.createProject(testBridge(), "")
	b := api.createProject(testBridge(), "")

	w = api.call(http.MethodPatch, "/api/projects/"+a["id"].(string)+"/feature", gin.H{"userRole": "admin"}, user.Token)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.call(http.MethodPatch, "/api/projects/"+a["id"].(string)+"/feature", gin.H{"userId": user.ID, "userRole": "admin"}, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.call(http.MethodPatch, "/api/projects/"+a["id"].(string)+"/feature", nil, admin.Token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.call(http.MethodPatch, "/api/projects/"+b["id"].(string)+"/feature", gin.H{"userId": admin.ID}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = api.call(http.MethodGet, "/api/featured-project", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	featured := decode(t, w)
	assert.Equal(t, b["id"], featured["id"])
	assert.Equal(t, true, featured["isFeatured"])

	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(api.call(http.MethodGet, "/api/projects", nil, "").Body.Bytes(), &list))
	count := 0
	for _, p := range list {
		if p["isFeatured"] == true {
			count++
		}
	}
	assert.Equal(t, 1, count)

	w = api.call(http.MethodPatch, "/api/projects/missing/feature", nil, admin.Token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubmitRating_Errors(t *testing.T) {
	api := newTestAPI(t, defaultOptions())
	u1 := api.signup("one@example.com")
	u2 := api.signup("two@example.com")
	project := api.createProject(testBridge(), "")
	projectID := project["id"].(string)

	tests := []struct {
		name   string
		body   gin.H
		token  string
		status int
		kind   string
	}{
		{"rating too high", gin.H{"projectId": projectID, "userId": u1.ID, "rating": 6}, "", http.StatusBadRequest, KindValidation},
		{"rating zero", gin.H{"projectId": projectID, "userId": u1.ID, "rating": 0}, "", http.StatusBadRequest, KindValidation},
		{"missing project id", gin.H{"userId": u1.ID, "rating": 3}, "", http.StatusBadRequest, KindValidation},
		{"missing user id", gin.H{"projectId": projectID, "rating": 3}, "", http.StatusBadRequest, KindValidation},
		{"unknown project", gin.H{"projectId": "missing", "userId": u1.ID, "rating": 3}, "", http.StatusNotFound, KindNotFound},
		{"unknown user", gin.H{"projectId": projectID, "userId": "ghost", "rating": 3}, "", http.StatusNotFound, KindNotFound},
		{"token mismatch", gin.H{"projectId": projectID, "userId": u2.ID, "rating": 3}, u1.Token, http.StatusForbidden, KindForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.call(http.MethodPost, "/api/ratings", tt.body, tt.token)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, tt.kind, decode(t, w)["kind"])
		})
	}

	w := api.call(http.MethodGet, "/api/projects/"+projectID, nil, "")
	after := decode(t, w)
	assert.Equal(t, "0", after["rating"])
	assert.Equal(t, float64(0), after["ratingCount"])

	w = api.call(http.MethodPost, "/api/ratings", gin.H{"projectId": projectID, "rating": 3}, u1.Token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, u1.ID, decode(t, w)["rating"].(map[string]interface{})["userId"])
}

func TestMe(t *testing.T) {
	api := newTestAPI(t, defaultOptions())
	user := api.signup("me@example.com")

	w := api.call(http.MethodGet, "/api/auth/me", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "null", w.Body.String())

	w = api.call(http.MethodGet, "/api/auth/me", nil, user.Token)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode(t, w)
	assert.Equal(t, user.ID, me["id"])
	assert.Equal(t, "me@example.com", me["email"])

	w = api.call(http.MethodGet, "/api/auth/me?userId="+user.ID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, user.ID, decode(t, w)["id"])

	w = api.call(http.MethodGet, "/api/auth/me?userId=ghost", nil, "")
	assert.Equal(t, "null", w.Body.String())

	w = api.call(http.MethodGet, "/api/auth/me", nil, "garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, KindUnauthorized, decode(t, w)["kind"])
}

func TestUpdateProfile(t *testing.T) {
	api := newTestAPI(t, defaultOptions())
	user := api.signup("me@example.com")
	other := api.signup("other@example.com")

	w := api.call(http.MethodPatch, "/api/user/profile", gin.H{"profilePictureUrl": "https://cdn/me.png"}, user.Token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "https://cdn/me.png", decode(t, w)["profilePictureUrl"])

	w = api.call(http.MethodPatch, "/api/user/profile", gin.H{"userId": user.ID, "profilePictureUrl": "not a url"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.call(http.MethodPatch, "/api/user/profile", gin.H{"userId": user.ID}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, KindValidation, decode(t, w)["kind"])

	w = api.call(http.MethodPatch, "/api/user/profile", gin.H{"userId": other.ID, "username": "x@example.com"}, user.Token)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.call(http.MethodPatch, "/api/user/profile", gin.H{"username": " OTHER@example.com"}, user.Token)
	assert.Equal(t, http.StatusConflict, w.Code)

	for _, body := range []gin.H{{"username": "   "}, {"password": ""}} {
		w = api.call(http.MethodPatch, "/api/user/profile", body, user.Token)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, KindValidation, decode(t, w)["kind"])
	}

	w = api.call(http.MethodPatch, "/api/user/profile", gin.H{"username": " New@Example.com ", "password": "changed1"}, user.Token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "new@example.com", decode(t, w)["email"])

	w = api.call(http.MethodPost, "/api/auth/signin", gin.H{"email": "new@example.com", "password": "changed1"}, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = api.call(http.MethodPatch, "/api/user/profile", gin.H{"profilePictureUrl": ""}, user.Token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, decode(t, w), "profilePictureUrl")

	assert.Contains(t, api.events.published(), events.SubjectUserUpdated)
}

func TestUpdateProfile_AdminUsernameReserved(t *testing.T) {
	api := newTestAPI(t, defaultOptions())
	user := api.signup("me@example.com")

	w := api.call(http.MethodPatch, "/api/user/profile", gin.H{"username": " Admin@GetStreetCred.com "}, user.Token)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, KindForbidden, decode(t, w)["kind"])

	w = api.call(http.MethodPatch, "/api/user/profile", gin.H{"userId": user.ID, "username": adminEmail}, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.call(http.MethodGet, "/api/auth/me", nil, user.Token)
	assert.Equal(t, "me@example.com", decode(t, w)["email"])

	admin := api.signup(adminEmail)
	assert.Equal(t, "admin", admin.Role)

	w = api.call(http.MethodPatch, "/api/user/profile", gin.H{"username": adminEmail, "password": "rotated1"}, admin.Token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, adminEmail, decode(t, w)["email"])
}

func TestAssertedIdentityDisabled(t *testing.T) {
	api := newTestAPI(t, Options{AdminEmail: adminEmail})
	user := api.signup("me@example.com")
	admin := api.signup(adminEmail)

	body := testBridge()
	body["userId"] = user.ID
	project := api.createProject(body, "")
	assert.Nil(t, project["userId"])

	w := api.call(http.MethodPost, "/api/ratings", gin.H{"projectId": project["id"], "userId": user.ID, "rating": 3}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.call(http.MethodPatch, "/api/projects/"+project["id"].(string)+"/feature", gin.H{"userId": admin.ID}, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.call(http.MethodPatch, "/api/user/profile", gin.H{"userId": user.ID, "username": "x@example.com"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.call(http.MethodGet, "/api/auth/me?userId="+user.ID, nil, "")
	assert.Equal(t, "null", w.Body.String())
}

func TestSeedProjects(t *testing.T) {
	api := newTestAPI(t, defaultOptions())
	admin := api.signup(adminEmail)
	user := api.signup("user@example.com")

	w := api.call(http.MethodPost, "/api/seed-projects", nil, user.Token)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = api.call(http.MethodPost, "/api/seed-projects", nil, admin.Token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "Successfully seeded 7 projects", body["message"])
	assert.Len(t, body["projects"], 7)
}

func TestPublishFailureDoesNotFailRequest(t *testing.T) {
	api := newTestAPI(t, defaultOptions())
	api.events.fail = true

	project := api.createProject(testBridge(), "")
	assert.Equal(t, "Test Bridge", project["name"])
}
