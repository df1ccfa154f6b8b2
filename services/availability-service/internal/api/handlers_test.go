package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b1rigu/ZoomScheduleLister/internal/models"
	"github.com/b1rigu/ZoomScheduleLister/services/availability-service/internal/pipeline"
	"github.com/b1rigu/ZoomScheduleLister/services/availability-service/internal/store"
)

// stubZoom is a canned-response zoom.API for handler tests.
type stubZoom struct {
	tokenResp models.ZoomTokenResponse
	tokenErr  error
	owner     models.ZoomAccountOwner
	users     map[string][]models.ZoomUser
	meetings  map[string][]models.ZoomMeeting
}

func (s *stubZoom) ExchangeAccountCredentials(ctx context.Context, clientID, clientSecret, accountID string) (models.ZoomTokenResponse, error) {
	return s.tokenResp, s.tokenErr
}

func (s *stubZoom) ExchangeRefreshToken(ctx context.Context, clientID, clientSecret, refreshToken string) (models.ZoomTokenResponse, error) {
	return s.tokenResp, s.tokenErr
}

func (s *stubZoom) ExchangeAuthorizationCode(ctx context.Context, clientID, clientSecret, code, redirectURI string) (models.ZoomTokenResponse, error) {
	return s.tokenResp, s.tokenErr
}

func (s *stubZoom) ListActiveUsers(ctx context.Context, accessToken string) ([]models.ZoomUser, error) {
	return s.users[accessToken], nil
}

func (s *stubZoom) GetAccountOwner(ctx context.Context, accessToken string) (models.ZoomAccountOwner, error) {
	return s.owner, nil
}

func (s *stubZoom) ListUpcomingMeetings(ctx context.Context, accessToken, userID string) ([]models.ZoomMeeting, error) {
	return s.meetings[userID], nil
}

func newTestRouter(t *testing.T, st store.Store, zoomAPI *stubZoom) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	service := pipeline.NewService(st, zoomAPI, pipeline.Config{Interval: time.Millisecond}, zerolog.Nop())
	handler := NewHandler(st, zoomAPI, service, OAuthConfig{
		AuthorizeURL: "https://zoom.example/oauth/authorize",
		ClientID:     "app-client",
		ClientSecret: "app-secret",
		RedirectURI:  "https://self.example/api/oauth/callback",
	}, zerolog.Nop())

	engine := gin.New()
	handler.Register(engine)
	return engine
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAddIntegration(t *testing.T) {
	st := store.NewMemoryStore()
	zoomAPI := &stubZoom{
		tokenResp: models.ZoomTokenResponse{AccessToken: "tok", ExpiresIn: 3600},
		owner:     models.ZoomAccountOwner{ID: "acct-1", Email: "admin@x.com"},
	}
	router := newTestRouter(t, st, zoomAPI)

	rec := doJSON(t, router, http.MethodPost, "/api/integrations", map[string]string{
		"account_id":    "acct-1",
		"client_id":     "client-1",
		"client_secret": "secret-1",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	integrations, err := st.ListIntegrations(context.Background())
	require.NoError(t, err)
	require.Len(t, integrations, 1)
	assert.Equal(t, "admin@x.com", integrations[0].AdminEmail)
	assert.Equal(t, "tok", integrations[0].AccessToken)

	t.Run("duplicate account conflicts", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodPost, "/api/integrations", map[string]string{
			"account_id":    "acct-1",
			"client_id":     "client-1",
			"client_secret": "secret-1",
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestAddIntegrationValidation(t *testing.T) {
	router := newTestRouter(t, store.NewMemoryStore(), &stubZoom{})

	rec := doJSON(t, router, http.MethodPost, "/api/integrations", map[string]string{
		"account_id": "acct-1",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddIntegrationBadCredentials(t *testing.T) {
	zoomAPI := &stubZoom{tokenErr: errors.New("invalid_client")}
	router := newTestRouter(t, store.NewMemoryStore(), zoomAPI)

	rec := doJSON(t, router, http.MethodPost, "/api/integrations", map[string]string{
		"account_id":    "acct-1",
		"client_id":     "client-1",
		"client_secret": "wrong",
	})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestDisconnect(t *testing.T) {
	st := store.NewMemoryStore()
	integ := store.Integration{ID: uuid.New(), AccountID: "acct-1", AdminEmail: "admin@x.com"}
	_, err := st.CreateIntegration(context.Background(), integ)
	require.NoError(t, err)

	router := newTestRouter(t, st, &stubZoom{})

	rec := doJSON(t, router, http.MethodDelete, "/api/integrations/"+integ.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, "/api/integrations/"+integ.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodDelete, "/api/integrations/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAvailabilityEndpoint(t *testing.T) {
	st := store.NewMemoryStore()
	integ := store.Integration{
		ID:          uuid.New(),
		AccountID:   "acct-1",
		AdminEmail:  "admin@x.com",
		AccessToken: "tok",
		TokenExpiry: time.Now().Add(time.Hour),
	}
	_, err := st.CreateIntegration(context.Background(), integ)
	require.NoError(t, err)

	zoomAPI := &stubZoom{
		users: map[string][]models.ZoomUser{
			"tok": {
				{ID: "u-alice", Email: "alice@x.com"},
				{ID: "u-bob", Email: "bob@x.com"},
			},
		},
		meetings: map[string][]models.ZoomMeeting{
			"u-alice": {{StartTime: "2024-06-10T14:00:00Z", Duration: 30}},
		},
	}
	router := newTestRouter(t, st, zoomAPI)

	// The first availability request triggers a refresh because no
	// snapshot exists yet.
	rec := doJSON(t, router, http.MethodGet,
		"/api/availability?start=2024-06-10T14:15:00Z&end=2024-06-10T14:45:00Z", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		AvailableUsers []string `json:"available_users"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"bob@x.com"}, resp.AvailableUsers)

	t.Run("duration shorthand", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet,
			"/api/availability?start=2024-06-10T14:30:00Z&duration=30", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			AvailableUsers []string `json:"available_users"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.ElementsMatch(t, []string{"alice@x.com", "bob@x.com"}, resp.AvailableUsers)
	})

	t.Run("missing start is rejected", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/api/availability", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("end before start is rejected", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet,
			"/api/availability?start=2024-06-10T15:00:00Z&end=2024-06-10T14:00:00Z", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestListIntegrationsIncludesSnapshotStats(t *testing.T) {
	st := store.NewMemoryStore()
	integ := store.Integration{
		ID:          uuid.New(),
		AccountID:   "acct-1",
		AdminEmail:  "admin@x.com",
		AccessToken: "tok",
		TokenExpiry: time.Now().Add(time.Hour),
	}
	_, err := st.CreateIntegration(context.Background(), integ)
	require.NoError(t, err)

	zoomAPI := &stubZoom{
		users: map[string][]models.ZoomUser{
			"tok": {{ID: "u-1", Email: "user@x.com"}},
		},
		meetings: map[string][]models.ZoomMeeting{
			"u-1": {{StartTime: "2024-06-10T14:00:00Z", Duration: 30}},
		},
	}
	router := newTestRouter(t, st, zoomAPI)

	// Populate the snapshot first.
	rec := doJSON(t, router, http.MethodPost, "/api/refresh", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/integrations", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Integrations []struct {
			AdminEmail       string `json:"admin_email"`
			Users            int    `json:"users"`
			UpcomingMeetings int    `json:"upcoming_meetings"`
		} `json:"integrations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Integrations, 1)
	assert.Equal(t, "admin@x.com", resp.Integrations[0].AdminEmail)
	assert.Equal(t, 1, resp.Integrations[0].Users)
	assert.Equal(t, 1, resp.Integrations[0].UpcomingMeetings)
}

func TestAuthorizeRedirect(t *testing.T) {
	router := newTestRouter(t, store.NewMemoryStore(), &stubZoom{})

	rec := doJSON(t, router, http.MethodGet, "/api/oauth/authorize", nil)
	require.Equal(t, http.StatusTemporaryRedirect, rec.Code)

	location := rec.Header().Get("Location")
	assert.Contains(t, location, "https://zoom.example/oauth/authorize")
	assert.Contains(t, location, "client_id=app-client")
	assert.Contains(t, location, "response_type=code")
}

func TestOAuthCallback(t *testing.T) {
	st := store.NewMemoryStore()
	zoomAPI := &stubZoom{
		tokenResp: models.ZoomTokenResponse{
			AccessToken:  "tok",
			RefreshToken: "refresh-1",
			ExpiresIn:    3600,
		},
		owner: models.ZoomAccountOwner{ID: "acct-1", Email: "admin@x.com"},
	}
	router := newTestRouter(t, st, zoomAPI)

	rec := doJSON(t, router, http.MethodGet, "/api/oauth/callback?code=auth-code", nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	integrations, err := st.ListIntegrations(context.Background())
	require.NoError(t, err)
	require.Len(t, integrations, 1)
	assert.Equal(t, "refresh-1", integrations[0].RefreshToken)

	t.Run("missing code is rejected", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/api/oauth/callback", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
