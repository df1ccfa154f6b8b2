// Package api exposes the service over HTTP: connecting and disconnecting
// integrations, forcing aggregation runs, and querying availability.
package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/b1rigu/ZoomScheduleLister/services/availability-service/internal/pipeline"
	"github.com/b1rigu/ZoomScheduleLister/services/availability-service/internal/store"
	"github.com/b1rigu/ZoomScheduleLister/services/availability-service/internal/zoom"
)

const defaultWindowMinutes = 30

// OAuthConfig carries the app-level OAuth settings for the authorize
// redirect and code exchange.
type OAuthConfig struct {
	AuthorizeURL string
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

type Handler struct {
	store   store.Store
	zoomAPI zoom.API
	service *pipeline.Service
	oauth   OAuthConfig
	logger  zerolog.Logger
	now     func() time.Time
}

func NewHandler(st store.Store, zoomAPI zoom.API, service *pipeline.Service, oauth OAuthConfig, logger zerolog.Logger) *Handler {
	return &Handler{
		store:   st,
		zoomAPI: zoomAPI,
		service: service,
		oauth:   oauth,
		logger:  logger,
		now:     time.Now,
	}
}

// Register wires the routes onto the engine.
func (h *Handler) Register(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.GET("/availability", h.handleAvailability)
		api.POST("/refresh", h.handleRefresh)
		api.GET("/integrations", h.handleListIntegrations)
		api.POST("/integrations", h.handleAddIntegration)
		api.DELETE("/integrations/:id", h.handleDisconnect)
		api.GET("/oauth/authorize", h.handleAuthorize)
		api.GET("/oauth/callback", h.handleCallback)
	}
}

// handleAvailability answers "who is free in [start, end)" from the cached
// snapshot. The window is given as start plus either end or a duration in
// minutes (default 30, matching the UI's duration picker).
func (h *Handler) handleAvailability(c *gin.Context) {
	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or missing start, expected RFC3339"})
		return
	}

	var end time.Time
	if endStr := c.Query("end"); endStr != "" {
		end, err = time.Parse(time.RFC3339, endStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end, expected RFC3339"})
			return
		}
	} else {
		minutes := defaultWindowMinutes
		if durStr := c.Query("duration"); durStr != "" {
			minutes, err = strconv.Atoi(durStr)
			if err != nil || minutes <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid duration, expected positive minutes"})
				return
			}
		}
		end = start.Add(time.Duration(minutes) * time.Minute)
	}

	if !end.After(start) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end must be after start"})
		return
	}

	available, err := h.service.Available(start, end)
	if errors.Is(err, pipeline.ErrNoSnapshot) {
		if _, err := h.service.Refresh(c.Request.Context()); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		available, err = h.service.Available(start, end)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	snapshot := h.service.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"available_users": available,
		"window_start":    start,
		"window_end":      end,
		"snapshot_at":     snapshot.TakenAt,
		"warnings":        snapshot.Warnings,
	})
}

func (h *Handler) handleRefresh(c *gin.Context) {
	snapshot, err := h.service.Refresh(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, snapshot)
}

func (h *Handler) handleListIntegrations(c *gin.Context) {
	integrations, err := h.store.ListIntegrations(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// User and meeting counts come from the cached snapshot when one exists.
	type groupStats struct {
		users    int
		meetings int
	}
	stats := make(map[uuid.UUID]groupStats)
	if snapshot := h.service.Snapshot(); snapshot != nil {
		for _, group := range snapshot.Groups {
			gs := groupStats{users: len(group.Users)}
			for _, user := range group.Users {
				gs.meetings += len(user.Meetings)
			}
			stats[group.IntegrationID] = gs
		}
	}

	type integrationView struct {
		ID               uuid.UUID `json:"id"`
		AccountID        string    `json:"account_id"`
		AdminEmail       string    `json:"admin_email"`
		CreatedAt        time.Time `json:"created_at"`
		Users            int       `json:"users"`
		UpcomingMeetings int       `json:"upcoming_meetings"`
	}

	views := make([]integrationView, 0, len(integrations))
	for _, integ := range integrations {
		gs := stats[integ.ID]
		views = append(views, integrationView{
			ID:               integ.ID,
			AccountID:        integ.AccountID,
			AdminEmail:       integ.AdminEmail,
			CreatedAt:        integ.CreatedAt,
			Users:            gs.users,
			UpcomingMeetings: gs.meetings,
		})
	}

	c.JSON(http.StatusOK, gin.H{"integrations": views})
}

type addIntegrationRequest struct {
	AccountID    string `json:"account_id" binding:"required"`
	ClientID     string `json:"client_id" binding:"required"`
	ClientSecret string `json:"client_secret" binding:"required"`
}

// handleAddIntegration connects a server-to-server app: the credentials are
// validated by minting a token, the admin email is resolved, and the record
// is inserted unless the account is already connected.
func (h *Handler) handleAddIntegration(c *gin.Context) {
	var req addIntegrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "account_id, client_id and client_secret are required"})
		return
	}

	ctx := c.Request.Context()
	now := h.now()

	token, err := h.zoomAPI.ExchangeAccountCredentials(ctx, req.ClientID, req.ClientSecret, req.AccountID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": fmt.Sprintf("credential check failed: %v", err)})
		return
	}

	owner, err := h.zoomAPI.GetAccountOwner(ctx, token.AccessToken)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": fmt.Sprintf("failed to resolve account owner: %v", err)})
		return
	}

	integ := store.Integration{
		ID:           uuid.New(),
		AccountID:    req.AccountID,
		ClientID:     req.ClientID,
		ClientSecret: req.ClientSecret,
		AccessToken:  token.AccessToken,
		TokenExpiry:  now.Add(time.Duration(token.ExpiresIn) * time.Second),
		AdminEmail:   owner.Email,
		CreatedAt:    now,
	}

	created, err := h.store.CreateIntegration(ctx, integ)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !created {
		c.JSON(http.StatusConflict, gin.H{"error": "account already connected"})
		return
	}

	h.logger.Info().Str("admin_email", owner.Email).Msg("integration connected")
	c.JSON(http.StatusCreated, gin.H{"id": integ.ID, "admin_email": integ.AdminEmail})
}

func (h *Handler) handleDisconnect(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid integration id"})
		return
	}

	if err := h.store.DeleteIntegration(c.Request.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "integration not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

// handleAuthorize redirects the browser into the Zoom OAuth consent flow.
func (h *Handler) handleAuthorize(c *gin.Context) {
	authorizeURL := fmt.Sprintf("%s?response_type=code&client_id=%s&redirect_uri=%s",
		h.oauth.AuthorizeURL,
		url.QueryEscape(h.oauth.ClientID),
		url.QueryEscape(h.oauth.RedirectURI),
	)

	c.Redirect(http.StatusTemporaryRedirect, authorizeURL)
}

// handleCallback completes the OAuth-app flow: the authorization code is
// exchanged for a token pair and the integration is stored with its refresh
// token. The account owner's id doubles as the account key since the
// consent flow does not expose an account id.
func (h *Handler) handleCallback(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing code"})
		return
	}

	ctx := c.Request.Context()
	now := h.now()

	token, err := h.zoomAPI.ExchangeAuthorizationCode(ctx, h.oauth.ClientID, h.oauth.ClientSecret, code, h.oauth.RedirectURI)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": fmt.Sprintf("code exchange failed: %v", err)})
		return
	}

	owner, err := h.zoomAPI.GetAccountOwner(ctx, token.AccessToken)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": fmt.Sprintf("failed to resolve account owner: %v", err)})
		return
	}

	integ := store.Integration{
		ID:           uuid.New(),
		AccountID:    owner.ID,
		ClientID:     h.oauth.ClientID,
		ClientSecret: h.oauth.ClientSecret,
		RefreshToken: token.RefreshToken,
		AccessToken:  token.AccessToken,
		TokenExpiry:  now.Add(time.Duration(token.ExpiresIn) * time.Second),
		AdminEmail:   owner.Email,
		CreatedAt:    now,
	}

	created, err := h.store.CreateIntegration(ctx, integ)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !created {
		c.JSON(http.StatusConflict, gin.H{"error": "account already connected"})
		return
	}

	h.logger.Info().Str("admin_email", owner.Email).Msg("integration connected via oauth")
	c.JSON(http.StatusCreated, gin.H{"id": integ.ID, "admin_email": integ.AdminEmail})
}
