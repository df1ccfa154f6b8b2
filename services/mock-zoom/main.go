package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/b1rigu/ZoomScheduleLister/internal/models"
	"github.com/b1rigu/ZoomScheduleLister/services/mock-zoom/internal/mock"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	r := gin.Default()

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// OAuth token endpoint
	r.POST("/oauth/token", handleToken)

	// Zoom API endpoints
	v2 := r.Group("/v2")
	{
		v2.GET("/users", handleListUsers)
		v2.GET("/users/me", handleAccountOwner)
		v2.GET("/users/:userId/meetings", handleUserMeetings)
	}

	// Admin endpoints for testing
	admin := r.Group("/admin")
	{
		admin.POST("/seed", handleSeed)
	}

	addr := fmt.Sprintf(":%s", port)
	log.Printf("Starting mock Zoom API server on %s", addr)
	log.Fatal(http.ListenAndServe(addr, r))
}

func handleToken(c *gin.Context) {
	clientID, clientSecret, ok := c.Request.BasicAuth()
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ZoomAPIError{Error: "invalid_client", Reason: "missing basic auth"})
		return
	}

	grantType := c.PostForm("grant_type")
	switch grantType {
	case "account_credentials", "refresh_token", "authorization_code":
	default:
		c.JSON(http.StatusBadRequest, models.ZoomAPIError{Error: "unsupported_grant_type", Reason: grantType})
		return
	}

	// All grants resolve against the seeded client credentials; the
	// account_credentials grant additionally pins the account id.
	token, err := mock.Authenticate(clientID, clientSecret, c.PostForm("account_id"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, models.ZoomAPIError{Error: "invalid_client", Reason: err.Error()})
		return
	}

	if grantType != "account_credentials" {
		token.RefreshToken = "mock-refresh-" + token.AccessToken
	}

	c.JSON(http.StatusOK, token)
}

func resolveBearer(c *gin.Context) (*mock.Account, bool) {
	auth := c.GetHeader("Authorization")
	token := strings.TrimPrefix(auth, "Bearer ")
	if token == "" || token == auth {
		c.JSON(http.StatusUnauthorized, models.ZoomAPIError{Error: "invalid_token", Reason: "missing bearer token"})
		return nil, false
	}

	account, err := mock.Resolve(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, models.ZoomAPIError{Error: "invalid_token", Reason: err.Error()})
		return nil, false
	}

	return account, true
}

func handleListUsers(c *gin.Context) {
	account, ok := resolveBearer(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, models.ZoomUsersResponse{Users: account.Users})
}

func handleAccountOwner(c *gin.Context) {
	account, ok := resolveBearer(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, models.ZoomAccountOwner{ID: account.AccountID, Email: account.OwnerEmail})
}

func handleUserMeetings(c *gin.Context) {
	account, ok := resolveBearer(c)
	if !ok {
		return
	}

	meetings := account.UserMeetings(c.Param("userId"))
	c.JSON(http.StatusOK, models.ZoomMeetingsResponse{Meetings: meetings})
}

func handleSeed(c *gin.Context) {
	var account mock.Account
	if err := c.ShouldBindJSON(&account); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if account.AccountID == "" || account.ClientID == "" || account.ClientSecret == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "account_id, client_id and client_secret are required"})
		return
	}

	mock.Seed(&account)
	c.JSON(http.StatusOK, gin.H{"seeded": account.AccountID, "users": len(account.Users)})
}
