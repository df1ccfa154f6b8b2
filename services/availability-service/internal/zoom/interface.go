package zoom

import (
	"context"

	"github.com/b1rigu/ZoomScheduleLister/internal/models"
)

// API defines the Zoom endpoints the pipeline depends on. The pipeline and
// HTTP handlers are written against this interface so tests can substitute
// fakes without a network.
type API interface {
	// ExchangeAccountCredentials mints an access token via the
	// server-to-server account_credentials grant.
	ExchangeAccountCredentials(ctx context.Context, clientID, clientSecret, accountID string) (models.ZoomTokenResponse, error)

	// ExchangeRefreshToken trades a stored refresh token for a fresh access
	// token. The provider may rotate the refresh token in the response.
	ExchangeRefreshToken(ctx context.Context, clientID, clientSecret, refreshToken string) (models.ZoomTokenResponse, error)

	// ExchangeAuthorizationCode completes the OAuth-app connect flow.
	ExchangeAuthorizationCode(ctx context.Context, clientID, clientSecret, code, redirectURI string) (models.ZoomTokenResponse, error)

	// ListActiveUsers retrieves all active users of the account the token
	// belongs to.
	ListActiveUsers(ctx context.Context, accessToken string) ([]models.ZoomUser, error)

	// GetAccountOwner retrieves the identity of the account's admin user.
	GetAccountOwner(ctx context.Context, accessToken string) (models.ZoomAccountOwner, error)

	// ListUpcomingMeetings retrieves the upcoming meetings of one user in
	// provider-native form.
	ListUpcomingMeetings(ctx context.Context, accessToken, userID string) ([]models.ZoomMeeting, error)
}
