package pipeline

import (
	"context"
	"time"

	"github.com/b1rigu/ZoomScheduleLister/services/availability-service/internal/store"
	"github.com/b1rigu/ZoomScheduleLister/services/availability-service/internal/zoom"
)

// EnsureValidToken returns a usable access token for the integration. The
// cached token is reused while its expiry is strictly in the future relative
// to now; otherwise a fresh exchange runs, using the refresh-token grant
// when the integration stores one and the account_credentials grant
// otherwise.
//
// On a refresh the returned TokenUpdate describes what the caller must write
// back to the store; EnsureValidToken itself never touches persistence, and
// it never retries.
func EnsureValidToken(ctx context.Context, api zoom.API, integ store.Integration, now time.Time) (string, *store.TokenUpdate, error) {
	if integ.AccessToken != "" && integ.TokenExpiry.After(now) {
		return integ.AccessToken, nil, nil
	}

	token, err := exchange(ctx, api, integ)
	if err != nil {
		return "", nil, &zoom.TokenError{IntegrationID: integ.ID, Err: err}
	}

	update := &store.TokenUpdate{
		AccessToken:  token.accessToken,
		RefreshToken: token.refreshToken,
		Expiry:       now.Add(time.Duration(token.expiresIn) * time.Second),
	}

	return token.accessToken, update, nil
}

type exchangedToken struct {
	accessToken  string
	refreshToken string
	expiresIn    int
}

func exchange(ctx context.Context, api zoom.API, integ store.Integration) (exchangedToken, error) {
	if integ.RefreshToken != "" {
		resp, err := api.ExchangeRefreshToken(ctx, integ.ClientID, integ.ClientSecret, integ.RefreshToken)
		if err != nil {
			return exchangedToken{}, err
		}
		return exchangedToken{
			accessToken:  resp.AccessToken,
			refreshToken: resp.RefreshToken,
			expiresIn:    resp.ExpiresIn,
		}, nil
	}

	resp, err := api.ExchangeAccountCredentials(ctx, integ.ClientID, integ.ClientSecret, integ.AccountID)
	if err != nil {
		return exchangedToken{}, err
	}
	return exchangedToken{
		accessToken: resp.AccessToken,
		expiresIn:   resp.ExpiresIn,
	}, nil
}
