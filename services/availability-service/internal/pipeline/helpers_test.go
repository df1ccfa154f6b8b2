package pipeline

import (
	"context"
	"sync"

	"github.com/b1rigu/ZoomScheduleLister/internal/models"
)

// fakeAPI is an in-memory zoom.API. Tokens map to user lists, user ids map
// to meeting lists, and every exchange is recorded for assertions.
type fakeAPI struct {
	mu sync.Mutex

	tokenResp models.ZoomTokenResponse
	tokenErr  error

	accountCredCalls []string // account ids
	refreshCalls     []string // refresh tokens

	usersByToken map[string][]models.ZoomUser
	usersErr     error

	meetingsByUser map[string][]models.ZoomMeeting
	meetingsErr    map[string]error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		usersByToken:   make(map[string][]models.ZoomUser),
		meetingsByUser: make(map[string][]models.ZoomMeeting),
		meetingsErr:    make(map[string]error),
	}
}

func (f *fakeAPI) ExchangeAccountCredentials(ctx context.Context, clientID, clientSecret, accountID string) (models.ZoomTokenResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.accountCredCalls = append(f.accountCredCalls, accountID)
	return f.tokenResp, f.tokenErr
}

func (f *fakeAPI) ExchangeRefreshToken(ctx context.Context, clientID, clientSecret, refreshToken string) (models.ZoomTokenResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.refreshCalls = append(f.refreshCalls, refreshToken)
	return f.tokenResp, f.tokenErr
}

func (f *fakeAPI) ExchangeAuthorizationCode(ctx context.Context, clientID, clientSecret, code, redirectURI string) (models.ZoomTokenResponse, error) {
	return f.tokenResp, f.tokenErr
}

func (f *fakeAPI) ListActiveUsers(ctx context.Context, accessToken string) ([]models.ZoomUser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.usersErr != nil {
		return nil, f.usersErr
	}
	return f.usersByToken[accessToken], nil
}

func (f *fakeAPI) GetAccountOwner(ctx context.Context, accessToken string) (models.ZoomAccountOwner, error) {
	return models.ZoomAccountOwner{}, nil
}

func (f *fakeAPI) ListUpcomingMeetings(ctx context.Context, accessToken, userID string) ([]models.ZoomMeeting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.meetingsErr[userID]; err != nil {
		return nil, err
	}
	return f.meetingsByUser[userID], nil
}

func (f *fakeAPI) exchangeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.accountCredCalls) + len(f.refreshCalls)
}
