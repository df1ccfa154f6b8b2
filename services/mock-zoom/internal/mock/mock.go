// Package mock holds the in-memory state of the mock Zoom API: seeded
// accounts with users and upcoming meetings, plus the tokens issued to them.
package mock

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/b1rigu/ZoomScheduleLister/internal/models"
)

var (
	firstNames = []string{"John", "Jane", "Bob", "Alice", "Charlie", "Diana", "Eve", "Frank"}
	lastNames  = []string{"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis"}
	domains    = []string{"example.com", "company.com", "business.org", "enterprise.net"}

	// Seeded account state - maintained across calls
	accounts     map[string]*Account
	accountMutex sync.RWMutex

	// Issued tokens mapped back to their account
	tokens     map[string]issuedToken
	tokenMutex sync.RWMutex
)

// Account is one mock Zoom account with its S2S credentials, users, and
// per-user upcoming meetings.
type Account struct {
	AccountID    string                          `json:"account_id"`
	ClientID     string                          `json:"client_id"`
	ClientSecret string                          `json:"client_secret"`
	OwnerEmail   string                          `json:"owner_email"`
	Users        []models.ZoomUser               `json:"users"`
	Meetings     map[string][]models.ZoomMeeting `json:"meetings"`
}

type issuedToken struct {
	accountID string
	expiresAt time.Time
}

const tokenTTL = time.Hour

func init() {
	accounts = make(map[string]*Account)
	tokens = make(map[string]issuedToken)

	// Two default accounts so the pipeline has something to aggregate
	// out of the box.
	Seed(generateAccount("acme", 5))
	Seed(generateAccount("globex", 3))
}

func generateAccount(name string, numUsers int) *Account {
	account := &Account{
		AccountID:    fmt.Sprintf("%s-account", name),
		ClientID:     fmt.Sprintf("%s-client", name),
		ClientSecret: fmt.Sprintf("%s-secret", name),
		OwnerEmail:   fmt.Sprintf("admin@%s.com", name),
		Meetings:     make(map[string][]models.ZoomMeeting),
	}

	for i := 0; i < numUsers; i++ {
		user := models.ZoomUser{
			ID:          uuid.NewString(),
			Email:       fmt.Sprintf("%s.%s.%d@%s", firstNames[i%len(firstNames)], lastNames[i%len(lastNames)], i, domains[i%len(domains)]),
			DisplayName: fmt.Sprintf("%s %s", firstNames[i%len(firstNames)], lastNames[i%len(lastNames)]),
		}
		account.Users = append(account.Users, user)
		account.Meetings[user.ID] = generateMeetings()
	}

	return account
}

// generateMeetings produces 0-3 upcoming meetings within the next two days.
func generateMeetings() []models.ZoomMeeting {
	numMeetings := rand.Intn(4)
	meetings := make([]models.ZoomMeeting, 0, numMeetings)

	for i := 0; i < numMeetings; i++ {
		start := time.Now().
			Add(time.Duration(rand.Intn(48)) * time.Hour).
			Truncate(time.Minute)
		meetings = append(meetings, models.ZoomMeeting{
			StartTime: start.UTC().Format(time.RFC3339),
			Duration:  15 * (1 + rand.Intn(4)), // 15-60 minutes
		})
	}

	return meetings
}

// Seed installs or replaces an account fixture.
func Seed(account *Account) {
	accountMutex.Lock()
	defer accountMutex.Unlock()

	if account.Meetings == nil {
		account.Meetings = make(map[string][]models.ZoomMeeting)
	}
	accounts[account.AccountID] = account
}

// Authenticate validates client credentials against the seeded accounts and
// issues a bearer token for the matched account.
func Authenticate(clientID, clientSecret, accountID string) (models.ZoomTokenResponse, error) {
	accountMutex.RLock()
	defer accountMutex.RUnlock()

	var match *Account
	for _, account := range accounts {
		if account.ClientID != clientID || account.ClientSecret != clientSecret {
			continue
		}
		if accountID != "" && account.AccountID != accountID {
			continue
		}
		match = account
		break
	}
	if match == nil {
		return models.ZoomTokenResponse{}, fmt.Errorf("invalid client credentials")
	}

	token := uuid.NewString()
	tokenMutex.Lock()
	tokens[token] = issuedToken{accountID: match.AccountID, expiresAt: time.Now().Add(tokenTTL)}
	tokenMutex.Unlock()

	return models.ZoomTokenResponse{
		AccessToken: token,
		ExpiresIn:   int(tokenTTL.Seconds()),
	}, nil
}

// Resolve maps a bearer token back to its account.
func Resolve(token string) (*Account, error) {
	tokenMutex.RLock()
	issued, ok := tokens[token]
	tokenMutex.RUnlock()

	if !ok || time.Now().After(issued.expiresAt) {
		return nil, fmt.Errorf("invalid or expired token")
	}

	accountMutex.RLock()
	defer accountMutex.RUnlock()

	account, ok := accounts[issued.accountID]
	if !ok {
		return nil, fmt.Errorf("account no longer exists")
	}

	return account, nil
}

// UserMeetings returns the upcoming meetings of one user of the account.
func (a *Account) UserMeetings(userID string) []models.ZoomMeeting {
	accountMutex.RLock()
	defer accountMutex.RUnlock()

	meetings, ok := a.Meetings[userID]
	if !ok {
		return []models.ZoomMeeting{}
	}

	return meetings
}
