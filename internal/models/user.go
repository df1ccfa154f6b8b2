package models

// ZoomUser represents one active user under a connected Zoom account, as
// returned by the users-listing endpoint.
type ZoomUser struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// ZoomUsersResponse is the body of GET /v2/users.
// A large page_size is requested so a single page covers the whole account.
type ZoomUsersResponse struct {
	Users []ZoomUser `json:"users"`
}

// ZoomAccountOwner is the body of GET /v2/users/me, used to resolve the
// admin email displayed for a connected integration.
type ZoomAccountOwner struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}
