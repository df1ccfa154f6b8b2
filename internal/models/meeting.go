package models

// ZoomMeeting is one upcoming meeting in provider-native form: an ISO8601
// start time plus a duration in minutes. Normalization into absolute
// start/end instants happens in the pipeline, not here.
type ZoomMeeting struct {
	StartTime string `json:"start_time"`
	Duration  int    `json:"duration"`
}

// ZoomMeetingsResponse is the body of GET /v2/users/{userId}/meetings?type=upcoming.
type ZoomMeetingsResponse struct {
	Meetings []ZoomMeeting `json:"meetings"`
}

// ZoomTokenResponse is the body returned by the OAuth token endpoint for all
// three grant types. RefreshToken is only present for the authorization-code
// and refresh-token grants.
type ZoomTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int    `json:"expires_in"`
}

// ZoomAPIError is the error body the Zoom API returns on non-success statuses.
type ZoomAPIError struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}
