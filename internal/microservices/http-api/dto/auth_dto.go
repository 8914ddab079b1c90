package dto

// Data Transfer Objects for the signup and token exchange endpoints

// SignupRequest: payload for self-registration
type SignupRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
}

// SignupResponse: echoes the registered identity; the code is only sent by email
type SignupResponse struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// TokenRequest: payload for exchanging a confirmation code
type TokenRequest struct {
	Username         string `json:"username" binding:"required"`
	ConfirmationCode string `json:"confirmation_code" binding:"required"`
}

// TokenResponse: the issued access token
type TokenResponse struct {
	Token string `json:"token"`
}
