package dto

// LoginRequest represents login credentials
type LoginRequest struct {
	Username string `json:"username" binding:"required" example:"nguyenvana"`
	Password string `json:"password" binding:"required" example:"alumni2024"`
}

// RegisterRequest is the self-service alumni registration payload
type RegisterRequest struct {
	Username  string  `json:"username" binding:"required,username" example:"nguyenvana"`
	Email     string  `json:"email" binding:"required,email" example:"vana@alumni.edu.vn"`
	Password  string  `json:"password" binding:"required,password" example:"alumni2024"`
	FirstName string  `json:"first_name" binding:"required,max=150" example:"Van A"`
	LastName  string  `json:"last_name" binding:"required,max=150" example:"Nguyen"`
	StudentID *string `json:"student_id,omitempty" binding:"omitempty,max=20" example:"1951012345"`
}

// RegisterResponse is returned after a successful registration
type RegisterResponse struct {
	Message string `json:"message" example:"Registration successful, waiting for verification"`
	UserID  int64  `json:"user_id" example:"12"`
}

// TokenResponse represents JWT token information
type TokenResponse struct {
	AccessToken           string `json:"access_token"`
	TokenType             string `json:"token_type" example:"Bearer"`
	ExpiresIn             int64  `json:"expires_in"`
	RefreshToken          string `json:"refresh_token,omitempty"`
	RefreshTokenExpiresIn int64  `json:"refresh_token_expires_in,omitempty"`
}

// RefreshTokenRequest represents refresh token request
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// AuthResponse represents successful authentication response
type AuthResponse struct {
	Token TokenResponse `json:"token"`
	User  *UserResponse `json:"user"`
}

// ChangePasswordRequest changes the caller's password. OldPassword may be
// omitted only while a password change is required.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password,omitempty"`
	NewPassword string `json:"new_password" binding:"required,password"`
}
