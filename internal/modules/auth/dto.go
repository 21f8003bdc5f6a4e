package auth

type RegisterRequest struct {
	Name         string `json:"Name" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required"`
	DateOfBirth  string `json:"dateofbirth" binding:"required,day"`
	Gender       string `json:"gender" binding:"omitempty,gender"`
	IsSuperadmin bool   `json:"is_superadmin"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UserPublic is the registration response. It never carries the password hash.
type UserPublic struct {
	ID           string `json:"id"`
	Name         string `json:"Name"`
	Email        string `json:"email"`
	DateOfBirth  string `json:"dateofbirth"`
	IsSuperadmin bool   `json:"is_superadmin"`
	AgeRange     string `json:"age_range"`
	Gender       string `json:"gender" binding:"omitempty,gender"`
	CreatedDate  string `json:"created_date"`
	CreatedTime  string `json:"created_time"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}
