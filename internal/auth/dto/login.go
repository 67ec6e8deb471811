package dto

type LoginInput struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,max=128"`
	IPAddress string `json:"-"`
	UserAgent string `json:"-"`
}
