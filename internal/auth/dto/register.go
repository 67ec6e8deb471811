package dto

type RegisterInput struct {
	Email    string `json:"email" validate:"required,email,min=5,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72,password"`
	FullName string `json:"full_name" validate:"required,min=2,max=100,fullname"`
}
