package models

// CredentialsRequest is the body of the register and login calls.
type CredentialsRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required"`
}
