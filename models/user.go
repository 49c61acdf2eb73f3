package models

import (
	"fmt"

	"user_server_go/data"
)

// User is an account row. Password holds the stored hash and is never serialized.
type User struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Password string `json:"-"`
	Token    string `json:"token"`
	// TokenExpired is the token expiry as Unix milliseconds.
	TokenExpired int64 `json:"token_expired"`
}

// UserFromRow maps a user table row onto User.
func UserFromRow(row data.Row) (*User, error) {
	id, err := row.Int64("user_id")
	if err != nil {
		return nil, fmt.Errorf("user row: %w", err)
	}
	var expired int64
	if row["token_expired"] != nil {
		if expired, err = row.Int64("token_expired"); err != nil {
			return nil, fmt.Errorf("user row: %w", err)
		}
	}
	return &User{
		UserID:       id,
		Username:     row.String("username"),
		Password:     row.String("password"),
		Token:        row.String("token"),
		TokenExpired: expired,
	}, nil
}
