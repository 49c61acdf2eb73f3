// Package services holds the business logic behind the HTTP API and the
// container that wires it to storage.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"user_server_go/auth"
	"user_server_go/config"
	"user_server_go/data"
)

// Services bundles everything the HTTP layer needs. Build it once at startup.
type Services struct {
	Bridge data.Bridge
	Tokens *auth.TokenIssuer
	Users  UserService
}

// NewServices wires a bridge over db and the user service on top of it.
// The returned Services owns db; call Close when done.
func NewServices(ctx context.Context, cfg *config.ServerConfig, db *sqlx.DB, log *slog.Logger, opts ...UserOption) (*Services, error) {
	bridge := data.NewSQLBridge(db, log)
	tokens, err := auth.NewTokenIssuer(cfg.TokenSecret)
	if err != nil {
		return nil, err
	}
	base := []UserOption{
		WithTokenTTL(cfg.TokenTTL),
		WithHasher(auth.Hasher{Cost: cfg.BcryptCost}),
		WithLogger(log),
	}
	users, err := NewUserService(ctx, bridge, cfg.UserTable, tokens, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to init user service: %w", err)
	}
	return &Services{Bridge: bridge, Tokens: tokens, Users: users}, nil
}

// Close releases the connection pool.
func (s *Services) Close() error {
	if s == nil || s.Bridge == nil {
		return nil
	}
	return s.Bridge.Close()
}
