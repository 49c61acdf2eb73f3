package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"user_server_go/auth"
	"user_server_go/data"
	"user_server_go/models"
)

// DefaultTokenTTL is how long an issued token stays valid unless configured otherwise.
const DefaultTokenTTL = 30 * 24 * time.Hour

// UserService registers users, logs them in and resolves their tokens.
// Every method answers with a response envelope; failures never surface as Go errors.
type UserService interface {
	// Register creates a user. e=10 when the username is taken.
	Register(ctx context.Context, username, password string) models.Response
	// Login checks credentials and renews an expired token. e=10 for an unknown
	// username, e=11 for a wrong password.
	Login(ctx context.Context, username, password string) models.Response
	// Authorize resolves a token. e=10 when unknown, e=11 (with data) when expired.
	Authorize(ctx context.Context, token string) models.Response
	// Get fetches a user by id. e=10 when missing.
	Get(ctx context.Context, userID int64) models.Response
}

// UserOption customizes a user service.
type UserOption func(*userService)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) UserOption {
	return func(s *userService) { s.now = now }
}

// WithTokenTTL sets the lifetime of issued tokens.
func WithTokenTTL(ttl time.Duration) UserOption {
	return func(s *userService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithHasher sets the password hasher.
func WithHasher(h auth.Hasher) UserOption {
	return func(s *userService) { s.hasher = h }
}

// WithLogger sets the logger used for internal failures.
func WithLogger(log *slog.Logger) UserOption {
	return func(s *userService) {
		if log != nil {
			s.log = log
		}
	}
}

type userService struct {
	bridge data.Bridge
	table  string
	tokens *auth.TokenIssuer
	hasher auth.Hasher
	ttl    time.Duration
	now    func() time.Time
	log    *slog.Logger

	// prepared statements, with the table name already quoted
	selectByUsername string
	selectByToken    string
	selectByID       string
	insertUser       string
	updateToken      string
}

// NewUserService builds a user service over table, creating the table and
// its indexes when they do not exist yet.
func NewUserService(ctx context.Context, bridge data.Bridge, table string, tokens *auth.TokenIssuer, opts ...UserOption) (UserService, error) {
	if !data.ValidIdent(table) {
		return nil, fmt.Errorf("invalid user table name %q", table)
	}
	if tokens == nil {
		return nil, errors.New("user service needs a token issuer")
	}
	s := &userService{
		bridge: bridge,
		table:  table,
		tokens: tokens,
		ttl:    DefaultTokenTTL,
		now:    time.Now,
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	q := bridge.Dialect().QuoteIdent(table)
	s.selectByUsername = "SELECT * FROM " + q + " WHERE username = ?"
	s.selectByToken = "SELECT * FROM " + q + " WHERE token = ?"
	s.selectByID = "SELECT * FROM " + q + " WHERE user_id = ?"
	s.insertUser = "INSERT INTO " + q + " (username, password, token, token_expired) VALUES (?, ?, ?, ?)"
	s.updateToken = "UPDATE " + q + " SET token = ?, token_expired = ? WHERE user_id = ?"

	if err := EnsureUserTable(ctx, bridge, table); err != nil {
		return nil, err
	}
	return s, nil
}

// EnsureUserTable creates the user table when it is missing.
func EnsureUserTable(ctx context.Context, bridge data.Bridge, table string) error {
	if bridge.TableExists(ctx, table) {
		return nil
	}
	createSQL, indexes := data.UserSchema(bridge.Dialect(), table)
	if !bridge.CreateTable(ctx, createSQL, indexes...) {
		return fmt.Errorf("failed to create user table %s", table)
	}
	return nil
}

func (s *userService) fail(msg string, err error, attrs ...any) models.Response {
	s.log.Error(msg, append(attrs, "err", err)...)
	return models.NewResponse(models.CodeFailure)
}

func (s *userService) newToken(username string) (string, int64, error) {
	expiresAt := s.now().Add(s.ttl)
	token, err := s.tokens.Issue(username, expiresAt)
	if err != nil {
		return "", 0, err
	}
	return token, expiresAt.UnixMilli(), nil
}

func (s *userService) Register(ctx context.Context, username, password string) models.Response {
	row, err := s.bridge.QueryOne(ctx, s.selectByUsername, username)
	if err != nil {
		return s.fail("register: lookup failed", err, "username", username)
	}
	if row != nil {
		return models.NewResponse(models.CodeNotFound)
	}

	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return s.fail("register: hash failed", err, "username", username)
	}
	token, expired, err := s.newToken(username)
	if err != nil {
		return s.fail("register: token failed", err, "username", username)
	}

	id, err := s.bridge.Insert(ctx, s.insertUser, username, hashed, token, expired)
	if err != nil {
		if data.IsDuplicateKey(err) {
			return models.NewResponse(models.CodeNotFound)
		}
		return s.fail("register: insert failed", err, "username", username)
	}

	return models.NewDataResponse(models.CodeSuccess, &models.User{
		UserID:       id,
		Username:     username,
		Token:        token,
		TokenExpired: expired,
	})
}

func (s *userService) Login(ctx context.Context, username, password string) models.Response {
	row, err := s.bridge.QueryOne(ctx, s.selectByUsername, username)
	if err != nil {
		return s.fail("login: lookup failed", err, "username", username)
	}
	if row == nil {
		return models.NewResponse(models.CodeNotFound)
	}
	user, err := models.UserFromRow(row)
	if err != nil {
		return s.fail("login: bad user row", err, "username", username)
	}

	ok, err := s.hasher.Check(password, user.Password)
	if err != nil {
		return s.fail("login: password check failed", err, "user_id", user.UserID)
	}
	if !ok {
		return models.NewResponse(models.CodeRejected)
	}

	if s.now().UnixMilli() > user.TokenExpired {
		token, expired, err := s.newToken(user.Username)
		if err != nil {
			return s.fail("login: token failed", err, "user_id", user.UserID)
		}
		if _, err := s.bridge.Update(ctx, s.updateToken, token, expired, user.UserID); err != nil {
			return s.fail("login: token update failed", err, "user_id", user.UserID)
		}
		user.Token = token
		user.TokenExpired = expired
	}
	user.Password = ""
	return models.NewDataResponse(models.CodeSuccess, user)
}

func (s *userService) Authorize(ctx context.Context, token string) models.Response {
	if token == "" {
		return models.NewResponse(models.CodeNotFound)
	}
	row, err := s.bridge.QueryOne(ctx, s.selectByToken, token)
	if err != nil {
		return s.fail("authorize: lookup failed", err)
	}
	if row == nil {
		return models.NewResponse(models.CodeNotFound)
	}
	user, err := models.UserFromRow(row)
	if err != nil {
		return s.fail("authorize: bad user row", err)
	}
	user.Password = ""
	if user.TokenExpired < s.now().UnixMilli() {
		return models.NewDataResponse(models.CodeRejected, user)
	}
	return models.NewDataResponse(models.CodeSuccess, user)
}

func (s *userService) Get(ctx context.Context, userID int64) models.Response {
	row, err := s.bridge.QueryOne(ctx, s.selectByID, userID)
	if err != nil {
		return s.fail("get: lookup failed", err, "user_id", userID)
	}
	if row == nil {
		return models.NewResponse(models.CodeNotFound)
	}
	user, err := models.UserFromRow(row)
	if err != nil {
		return s.fail("get: bad user row", err, "user_id", userID)
	}
	user.Password = ""
	return models.NewDataResponse(models.CodeSuccess, user)
}
