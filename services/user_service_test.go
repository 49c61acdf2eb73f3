package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"user_server_go/auth"
	"user_server_go/config"
	"user_server_go/data"
	"user_server_go/logger"
	"user_server_go/models"
)

const (
	testTable    = "test_user"
	testUsername = "test_user"
	testPassword = "123456"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestBridge(t *testing.T) *data.SQLBridge {
	t.Helper()
	cfg := &config.DatabaseConfig{
		Driver:   config.DriverSQLite,
		Database: filepath.Join(t.TempDir(), "users.db"),
		// concurrent writers wait for the file lock instead of failing
		Params: map[string]string{"_busy_timeout": "5000"},
	}
	db, err := data.Open(context.Background(), cfg, nil)
	require.NoError(t, err)
	b := data.NewSQLBridge(db, logger.Discard())
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func newTestService(t *testing.T) (UserService, *data.SQLBridge, *clock) {
	t.Helper()
	b := newTestBridge(t)
	tokens, err := auth.NewTokenIssuer("test-secret")
	require.NoError(t, err)
	c := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	svc, err := NewUserService(context.Background(), b, testTable, tokens,
		WithClock(c.Now),
		WithHasher(auth.Hasher{Cost: bcrypt.MinCost}),
		WithTokenTTL(time.Hour),
		WithLogger(logger.Discard()),
	)
	require.NoError(t, err)
	return svc, b, c
}

func userOf(t *testing.T, r models.Response) *models.User {
	t.Helper()
	u, ok := r.D.(*models.User)
	require.True(t, ok, "response data should be a user, got %T", r.D)
	return u
}

func TestNewUserService_CreatesTable(t *testing.T) {
	_, b, _ := newTestService(t)
	assert.True(t, b.TableExists(context.Background(), testTable))
}

func TestNewUserService_ExistingTable(t *testing.T) {
	b := newTestBridge(t)
	tokens, err := auth.NewTokenIssuer("s")
	require.NoError(t, err)
	ctx := context.Background()

	_, err = NewUserService(ctx, b, testTable, tokens)
	require.NoError(t, err)
	_, err = NewUserService(ctx, b, testTable, tokens)
	require.NoError(t, err, "second construction should reuse the table")
}

func TestNewUserService_Rejects(t *testing.T) {
	b := newTestBridge(t)
	tokens, err := auth.NewTokenIssuer("s")
	require.NoError(t, err)

	_, err = NewUserService(context.Background(), b, "bad name", tokens)
	assert.Error(t, err)
	_, err = NewUserService(context.Background(), b, testTable, nil)
	assert.Error(t, err)
}

func TestRegister(t *testing.T) {
	svc, b, c := newTestService(t)
	ctx := context.Background()

	resp := svc.Register(ctx, testUsername, testPassword)
	require.Equal(t, models.CodeSuccess, resp.E)
	u := userOf(t, resp)
	assert.Equal(t, testUsername, u.Username)
	assert.Positive(t, u.UserID)
	assert.NotEmpty(t, u.Token)
	assert.Equal(t, c.Now().Add(time.Hour).UnixMilli(), u.TokenExpired)
	assert.Empty(t, u.Password)

	row, err := b.QueryOne(ctx, `SELECT password FROM test_user WHERE username = ?`, testUsername)
	require.NoError(t, err)
	assert.NotEqual(t, testPassword, row.String("password"), "password must be stored hashed")

	resp = svc.Register(ctx, testUsername, testPassword)
	assert.Equal(t, models.CodeNotFound, resp.E, "duplicate username")
	assert.Nil(t, resp.D)

	rows, err := b.QueryArray(ctx, `SELECT user_id FROM test_user`)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestRegister_Concurrent(t *testing.T) {
	svc, b, _ := newTestService(t)
	ctx := context.Background()

	const n = 8
	codes := make([]int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			codes[i] = svc.Register(ctx, testUsername, testPassword).E
		}()
	}
	wg.Wait()

	var ok, taken int
	for _, c := range codes {
		switch c {
		case models.CodeSuccess:
			ok++
		case models.CodeNotFound:
			taken++
		}
	}
	assert.Equal(t, 1, ok, "codes: %v", codes)
	assert.Equal(t, n-1, taken, "codes: %v", codes)

	rows, err := b.QueryArray(ctx, `SELECT user_id FROM test_user WHERE username = ?`, testUsername)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

// racingBridge finds no user on lookup but rejects the insert with insertErr,
// as happens when another registration wins in between.
type racingBridge struct {
	data.Bridge
	insertErr error
}

func (r racingBridge) TableExists(context.Context, string) bool { return true }
func (r racingBridge) Dialect() data.Dialect                   { return data.SQLite }
func (r racingBridge) QueryOne(context.Context, string, ...any) (data.Row, error) {
	return nil, nil
}
func (r racingBridge) Insert(context.Context, string, ...any) (int64, error) {
	return 0, r.insertErr
}

func TestRegister_InsertErrors(t *testing.T) {
	tokens, err := auth.NewTokenIssuer("s")
	require.NoError(t, err)
	ctx := context.Background()

	testCases := []struct {
		name string
		err  error
		want int
	}{
		{"sqlite unique constraint", fmt.Errorf("insert: %w", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}), models.CodeNotFound},
		{"mysql duplicate entry", fmt.Errorf("insert: %w", &mysql.MySQLError{Number: 1062}), models.CodeNotFound},
		{"other failure", errors.New("disk full"), models.CodeFailure},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc, err := NewUserService(ctx, racingBridge{insertErr: tc.err}, testTable, tokens,
				WithHasher(auth.Hasher{Cost: bcrypt.MinCost}),
				WithLogger(logger.Discard()))
			require.NoError(t, err)

			resp := svc.Register(ctx, testUsername, testPassword)
			assert.Equal(t, tc.want, resp.E)
			assert.Nil(t, resp.D)
		})
	}
}

func TestLogin(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	reg := userOf(t, svc.Register(ctx, testUsername, testPassword))

	resp := svc.Login(ctx, testUsername, testPassword)
	require.True(t, resp.IsSuccess())
	u := userOf(t, resp)
	assert.Equal(t, testUsername, u.Username)
	assert.Equal(t, reg.UserID, u.UserID)
	assert.Equal(t, reg.Token, u.Token, "valid token is reused")
	assert.Empty(t, u.Password)

	assert.Equal(t, models.CodeNotFound, svc.Login(ctx, "wrongUsername", testPassword).E)
	assert.Equal(t, models.CodeRejected, svc.Login(ctx, testUsername, "wrongPassword").E)
}

func TestLogin_RenewsExpiredToken(t *testing.T) {
	svc, _, c := newTestService(t)
	ctx := context.Background()
	reg := userOf(t, svc.Register(ctx, testUsername, testPassword))

	c.Advance(2 * time.Hour)
	u := userOf(t, svc.Login(ctx, testUsername, testPassword))
	assert.NotEqual(t, reg.Token, u.Token)
	assert.Equal(t, c.Now().Add(time.Hour).UnixMilli(), u.TokenExpired)

	assert.Equal(t, models.CodeNotFound, svc.Authorize(ctx, reg.Token).E, "old token is gone")
	renewed := svc.Authorize(ctx, u.Token)
	require.True(t, renewed.IsSuccess())
	assert.Equal(t, u.UserID, userOf(t, renewed).UserID)
}

func TestAuthorize(t *testing.T) {
	svc, b, c := newTestService(t)
	ctx := context.Background()
	reg := userOf(t, svc.Register(ctx, testUsername, testPassword))

	resp := svc.Authorize(ctx, reg.Token)
	require.True(t, resp.IsSuccess())
	u := userOf(t, resp)
	assert.Equal(t, reg.UserID, u.UserID)
	assert.Empty(t, u.Password)

	assert.Equal(t, models.CodeNotFound, svc.Authorize(ctx, "fake_token").E)
	assert.Equal(t, models.CodeNotFound, svc.Authorize(ctx, "").E)

	c.Advance(2 * time.Hour)
	resp = svc.Authorize(ctx, reg.Token)
	assert.Equal(t, models.CodeRejected, resp.E)
	assert.Equal(t, reg.UserID, userOf(t, resp).UserID)

	// expiry in the table wins, whatever the clock says
	c.Advance(-2 * time.Hour)
	_, err := b.Update(ctx, `UPDATE test_user SET token_expired = ? WHERE user_id = ?`, 0, reg.UserID)
	require.NoError(t, err)
	assert.Equal(t, models.CodeRejected, svc.Authorize(ctx, reg.Token).E)
}

func TestGet(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	reg := userOf(t, svc.Register(ctx, testUsername, testPassword))

	resp := svc.Get(ctx, reg.UserID)
	require.True(t, resp.IsSuccess())
	u := userOf(t, resp)
	assert.Equal(t, testUsername, u.Username)
	assert.Equal(t, reg.Token, u.Token)
	assert.Empty(t, u.Password)

	assert.Equal(t, models.CodeNotFound, svc.Get(ctx, 9999).E)
}

// failingBridge answers every call with err.
type failingBridge struct {
	data.Bridge
	err error
}

func (f failingBridge) TableExists(context.Context, string) bool { return true }
func (f failingBridge) Dialect() data.Dialect                   { return data.SQLite }
func (f failingBridge) QueryOne(context.Context, string, ...any) (data.Row, error) {
	return nil, f.err
}

func TestStorageFailuresBecomeCodeOne(t *testing.T) {
	tokens, err := auth.NewTokenIssuer("s")
	require.NoError(t, err)
	svc, err := NewUserService(context.Background(), failingBridge{err: errors.New("db down")}, testTable, tokens,
		WithLogger(logger.Discard()))
	require.NoError(t, err)
	ctx := context.Background()

	assert.Equal(t, models.CodeFailure, svc.Register(ctx, "a", "b").E)
	assert.Equal(t, models.CodeFailure, svc.Login(ctx, "a", "b").E)
	assert.Equal(t, models.CodeFailure, svc.Authorize(ctx, "t").E)
	assert.Equal(t, models.CodeFailure, svc.Get(ctx, 1).E)
}

func TestNewServices(t *testing.T) {
	cfg := &config.DatabaseConfig{Driver: config.DriverSQLite, Database: filepath.Join(t.TempDir(), "svc.db")}
	db, err := data.Open(context.Background(), cfg, nil)
	require.NoError(t, err)

	srvCfg := &config.ServerConfig{TokenSecret: "x", TokenTTL: time.Hour, BcryptCost: bcrypt.MinCost, UserTable: "user"}
	svcs, err := NewServices(context.Background(), srvCfg, db, logger.Discard())
	require.NoError(t, err)
	defer svcs.Close()

	assert.True(t, svcs.Bridge.TableExists(context.Background(), "user"))
	assert.True(t, svcs.Users.Register(context.Background(), "alice", "pw").IsSuccess())

	_, err = NewServices(context.Background(), &config.ServerConfig{UserTable: "user"}, db, logger.Discard())
	assert.Error(t, err, "missing token secret")
}
