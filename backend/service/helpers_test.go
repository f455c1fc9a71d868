package service

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"filebox/backend/common"
	ferrors "filebox/backend/common/errors"
	"filebox/backend/library/blob"
	"filebox/backend/library/revoke"
	"filebox/backend/model"
)

type testEnv struct {
	cfg    common.Config
	db     *gorm.DB
	local  *blob.LocalStore
	blobs  blob.Store
	tokens *TokenService
	users  *UserService
	files  *FileService
}

func newTestEnv(t *testing.T, opts ...func(*common.Config)) *testEnv {
	t.Helper()
	dir := t.TempDir()

	cfg := common.DefaultConfig()
	cfg.JWTSecret = "test-jwt-secret-key-for-unit-tests"
	cfg.BcryptCost = bcrypt.MinCost
	cfg.DataDir = dir
	cfg.SQLitePath = filepath.Join(dir, "test.db")
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := model.InitDB(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = model.CloseDB(db) })

	local, err := blob.NewLocalStore(dir)
	require.NoError(t, err)

	env := &testEnv{cfg: cfg, db: db, local: local}
	env.tokens = NewTokenService(cfg, revoke.NewLocalStore())
	env.useBlobs(local)
	return env
}

func (e *testEnv) useBlobs(store blob.Store) {
	e.blobs = store
	e.users = NewUserService(e.cfg, e.db, store, e.tokens)
	e.files = NewFileService(e.cfg, e.db, store)
}

func (e *testEnv) signup(t *testing.T, email string) context.Context {
	t.Helper()
	u, err := e.users.Register(context.Background(), RegisterRequest{Email: email, Name: "Tester", Password: "secret1"})
	require.NoError(t, err)
	return common.WithUserID(context.Background(), u.ID)
}

func (e *testEnv) owner(t *testing.T, ctx context.Context) *model.User {
	t.Helper()
	id, _ := common.UserIDFrom(ctx)
	u, err := model.GetUserByID(context.Background(), e.db, id)
	require.NoError(t, err)
	return u
}

func (e *testEnv) content(t *testing.T, key string) string {
	t.Helper()
	rc, _, err := e.local.Open(context.Background(), key)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(data)
}

func upload(filename, content string) Upload {
	return Upload{
		Filename: filename,
		Size:     int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}

func requireCode(t *testing.T, err error, kind ferrors.Kind, code int) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := ferrors.As(err)
	require.True(t, ok, "expected a coded error, got %v", err)
	require.Equal(t, kind, appErr.Kind, appErr.Msg)
	require.Equal(t, code, appErr.Code, appErr.Msg)
}

// failingStore injects errors into selected blob operations.
type failingStore struct {
	blob.Store
	failPut  bool
	failMove bool
}

var errInjected = errors.New("injected failure")

func (f *failingStore) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	if f.failPut {
		return errInjected
	}
	return f.Store.Put(ctx, key, r, size)
}

func (f *failingStore) Move(ctx context.Context, from, to string) error {
	if f.failMove {
		return errInjected
	}
	return f.Store.Move(ctx, from, to)
}
