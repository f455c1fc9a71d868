package model

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"filebox/backend/common"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := common.DefaultConfig()
	cfg.SQLitePath = filepath.Join(t.TempDir(), "test.db")
	db, err := InitDB(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = CloseDB(db) })
	return db
}

func TestUser_CreateAssignsIDAndEmptyList(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	u := &User{Email: "a@b.io", Name: "Al", Password: "hash"}
	require.NoError(t, db.Create(u).Error)
	assert.Len(t, u.ID, 36)

	got, err := GetUserByID(ctx, db, u.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.FileIDs)
	assert.Empty(t, got.FileIDs)

	n, err := CountUsers(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestUser_EmailUnique(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.Create(&User{Email: "a@b.io", Name: "Al", Password: "x"}).Error)
	err := db.Create(&User{Email: "a@b.io", Name: "Bo", Password: "y"}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	exists, err := EmailExists(context.Background(), db, "a@b.io")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestUser_FileIDsRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	u := &User{Email: "a@b.io", Name: "Al", Password: "x"}
	require.NoError(t, db.Create(u).Error)

	u.AppendFileID("f1")
	u.AppendFileID("f2")
	u.AppendFileID("f3")
	require.NoError(t, SaveFileIDs(ctx, db, u))

	got, err := GetUserByID(ctx, db, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"f1", "f2", "f3"}, []string(got.FileIDs))

	assert.True(t, got.RemoveFileID("f2"))
	assert.False(t, got.RemoveFileID("missing"))
	require.NoError(t, SaveFileIDs(ctx, db, got))

	got, err = GetUserByEmail(ctx, db, "a@b.io")
	require.NoError(t, err)
	assert.Equal(t, []string{"f1", "f3"}, []string(got.FileIDs))
}

func TestFile_UniquePerOwner(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Create(&File{OwnerID: "u1", Name: "a", Ext: "txt", Path: "storage/user-u1/a.txt"}).Error)
	err := db.Create(&File{OwnerID: "u1", Name: "a", Ext: "txt", Path: "storage/user-u1/a.txt"}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	// Same name for another owner, or another extension, is fine.
	require.NoError(t, db.Create(&File{OwnerID: "u2", Name: "a", Ext: "txt", Path: "storage/user-u2/a.txt"}).Error)
	require.NoError(t, db.Create(&File{OwnerID: "u1", Name: "a", Ext: "pdf", Path: "storage/user-u1/a.pdf"}).Error)

	taken, err := FileNameTaken(ctx, db, "u1", "a", "pdf")
	require.NoError(t, err)
	assert.True(t, taken)
	taken, err = FileNameTaken(ctx, db, "u1", "b", "pdf")
	require.NoError(t, err)
	assert.False(t, taken)

	files, err := ListFilesByOwner(ctx, db, "u1")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "a.txt", files[0].FullName())
	assert.Equal(t, "a.pdf", files[1].FullName())
}

func TestFile_FullName(t *testing.T) {
	assert.Equal(t, "README", (&File{Name: "README"}).FullName())
	assert.Equal(t, "my.report.pdf", (&File{Name: "my.report", Ext: "pdf"}).FullName())
}

func TestDeleteUserCascade(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	u := &User{Email: "a@b.io", Name: "Al", Password: "x"}
	other := &User{Email: "c@d.io", Name: "Cy", Password: "x"}
	require.NoError(t, db.Create(u).Error)
	require.NoError(t, db.Create(other).Error)
	require.NoError(t, db.Create(&File{OwnerID: u.ID, Name: "a", Ext: "txt", Path: "p"}).Error)
	require.NoError(t, db.Create(&File{OwnerID: u.ID, Name: "b", Ext: "txt", Path: "p"}).Error)
	require.NoError(t, db.Create(&File{OwnerID: other.ID, Name: "a", Ext: "txt", Path: "p"}).Error)

	err := db.Transaction(func(tx *gorm.DB) error {
		n, err := DeleteUserCascade(ctx, tx, u.ID)
		assert.Equal(t, int64(2), n)
		return err
	})
	require.NoError(t, err)

	_, err = GetUserByID(ctx, db, u.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	byOwner, err := OwnerFileIDs(ctx, db)
	require.NoError(t, err)
	assert.Len(t, byOwner, 1)
	assert.Len(t, byOwner[other.ID], 1)

	_, err = DeleteUserCascade(ctx, db, u.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
