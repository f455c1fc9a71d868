package model

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User is an account. Password holds the bcrypt hash and is never
// serialized. FileIDs lists the ids of owned files in upload order.
type User struct {
	ID        string                      `json:"id" gorm:"primaryKey;size:36"`
	Email     string                      `json:"email" gorm:"uniqueIndex;size:255;not null"`
	Name      string                      `json:"name" gorm:"size:100;not null"`
	Password  string                      `json:"-" gorm:"size:100;not null"`
	FileIDs   datatypes.JSONSlice[string] `json:"fileIds" gorm:"column:file_ids"`
	CreatedAt time.Time                   `json:"createdAt"`
	UpdatedAt time.Time                   `json:"updatedAt"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.FileIDs == nil {
		u.FileIDs = datatypes.JSONSlice[string]{}
	}
	return nil
}

func (u *User) AppendFileID(id string) {
	u.FileIDs = append(u.FileIDs, id)
}

// RemoveFileID drops every occurrence of id and reports whether any existed.
func (u *User) RemoveFileID(id string) bool {
	before := len(u.FileIDs)
	u.FileIDs = slices.DeleteFunc(u.FileIDs, func(v string) bool { return v == id })
	return len(u.FileIDs) != before
}

func CountUsers(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&User{}).Count(&n).Error
	return n, err
}

func GetUserByID(ctx context.Context, db *gorm.DB, id string) (*User, error) {
	var user User
	if err := db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail expects an already normalized address.
func GetUserByEmail(ctx context.Context, db *gorm.DB, email string) (*User, error) {
	var user User
	if err := db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func EmailExists(ctx context.Context, db *gorm.DB, email string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Model(&User{}).Where("email = ?", email).Count(&n).Error
	return n > 0, err
}

func ListUsers(ctx context.Context, db *gorm.DB) ([]User, error) {
	var users []User
	err := db.WithContext(ctx).Order("created_at ASC").Find(&users).Error
	return users, err
}

// SaveFileIDs writes only the file id list of u.
func SaveFileIDs(ctx context.Context, db *gorm.DB, u *User) error {
	return db.WithContext(ctx).Model(u).Update("file_ids", u.FileIDs).Error
}

// DeleteUserCascade removes the user and every file row it owns. Run it
// inside a transaction.
func DeleteUserCascade(ctx context.Context, db *gorm.DB, id string) (int64, error) {
	res := db.WithContext(ctx).Where("owner_id = ?", id).Delete(&File{})
	if res.Error != nil {
		return 0, res.Error
	}
	files := res.RowsAffected
	res = db.WithContext(ctx).Where("id = ?", id).Delete(&User{})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	return files, nil
}
