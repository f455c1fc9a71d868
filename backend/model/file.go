package model

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// File is the metadata of one stored artifact. Name is the display name
// without extension; Path is relative to the blob store root.
type File struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	OwnerID   string    `json:"ownerId" gorm:"size:36;not null;index;uniqueIndex:idx_owner_name,priority:1"`
	Type      string    `json:"type" gorm:"size:20"`
	Name      string    `json:"name" gorm:"size:255;not null;uniqueIndex:idx_owner_name,priority:2"`
	Ext       string    `json:"ext" gorm:"size:32;not null;uniqueIndex:idx_owner_name,priority:3"`
	Path      string    `json:"path" gorm:"size:1024;not null"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (f *File) BeforeCreate(*gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}

// FullName joins name and extension the way the file was uploaded.
func (f *File) FullName() string {
	if f.Ext == "" {
		return f.Name
	}
	return f.Name + "." + f.Ext
}

func GetFileByID(ctx context.Context, db *gorm.DB, id string) (*File, error) {
	var file File
	if err := db.WithContext(ctx).Where("id = ?", id).First(&file).Error; err != nil {
		return nil, err
	}
	return &file, nil
}

// ListFilesByOwner returns the owner's files oldest first.
func ListFilesByOwner(ctx context.Context, db *gorm.DB, ownerID string) ([]File, error) {
	var files []File
	err := db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at ASC").Order("id ASC").
		Find(&files).Error
	return files, err
}

func FileNameTaken(ctx context.Context, db *gorm.DB, ownerID, name, ext string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).Model(&File{}).
		Where("owner_id = ? AND name = ? AND ext = ?", ownerID, name, ext).
		Count(&n).Error
	return n > 0, err
}

// OwnerFileIDs groups every file id by owner, oldest first.
func OwnerFileIDs(ctx context.Context, db *gorm.DB) (map[string][]string, error) {
	var rows []File
	err := db.WithContext(ctx).
		Select("id", "owner_id").
		Order("created_at ASC").Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	byOwner := make(map[string][]string)
	for _, r := range rows {
		byOwner[r.OwnerID] = append(byOwner[r.OwnerID], r.ID)
	}
	return byOwner, nil
}
