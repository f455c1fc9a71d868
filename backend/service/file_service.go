package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"filebox/backend/common"
	ferrors "filebox/backend/common/errors"
	"filebox/backend/library/blob"
	"filebox/backend/model"
)

// Upload is one file of an upload batch. Open is called at most once.
type Upload struct {
	Filename string
	Size     int64
	Open     func() (io.ReadCloser, error)
}

// FileSummary is the client view of a file: Name includes the extension and
// Path is a public URL.
type FileSummary struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Name string `json:"name"`
	Path string `json:"path"`
}

type UploadResult struct {
	Message    string        `json:"message"`
	AddedFiles []FileSummary `json:"addedFiles"`
	// LimitReached marks the soft rejection of a whole batch.
	LimitReached bool `json:"-"`
}

type RenameRequest struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name" validate:"required,max=255,excludesall=/\\"`
	Ext  string `json:"ext" validate:"max=32,excludesall=./\\"`
}

// Download is an open artifact. The caller closes Content.
type Download struct {
	File    *model.File
	Content io.ReadCloser
	Size    int64
}

type FileService struct {
	cfg   common.Config
	db    *gorm.DB
	blobs blob.Store
}

func NewFileService(cfg common.Config, db *gorm.DB, blobs blob.Store) *FileService {
	return &FileService{cfg: cfg, db: db, blobs: blobs}
}

func (s *FileService) summary(f *model.File) FileSummary {
	return FileSummary{
		ID:   f.ID,
		Type: f.Type,
		Name: f.FullName(),
		Path: PublicURL(s.cfg, f.Path),
	}
}

// UploadFiles stores a batch for the caller. Items are written one at a
// time, each in its own transaction; a filename the caller already has is
// skipped. The first failing item aborts the rest of the batch.
func (s *FileService) UploadFiles(ctx context.Context, uploads []Upload) (*UploadResult, error) {
	ownerID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.validateBatch(uploads); err != nil {
		return nil, err
	}

	existing, err := model.ListFilesByOwner(ctx, s.db, ownerID)
	if err != nil {
		return nil, ferrors.Internal(ferrors.ErrDatabase, "Database error", err)
	}
	if len(existing) >= s.cfg.MaxFilesPerUser {
		return &UploadResult{
			Message: fmt.Sprintf("File limit reached (%d files). Delete some files before uploading new ones.",
				s.cfg.MaxFilesPerUser),
			AddedFiles:   []FileSummary{},
			LimitReached: true,
		}, nil
	}

	known := make(map[string]struct{}, len(existing)+len(uploads))
	for i := range existing {
		known[existing[i].FullName()] = struct{}{}
	}

	added := make([]FileSummary, 0, len(uploads))
	for _, up := range uploads {
		if _, dup := known[up.Filename]; dup {
			continue
		}
		file, err := s.storeUpload(ctx, ownerID, up)
		if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, blob.ErrExist) {
			// A concurrent request stored the same name first.
			common.SysWarn("upload skipped, name taken", "user_id", ownerID, "file", up.Filename, "error", err)
			known[up.Filename] = struct{}{}
			continue
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errTokenInvalidated()
		}
		if err != nil {
			common.SysError("upload aborted", "user_id", ownerID, "file", up.Filename, "added", len(added), "error", err)
			return nil, ferrors.Internal(ferrors.ErrStorage, "Could not store file "+up.Filename, err)
		}
		known[up.Filename] = struct{}{}
		added = append(added, s.summary(file))
	}

	msg := "1 new file added"
	if len(uploads) != 1 {
		msg = fmt.Sprintf("%d new files added", len(uploads))
	}
	return &UploadResult{Message: msg, AddedFiles: added}, nil
}

func (s *FileService) validateBatch(uploads []Upload) error {
	if len(uploads) == 0 {
		return ferrors.Validation(ferrors.ErrUploadValidation, "No files to upload", []ferrors.FieldViolation{
			{Field: "files", Rule: "required", Message: "files is required"},
		})
	}
	if len(uploads) > s.cfg.MaxBatchFiles {
		return ferrors.Validation(ferrors.ErrUploadValidation,
			fmt.Sprintf("Too many files in one upload (max %d)", s.cfg.MaxBatchFiles),
			[]ferrors.FieldViolation{{Field: "files", Rule: "max", Value: len(uploads),
				Message: fmt.Sprintf("at most %d files per upload", s.cfg.MaxBatchFiles)}})
	}
	var violations []ferrors.FieldViolation
	for _, up := range uploads {
		if !ValidFilename(up.Filename) {
			violations = append(violations, ferrors.FieldViolation{
				Field: "files", Rule: "filename", Value: up.Filename, Message: "invalid file name",
			})
		}
	}
	if len(violations) > 0 {
		return ferrors.Validation(ferrors.ErrUploadValidation, "Failed upload validation", violations)
	}
	return nil
}

// storeUpload writes the record, the owner's id list and the artifact in
// one transaction.
func (s *FileService) storeUpload(ctx context.Context, ownerID string, up Upload) (*model.File, error) {
	name, ext := SplitFilename(up.Filename)
	file := &model.File{
		OwnerID: ownerID,
		Type:    ClassifyExtension(ext),
		Name:    name,
		Ext:     ext,
		Path:    FilePath(ownerID, up.Filename),
		Size:    up.Size,
	}

	written := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(file).Error; err != nil {
			return err
		}
		owner, err := model.GetUserByID(ctx, tx, ownerID)
		if err != nil {
			return fmt.Errorf("load owner: %w", err)
		}
		owner.AppendFileID(file.ID)
		if err := model.SaveFileIDs(ctx, tx, owner); err != nil {
			return fmt.Errorf("save owner: %w", err)
		}

		rc, err := up.Open()
		if err != nil {
			return fmt.Errorf("open upload: %w", err)
		}
		defer rc.Close()
		if err := s.blobs.Put(ctx, file.Path, rc, up.Size); err != nil {
			return err
		}
		written = true
		return nil
	})
	if err != nil {
		if written {
			if rmErr := s.blobs.Remove(context.WithoutCancel(ctx), file.Path); rmErr != nil {
				common.SysError("failed to remove artifact of rolled back upload", "path", file.Path, "error", rmErr)
			}
		}
		return nil, err
	}
	return file, nil
}

// ListFiles returns the caller's files oldest first.
func (s *FileService) ListFiles(ctx context.Context) ([]FileSummary, error) {
	ownerID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	files, err := model.ListFilesByOwner(ctx, s.db, ownerID)
	if err != nil {
		return nil, ferrors.Internal(ferrors.ErrDatabase, "Database error", err)
	}
	summaries := make([]FileSummary, 0, len(files))
	for i := range files {
		summaries = append(summaries, s.summary(&files[i]))
	}
	return summaries, nil
}

// DownloadFile opens a file by id. Unless OwnerOnlyDownload is set any
// authenticated caller who knows the id may download it.
func (s *FileService) DownloadFile(ctx context.Context, fileID string) (*Download, error) {
	caller, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	file, err := s.lookup(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if s.cfg.OwnerOnlyDownload && file.OwnerID != caller {
		return nil, ferrors.NotFound(ferrors.ErrFileNotFound, "File not found")
	}

	content, size, err := s.blobs.Open(ctx, file.Path)
	if errors.Is(err, blob.ErrNotExist) {
		return nil, ferrors.NotFound(ferrors.ErrBlobNotFound, "File not found")
	}
	if err != nil {
		return nil, ferrors.Internal(ferrors.ErrStorage, "Could not read file", err)
	}
	return &Download{File: file, Content: content, Size: size}, nil
}

// OpenStored opens an artifact by its storage path. It backs the public
// /storage URLs when the blob driver has no local tree to serve.
func (s *FileService) OpenStored(ctx context.Context, storedPath string) (io.ReadCloser, int64, error) {
	key, err := blob.CleanKey(storedPath)
	if err != nil || !strings.HasPrefix(key, common.StorageDir+"/") {
		return nil, 0, ferrors.NotFound(ferrors.ErrBlobNotFound, "File not found")
	}
	content, size, err := s.blobs.Open(ctx, key)
	if errors.Is(err, blob.ErrNotExist) {
		return nil, 0, ferrors.NotFound(ferrors.ErrBlobNotFound, "File not found")
	}
	if err != nil {
		return nil, 0, ferrors.Internal(ferrors.ErrStorage, "Could not read file", err)
	}
	return content, size, nil
}

func (s *FileService) lookup(ctx context.Context, fileID string) (*model.File, error) {
	if fileID == "" {
		return nil, ferrors.Validation(ferrors.ErrInvalidFileID, "File id is required", []ferrors.FieldViolation{
			{Field: "id", Rule: "required", Message: "id is required"},
		})
	}
	file, err := model.GetFileByID(ctx, s.db, fileID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ferrors.NotFound(ferrors.ErrFileNotFound, "File not found")
	}
	if err != nil {
		return nil, ferrors.Internal(ferrors.ErrDatabase, "Database error", err)
	}
	return file, nil
}

// lookupOwned hides files of other users behind NotFound.
func (s *FileService) lookupOwned(ctx context.Context, ownerID, fileID string) (*model.File, error) {
	file, err := s.lookup(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if file.OwnerID != ownerID {
		return nil, ferrors.NotFound(ferrors.ErrFileNotFound, "File not found")
	}
	return file, nil
}

// RenameFile moves the artifact, then updates the record. If the record
// update fails the artifact is moved back.
func (s *FileService) RenameFile(ctx context.Context, req RenameRequest) (string, error) {
	ownerID, err := callerID(ctx)
	if err != nil {
		return "", err
	}
	if err := common.Validate.Struct(req); err != nil {
		return "", ferrors.Validation(ferrors.ErrRenameValidation, "Failed rename validation", common.Violations(err))
	}
	file, err := s.lookupOwned(ctx, ownerID, req.ID)
	if err != nil {
		return "", err
	}

	ext := req.Ext
	if ext == "" {
		ext = file.Ext
	}
	newFull := JoinFilename(req.Name, ext)
	if newFull == file.FullName() {
		return fmt.Sprintf("File %s updated", newFull), nil
	}
	if !ValidFilename(newFull) {
		return "", ferrors.Validation(ferrors.ErrRenameValidation, "Failed rename validation", []ferrors.FieldViolation{
			{Field: "name", Rule: "filename", Value: newFull, Message: "invalid file name"},
		})
	}

	taken, err := model.FileNameTaken(ctx, s.db, ownerID, req.Name, ext)
	if err != nil {
		return "", ferrors.Internal(ferrors.ErrDatabase, "Database error", err)
	}
	if taken {
		return "", ferrors.Conflict(ferrors.ErrFileNameTaken, fmt.Sprintf("File %s already exists", newFull))
	}

	oldPath := file.Path
	newPath := FilePath(ownerID, newFull)
	if err := s.blobs.Move(ctx, oldPath, newPath); err != nil {
		if errors.Is(err, blob.ErrExist) {
			return "", ferrors.Conflict(ferrors.ErrFileNameTaken, fmt.Sprintf("File %s already exists", newFull))
		}
		return "", ferrors.Internal(ferrors.ErrStorage, "Could not move file", err)
	}

	err = s.db.WithContext(ctx).Model(file).Updates(map[string]interface{}{
		"name": req.Name,
		"ext":  ext,
		"type": ClassifyExtension(ext),
		"path": newPath,
	}).Error
	if err != nil {
		if mvErr := s.blobs.Move(context.WithoutCancel(ctx), newPath, oldPath); mvErr != nil {
			common.SysError("failed to restore artifact after rename failure", "from", newPath, "to", oldPath, "error", mvErr)
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return "", ferrors.Conflict(ferrors.ErrFileNameTaken, fmt.Sprintf("File %s already exists", newFull))
		}
		return "", ferrors.Internal(ferrors.ErrDatabase, "Could not update file", err)
	}
	return fmt.Sprintf("File %s updated", newFull), nil
}

// DeleteFile removes the record and the owner's reference in one
// transaction, then the artifact on a best-effort basis.
func (s *FileService) DeleteFile(ctx context.Context, fileID string) (string, error) {
	ownerID, err := callerID(ctx)
	if err != nil {
		return "", err
	}
	file, err := s.lookupOwned(ctx, ownerID, fileID)
	if err != nil {
		return "", err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(file).Error; err != nil {
			return err
		}
		owner, err := model.GetUserByID(ctx, tx, ownerID)
		if err != nil {
			return fmt.Errorf("load owner: %w", err)
		}
		if owner.RemoveFileID(file.ID) {
			return model.SaveFileIDs(ctx, tx, owner)
		}
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", errTokenInvalidated()
	}
	if err != nil {
		return "", ferrors.Internal(ferrors.ErrDatabase, "Could not delete file", err)
	}

	if err := s.blobs.Remove(context.WithoutCancel(ctx), file.Path); err != nil {
		if errors.Is(err, blob.ErrNotExist) {
			common.SysWarn("artifact already missing", "path", file.Path)
		} else {
			common.SysError("failed to remove artifact", "path", file.Path, "error", err)
		}
	}
	return fmt.Sprintf("File %s deleted", file.FullName()), nil
}

// Reconcile rewrites every user's file id list from the files table and
// returns how many users were repaired.
func (s *FileService) Reconcile(ctx context.Context) (int, error) {
	byOwner, err := model.OwnerFileIDs(ctx, s.db)
	if err != nil {
		return 0, err
	}
	users, err := model.ListUsers(ctx, s.db)
	if err != nil {
		return 0, err
	}

	repaired := 0
	for i := range users {
		user := &users[i]
		want := byOwner[user.ID]
		delete(byOwner, user.ID)
		if sameIDs(user.FileIDs, want) {
			continue
		}
		common.SysWarn("repairing file id list", "user_id", user.ID, "had", len(user.FileIDs), "want", len(want))
		user.FileIDs = append(datatypes.JSONSlice[string]{}, want...)
		if err := model.SaveFileIDs(ctx, s.db, user); err != nil {
			return repaired, fmt.Errorf("save file ids of %s: %w", user.ID, err)
		}
		repaired++
	}
	for ownerID, ids := range byOwner {
		common.SysWarn("files without owner", "owner_id", ownerID, "count", len(ids))
	}
	return repaired, nil
}

// sameIDs compares as sets so that a list in a different order is kept.
func sameIDs(have, want []string) bool {
	if len(have) != len(want) {
		return false
	}
	a := slices.Clone(have)
	b := slices.Clone(want)
	slices.Sort(a)
	slices.Sort(b)
	return slices.Equal(a, b)
}
