package service

import (
	"fmt"
	"net/url"
	"strings"

	"filebox/backend/common"
)

// UserDir is the blob prefix holding every artifact of one user.
func UserDir(userID string) string {
	return common.StorageDir + "/user-" + userID
}

// FilePath is the deterministic storage path of an uploaded file.
func FilePath(userID, filename string) string {
	return UserDir(userID) + "/" + filename
}

// PublicURL resolves a stored path against the configured host and port.
func PublicURL(cfg common.Config, storedPath string) string {
	segments := strings.Split(storedPath, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	host := strings.TrimRight(cfg.PublicHost, "/")
	return fmt.Sprintf("%s:%d/%s", host, cfg.Port, strings.Join(segments, "/"))
}
