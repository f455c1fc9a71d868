package errors

// Stable numeric codes, one per failure site. Clients match on these
// rather than on messages. 900/901 are kept from the first API version.
const (
	// 认证
	ErrMissingToken   = 900
	ErrInvalidToken   = 901
	ErrMalformedToken = 902
	ErrRevokedToken   = 903
	ErrEmailNotFound  = 910
	ErrWrongPassword  = 911

	// 用户
	ErrSignupValidation = 1000
	ErrLoginValidation  = 1001
	ErrTooManyUsers     = 1002
	ErrEmailTaken       = 1003
	ErrGuestAccount     = 1004
	ErrUserNotFound     = 1005

	// 文件
	ErrUploadValidation = 2000
	ErrFileNotFound     = 2001
	ErrFileNameTaken    = 2002
	ErrRenameValidation = 2003
	ErrBlobNotFound     = 2004
	ErrInvalidFileID    = 2005

	// 通用
	ErrInternalServer = 5000
	ErrDatabase       = 5001
	ErrStorage        = 5002
	ErrTokenIssue     = 5003
)
