package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		err  *Error
		want int
	}{
		{Validation(ErrSignupValidation, "bad", nil), http.StatusUnprocessableEntity},
		{Capacity(ErrTooManyUsers, "full"), http.StatusUnprocessableEntity},
		{Conflict(ErrEmailTaken, "taken"), http.StatusConflict},
		{Auth(ErrMissingToken, "no token"), http.StatusUnauthorized},
		{NotFound(ErrFileNotFound, "missing"), http.StatusNotFound},
		{Forbidden(ErrGuestAccount, "guest"), http.StatusForbidden},
		{Internal(ErrDatabase, "db", stderrors.New("boom")), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.err.Kind.String(), func(t *testing.T) {
			assert.Equal(t, tc.want, tc.err.Status())
		})
	}
}

func TestAsThroughWrapping(t *testing.T) {
	base := NotFound(ErrFileNotFound, "File not found")
	wrapped := fmt.Errorf("rename: %w", base)

	e, ok := As(wrapped)
	assert.True(t, ok)
	assert.Equal(t, ErrFileNotFound, e.ErrorCode())
	assert.True(t, IsKind(wrapped, KindNotFound))
	assert.False(t, IsKind(stderrors.New("plain"), KindNotFound))
}

func TestInternalKeepsCause(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Internal(ErrStorage, "Failed to store file", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, "Failed to store file", err.Msg)
}
