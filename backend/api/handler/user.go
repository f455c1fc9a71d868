package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"filebox/backend/common"
	ferrors "filebox/backend/common/errors"
	"filebox/backend/service"
)

type UserHandler struct {
	users *service.UserService
}

func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// Signup handles POST /signup.
func (h *UserHandler) Signup(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(ferrors.Validation(ferrors.ErrSignupValidation, "Failed signup validation", common.Violations(err)))
		return
	}
	user, err := h.users.Register(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// Login returns a bearer token for valid credentials.
func (h *UserHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(ferrors.Validation(ferrors.ErrLoginValidation, "Failed login validation", common.Violations(err)))
		return
	}
	res, err := h.users.Authenticate(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusAccepted, res)
}

// DeleteSelf removes the authenticated account.
func (h *UserHandler) DeleteSelf(c *gin.Context) {
	msg, err := h.users.Deregister(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	common.RespMessage(c, http.StatusAccepted, msg)
}
