package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/Freeeeeet/slot_swapper/internal/httpapi/middleware"
	"github.com/Freeeeeet/slot_swapper/internal/httpapi/response"
	"github.com/Freeeeeet/slot_swapper/internal/service"
)

type AuthHandler struct {
	users *service.UserService
}

func NewAuthHandler(users *service.UserService) *AuthHandler {
	return &AuthHandler{users: users}
}

func (ah *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondBadRequest(c, "invalid request body")
		return
	}

	sess, err := ah.users.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondCreated(c, sess)
}

func (ah *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondBadRequest(c, "invalid request body")
		return
	}

	sess, err := ah.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, sess)
}

func (ah *AuthHandler) Me(c *gin.Context) {
	user, err := ah.users.GetByID(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"user": user})
}

// TelegramCode выдаёт код для команды /link в Telegram-боте
func (ah *AuthHandler) TelegramCode(c *gin.Context) {
	code, err := ah.users.IssueTelegramCode(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.RespondError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"code": code, "command": "/link " + code})
}
