// internal/handlers/user/user_handler.go
package user

import (
	"net/http"

	"crm-service/internal/pkg/response"
	"crm-service/internal/repository/postgres"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userRepo *postgres.UserRepository
}

func NewUserHandler(userRepo *postgres.UserRepository) *UserHandler {
	return &UserHandler{
		userRepo: userRepo,
	}
}

// ListUsers returns the identity directory backing the assignee picker.
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.userRepo.List(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "users retrieved", users)
}
