package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"feedback-board-api/internal/dto"
	"feedback-board-api/internal/response"
	"feedback-board-api/internal/service"
	"feedback-board-api/internal/util"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// GetMe godoc
// @Summary      내 정보 조회
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} response.SuccessResponse{data=dto.UserResponse}
// @Failure      401 {object} response.ErrorResponse "인증 필요"
// @Router       /users/me [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	user, err := h.userService.GetMe(c.Request.Context(), util.CallerFrom(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, user)
}

// ChangeRole godoc
// @Summary      사용자 역할 변경
// @Description  관리자만 호출할 수 있습니다
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "User ID (UUID)"
// @Param        request body dto.ChangeRoleRequest true "새 역할"
// @Success      200 {object} response.SuccessResponse{data=dto.UserResponse}
// @Failure      400 {object} response.ErrorResponse "잘못된 역할"
// @Failure      403 {object} response.ErrorResponse "권한 없음"
// @Failure      404 {object} response.ErrorResponse "사용자를 찾을 수 없음"
// @Router       /users/{id}/role [patch]
func (h *UserHandler) ChangeRole(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.ChangeRoleRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	user, err := h.userService.ChangeRole(c.Request.Context(), util.CallerFrom(c), userID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.SendSuccess(c, http.StatusOK, user)
}

// DeleteUser godoc
// @Summary      사용자 삭제
// @Description  관리자만 호출할 수 있습니다. 작성한 피드백과 댓글은 작성자 없이 남습니다
// @Tags         users
// @Security     BearerAuth
// @Param        id path string true "User ID (UUID)"
// @Success      204 "삭제 성공"
// @Failure      403 {object} response.ErrorResponse "권한 없음"
// @Failure      404 {object} response.ErrorResponse "사용자를 찾을 수 없음"
// @Router       /users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.userService.DeleteUser(c.Request.Context(), util.CallerFrom(c), userID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
