package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"feedback-board-api/internal/dto"
	"feedback-board-api/internal/response"
	"feedback-board-api/internal/service"
)

type AuthHandler struct {
	authService service.AuthService
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Register godoc
// @Summary      회원 가입
// @Description  새 계정을 만듭니다. 역할은 항상 contributor로 지정됩니다
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body dto.RegisterRequest true "가입 요청"
// @Success      201 {object} response.SuccessResponse{data=dto.UserResponse} "가입 성공"
// @Failure      400 {object} response.ErrorResponse "필드 검증 실패 또는 중복 사용자 이름"
// @Failure      429 {object} response.ErrorResponse "요청 한도 초과"
// @Router       /register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusCreated, user)
}

// ObtainToken godoc
// @Summary      토큰 발급
// @Description  사용자 이름과 비밀번호로 access/refresh 토큰을 발급합니다
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body dto.TokenRequest true "로그인 정보"
// @Success      200 {object} response.SuccessResponse{data=dto.TokenResponse} "발급 성공"
// @Failure      400 {object} response.ErrorResponse "필드 누락"
// @Failure      401 {object} response.ErrorResponse "잘못된 자격 증명"
// @Router       /auth/token [post]
func (h *AuthHandler) ObtainToken(c *gin.Context) {
	var req dto.TokenRequest
	if !bindJSON(c, &req) {
		return
	}

	pair, err := h.authService.ObtainToken(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, pair)
}

// RefreshToken godoc
// @Summary      토큰 갱신
// @Description  refresh 토큰으로 새 access 토큰을 발급합니다
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body dto.RefreshRequest true "refresh 토큰"
// @Success      200 {object} response.SuccessResponse{data=dto.TokenResponse} "갱신 성공"
// @Failure      401 {object} response.ErrorResponse "유효하지 않거나 만료된 토큰"
// @Router       /auth/token/refresh [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req dto.RefreshRequest
	if !bindJSON(c, &req) {
		return
	}

	pair, err := h.authService.RefreshToken(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, pair)
}
