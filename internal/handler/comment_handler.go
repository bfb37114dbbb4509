package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"feedback-board-api/internal/dto"
	"feedback-board-api/internal/response"
	"feedback-board-api/internal/service"
	"feedback-board-api/internal/util"
)

type CommentHandler struct {
	commentService service.CommentService
}

func NewCommentHandler(commentService service.CommentService) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
	}
}

// CreateComment godoc
// @Summary      댓글 작성
// @Tags         comments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.CreateCommentRequest true "댓글 작성 요청"
// @Success      201 {object} response.SuccessResponse{data=dto.CommentResponse}
// @Failure      400 {object} response.ErrorResponse "필드 검증 실패"
// @Failure      401 {object} response.ErrorResponse "인증 필요"
// @Router       /comments [post]
func (h *CommentHandler) CreateComment(c *gin.Context) {
	var req dto.CreateCommentRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	comment, err := h.commentService.CreateComment(c.Request.Context(), util.CallerFrom(c), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusCreated, comment)
}

// ListComments godoc
// @Summary      댓글 목록 조회
// @Description  오래된 순으로 반환합니다
// @Tags         comments
// @Produce      json
// @Security     BearerAuth
// @Param        page query int false "페이지 번호 (1부터)"
// @Param        feedback query string false "Feedback ID"
// @Success      200 {object} response.SuccessResponse{data=dto.PageResponse[dto.CommentResponse]}
// @Failure      401 {object} response.ErrorResponse "인증 필요"
// @Router       /comments [get]
func (h *CommentHandler) ListComments(c *gin.Context) {
	var query dto.CommentListQuery
	if !bindQuery(c, &query) {
		return
	}

	comments, err := h.commentService.ListComments(c.Request.Context(), util.CallerFrom(c), &query)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, comments)
}

// GetComment godoc
// @Summary      댓글 조회
// @Tags         comments
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Comment ID (UUID)"
// @Success      200 {object} response.SuccessResponse{data=dto.CommentResponse}
// @Failure      403 {object} response.ErrorResponse "볼 수 없는 Board"
// @Failure      404 {object} response.ErrorResponse "댓글을 찾을 수 없음"
// @Router       /comments/{id} [get]
func (h *CommentHandler) GetComment(c *gin.Context) {
	commentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	comment, err := h.commentService.GetComment(c.Request.Context(), util.CallerFrom(c), commentID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, comment)
}

// UpdateComment godoc
// @Summary      댓글 수정
// @Description  작성자 또는 관리자
// @Tags         comments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Comment ID (UUID)"
// @Param        request body dto.UpdateCommentRequest true "댓글 수정 요청"
// @Success      200 {object} response.SuccessResponse{data=dto.CommentResponse}
// @Failure      400 {object} response.ErrorResponse "필드 검증 실패"
// @Failure      403 {object} response.ErrorResponse "권한 없음"
// @Failure      404 {object} response.ErrorResponse "댓글을 찾을 수 없음"
// @Router       /comments/{id} [put]
func (h *CommentHandler) UpdateComment(c *gin.Context) {
	h.update(c, false)
}

// PatchComment godoc
// @Summary      댓글 부분 수정
// @Tags         comments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Comment ID (UUID)"
// @Param        request body dto.UpdateCommentRequest true "댓글 수정 요청"
// @Success      200 {object} response.SuccessResponse{data=dto.CommentResponse}
// @Router       /comments/{id} [patch]
func (h *CommentHandler) PatchComment(c *gin.Context) {
	h.update(c, true)
}

func (h *CommentHandler) update(c *gin.Context, partial bool) {
	commentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateCommentRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	comment, err := h.commentService.UpdateComment(c.Request.Context(), util.CallerFrom(c), commentID, &req, partial)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, comment)
}

// DeleteComment godoc
// @Summary      댓글 삭제
// @Description  작성자 또는 관리자
// @Tags         comments
// @Security     BearerAuth
// @Param        id path string true "Comment ID (UUID)"
// @Success      204 "삭제 성공"
// @Failure      403 {object} response.ErrorResponse "권한 없음"
// @Failure      404 {object} response.ErrorResponse "댓글을 찾을 수 없음"
// @Router       /comments/{id} [delete]
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	commentID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.commentService.DeleteComment(c.Request.Context(), util.CallerFrom(c), commentID); err != nil {
		handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
