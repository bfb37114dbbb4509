package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"feedback-board-api/internal/dto"
	"feedback-board-api/internal/response"
	"feedback-board-api/internal/service"
	"feedback-board-api/internal/util"
)

type FeedbackHandler struct {
	feedbackService service.FeedbackService
}

func NewFeedbackHandler(feedbackService service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{
		feedbackService: feedbackService,
	}
}

// CreateFeedback godoc
// @Summary      피드백 작성
// @Description  상태는 항상 open으로 시작합니다. tag_names는 대소문자 구분 없이 기존 태그를 재사용하거나 새로 만듭니다
// @Tags         feedback
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.FeedbackRequest true "피드백 작성 요청"
// @Success      201 {object} response.SuccessResponse{data=dto.FeedbackResponse}
// @Failure      400 {object} response.ErrorResponse "필드 검증 실패"
// @Failure      401 {object} response.ErrorResponse "인증 필요"
// @Router       /feedback [post]
func (h *FeedbackHandler) CreateFeedback(c *gin.Context) {
	var req dto.FeedbackRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	feedback, err := h.feedbackService.CreateFeedback(c.Request.Context(), util.CallerFrom(c), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusCreated, feedback)
}

// ListFeedback godoc
// @Summary      피드백 목록 조회
// @Description  볼 수 있는 Board의 피드백만 반환합니다. 기본 정렬은 추천 수 내림차순입니다
// @Tags         feedback
// @Produce      json
// @Security     BearerAuth
// @Param        page query int false "페이지 번호 (1부터)"
// @Param        status query string false "open, in_progress, completed"
// @Param        feedback_type query string false "feature, bug, suggestion"
// @Param        board query string false "Board ID"
// @Param        tags query string false "Tag ID"
// @Param        tag_name query string false "태그 이름 부분 일치"
// @Param        search query string false "제목/설명 검색"
// @Param        ordering query string false "created_at, upvotes, title, status (앞에 - 붙이면 내림차순)"
// @Success      200 {object} response.SuccessResponse{data=dto.PageResponse[dto.FeedbackResponse]}
// @Failure      400 {object} response.ErrorResponse "잘못된 필터 또는 정렬"
// @Failure      401 {object} response.ErrorResponse "인증 필요"
// @Router       /feedback [get]
func (h *FeedbackHandler) ListFeedback(c *gin.Context) {
	var query dto.FeedbackListQuery
	if !bindQuery(c, &query) {
		return
	}

	page, err := h.feedbackService.ListFeedback(c.Request.Context(), util.CallerFrom(c), &query)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, page)
}

// GetFeedback godoc
// @Summary      피드백 조회
// @Tags         feedback
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Feedback ID (UUID)"
// @Success      200 {object} response.SuccessResponse{data=dto.FeedbackResponse}
// @Failure      403 {object} response.ErrorResponse "볼 수 없는 Board"
// @Failure      404 {object} response.ErrorResponse "피드백을 찾을 수 없음"
// @Router       /feedback/{id} [get]
func (h *FeedbackHandler) GetFeedback(c *gin.Context) {
	feedbackID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	feedback, err := h.feedbackService.GetFeedback(c.Request.Context(), util.CallerFrom(c), feedbackID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, feedback)
}

// UpdateFeedback godoc
// @Summary      피드백 전체 수정
// @Description  작성자 또는 관리자. title과 board는 필수이며 태그를 보내면 전체가 교체됩니다
// @Tags         feedback
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Feedback ID (UUID)"
// @Param        request body dto.FeedbackRequest true "피드백 수정 요청"
// @Success      200 {object} response.SuccessResponse{data=dto.FeedbackResponse}
// @Failure      400 {object} response.ErrorResponse "필드 검증 실패"
// @Failure      403 {object} response.ErrorResponse "권한 없음"
// @Failure      404 {object} response.ErrorResponse "피드백을 찾을 수 없음"
// @Router       /feedback/{id} [put]
func (h *FeedbackHandler) UpdateFeedback(c *gin.Context) {
	h.update(c, false)
}

// PatchFeedback godoc
// @Summary      피드백 부분 수정
// @Description  작성자 또는 관리자. 전달된 필드만 변경합니다
// @Tags         feedback
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Feedback ID (UUID)"
// @Param        request body dto.FeedbackRequest true "피드백 수정 요청"
// @Success      200 {object} response.SuccessResponse{data=dto.FeedbackResponse}
// @Failure      403 {object} response.ErrorResponse "권한 없음"
// @Failure      404 {object} response.ErrorResponse "피드백을 찾을 수 없음"
// @Router       /feedback/{id} [patch]
func (h *FeedbackHandler) PatchFeedback(c *gin.Context) {
	h.update(c, true)
}

func (h *FeedbackHandler) update(c *gin.Context, partial bool) {
	feedbackID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.FeedbackRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	feedback, err := h.feedbackService.UpdateFeedback(c.Request.Context(), util.CallerFrom(c), feedbackID, &req, partial)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, feedback)
}

// DeleteFeedback godoc
// @Summary      피드백 삭제
// @Description  작성자 또는 관리자. 댓글, 태그 연결, 추천이 함께 삭제됩니다
// @Tags         feedback
// @Security     BearerAuth
// @Param        id path string true "Feedback ID (UUID)"
// @Success      204 "삭제 성공"
// @Failure      403 {object} response.ErrorResponse "권한 없음"
// @Failure      404 {object} response.ErrorResponse "피드백을 찾을 수 없음"
// @Router       /feedback/{id} [delete]
func (h *FeedbackHandler) DeleteFeedback(c *gin.Context) {
	feedbackID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.feedbackService.DeleteFeedback(c.Request.Context(), util.CallerFrom(c), feedbackID); err != nil {
		handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ToggleUpvote godoc
// @Summary      추천 토글
// @Description  이미 추천했으면 취소하고, 아니면 추천합니다
// @Tags         feedback
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Feedback ID (UUID)"
// @Success      200 {object} response.SuccessResponse{data=dto.UpvoteResponse}
// @Failure      403 {object} response.ErrorResponse "볼 수 없는 Board"
// @Failure      404 {object} response.ErrorResponse "피드백을 찾을 수 없음"
// @Router       /feedback/{id}/upvote [post]
func (h *FeedbackHandler) ToggleUpvote(c *gin.Context) {
	feedbackID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	result, err := h.feedbackService.ToggleUpvote(c.Request.Context(), util.CallerFrom(c), feedbackID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, result)
}

// MoveFeedback godoc
// @Summary      피드백 상태 이동
// @Description  관리자 전용. open, in_progress, completed 사이를 자유롭게 이동합니다
// @Tags         feedback
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Feedback ID (UUID)"
// @Param        request body dto.MoveFeedbackRequest true "새 상태"
// @Success      200 {object} response.SuccessResponse{data=dto.FeedbackResponse}
// @Failure      400 {object} response.ErrorResponse "잘못된 상태"
// @Failure      403 {object} response.ErrorResponse "관리자 아님"
// @Failure      404 {object} response.ErrorResponse "피드백을 찾을 수 없음"
// @Router       /feedback/{id}/move [post]
func (h *FeedbackHandler) MoveFeedback(c *gin.Context) {
	feedbackID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.MoveFeedbackRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	feedback, err := h.feedbackService.MoveFeedback(c.Request.Context(), util.CallerFrom(c), feedbackID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, feedback)
}
