package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"feedback-board-api/internal/dto"
	"feedback-board-api/internal/response"
	"feedback-board-api/internal/service"
	"feedback-board-api/internal/util"
)

type TagHandler struct {
	tagService service.TagService
}

func NewTagHandler(tagService service.TagService) *TagHandler {
	return &TagHandler{
		tagService: tagService,
	}
}

// CreateTag godoc
// @Summary      태그 생성
// @Description  로그인한 사용자 누구나 만들 수 있습니다. 대소문자만 다른 이름은 중복입니다
// @Tags         tags
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.TagRequest true "태그 이름"
// @Success      201 {object} response.SuccessResponse{data=dto.TagResponse}
// @Failure      400 {object} response.ErrorResponse "잘못된 이름"
// @Failure      401 {object} response.ErrorResponse "인증 필요"
// @Failure      409 {object} response.ErrorResponse "이미 존재하는 태그"
// @Router       /tags [post]
func (h *TagHandler) CreateTag(c *gin.Context) {
	var req dto.TagRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	tag, err := h.tagService.CreateTag(c.Request.Context(), util.CallerFrom(c), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusCreated, tag)
}

// ListTags godoc
// @Summary      태그 목록 조회
// @Description  인증 없이 조회할 수 있습니다. 이름순으로 정렬됩니다
// @Tags         tags
// @Produce      json
// @Param        page query int false "페이지 번호 (1부터)"
// @Param        search query string false "이름 검색"
// @Success      200 {object} response.SuccessResponse{data=dto.PageResponse[dto.TagResponse]}
// @Router       /tags [get]
func (h *TagHandler) ListTags(c *gin.Context) {
	var query dto.TagListQuery
	if !bindQuery(c, &query) {
		return
	}

	tags, err := h.tagService.ListTags(c.Request.Context(), util.CallerFrom(c), &query)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, tags)
}

// GetTag godoc
// @Summary      태그 조회
// @Tags         tags
// @Produce      json
// @Param        id path string true "Tag ID (UUID)"
// @Success      200 {object} response.SuccessResponse{data=dto.TagResponse}
// @Failure      404 {object} response.ErrorResponse "태그를 찾을 수 없음"
// @Router       /tags/{id} [get]
func (h *TagHandler) GetTag(c *gin.Context) {
	tagID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	tag, err := h.tagService.GetTag(c.Request.Context(), util.CallerFrom(c), tagID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, tag)
}

// UpdateTag godoc
// @Summary      태그 이름 변경
// @Description  관리자 전용. PUT과 PATCH 모두 name만 받습니다
// @Tags         tags
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Tag ID (UUID)"
// @Param        request body dto.TagRequest true "새 이름"
// @Success      200 {object} response.SuccessResponse{data=dto.TagResponse}
// @Failure      403 {object} response.ErrorResponse "관리자 아님"
// @Failure      404 {object} response.ErrorResponse "태그를 찾을 수 없음"
// @Failure      409 {object} response.ErrorResponse "이미 존재하는 태그"
// @Router       /tags/{id} [put]
func (h *TagHandler) UpdateTag(c *gin.Context) {
	tagID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.TagRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	tag, err := h.tagService.UpdateTag(c.Request.Context(), util.CallerFrom(c), tagID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, tag)
}

// DeleteTag godoc
// @Summary      태그 삭제
// @Description  관리자 전용. 피드백에서 태그 연결도 함께 제거됩니다
// @Tags         tags
// @Security     BearerAuth
// @Param        id path string true "Tag ID (UUID)"
// @Success      204 "삭제 성공"
// @Failure      403 {object} response.ErrorResponse "관리자 아님"
// @Failure      404 {object} response.ErrorResponse "태그를 찾을 수 없음"
// @Router       /tags/{id} [delete]
func (h *TagHandler) DeleteTag(c *gin.Context) {
	tagID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.tagService.DeleteTag(c.Request.Context(), util.CallerFrom(c), tagID); err != nil {
		handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
