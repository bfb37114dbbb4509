package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"feedback-board-api/internal/dto"
	"feedback-board-api/internal/response"
	"feedback-board-api/internal/service"
	"feedback-board-api/internal/util"
)

type BoardHandler struct {
	boardService service.BoardService
}

func NewBoardHandler(boardService service.BoardService) *BoardHandler {
	return &BoardHandler{
		boardService: boardService,
	}
}

// CreateBoard godoc
// @Summary      Board 생성
// @Description  관리자만 생성할 수 있으며 생성자는 자동으로 멤버가 됩니다
// @Tags         boards
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body dto.CreateBoardRequest true "Board 생성 요청"
// @Success      201 {object} response.SuccessResponse{data=dto.BoardResponse} "Board 생성 성공"
// @Failure      400 {object} response.ErrorResponse "잘못된 요청"
// @Failure      401 {object} response.ErrorResponse "인증 필요"
// @Failure      403 {object} response.ErrorResponse "관리자 아님"
// @Router       /boards [post]
func (h *BoardHandler) CreateBoard(c *gin.Context) {
	var req dto.CreateBoardRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	board, err := h.boardService.CreateBoard(c.Request.Context(), util.CallerFrom(c), &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusCreated, board)
}

// ListBoards godoc
// @Summary      Board 목록 조회
// @Description  공개 Board와 호출자가 멤버인 비공개 Board만 반환합니다
// @Tags         boards
// @Produce      json
// @Security     BearerAuth
// @Param        page query int false "페이지 번호 (1부터)"
// @Param        name query string false "이름 정확히 일치"
// @Param        is_public query bool false "공개 여부"
// @Param        search query string false "이름/설명 검색"
// @Success      200 {object} response.SuccessResponse{data=dto.PageResponse[dto.BoardResponse]}
// @Failure      401 {object} response.ErrorResponse "인증 필요"
// @Router       /boards [get]
func (h *BoardHandler) ListBoards(c *gin.Context) {
	var query dto.BoardListQuery
	if !bindQuery(c, &query) {
		return
	}

	boards, err := h.boardService.ListBoards(c.Request.Context(), util.CallerFrom(c), &query)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, boards)
}

// GetBoard godoc
// @Summary      Board 조회
// @Tags         boards
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Board ID (UUID)"
// @Success      200 {object} response.SuccessResponse{data=dto.BoardResponse}
// @Failure      403 {object} response.ErrorResponse "비공개 Board"
// @Failure      404 {object} response.ErrorResponse "Board를 찾을 수 없음"
// @Router       /boards/{id} [get]
func (h *BoardHandler) GetBoard(c *gin.Context) {
	boardID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	board, err := h.boardService.GetBoard(c.Request.Context(), util.CallerFrom(c), boardID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, board)
}

// UpdateBoard godoc
// @Summary      Board 전체 수정
// @Description  관리자 전용. name은 필수입니다
// @Tags         boards
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Board ID (UUID)"
// @Param        request body dto.UpdateBoardRequest true "Board 수정 요청"
// @Success      200 {object} response.SuccessResponse{data=dto.BoardResponse}
// @Failure      400 {object} response.ErrorResponse "잘못된 요청"
// @Failure      403 {object} response.ErrorResponse "관리자 아님"
// @Failure      404 {object} response.ErrorResponse "Board를 찾을 수 없음"
// @Router       /boards/{id} [put]
func (h *BoardHandler) UpdateBoard(c *gin.Context) {
	h.update(c, false)
}

// PatchBoard godoc
// @Summary      Board 부분 수정
// @Description  관리자 전용. 전달된 필드만 변경합니다
// @Tags         boards
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Board ID (UUID)"
// @Param        request body dto.UpdateBoardRequest true "Board 수정 요청"
// @Success      200 {object} response.SuccessResponse{data=dto.BoardResponse}
// @Failure      403 {object} response.ErrorResponse "관리자 아님"
// @Failure      404 {object} response.ErrorResponse "Board를 찾을 수 없음"
// @Router       /boards/{id} [patch]
func (h *BoardHandler) PatchBoard(c *gin.Context) {
	h.update(c, true)
}

func (h *BoardHandler) update(c *gin.Context, partial bool) {
	boardID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateBoardRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	board, err := h.boardService.UpdateBoard(c.Request.Context(), util.CallerFrom(c), boardID, &req, partial)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, board)
}

// DeleteBoard godoc
// @Summary      Board 삭제
// @Description  관리자 전용. 피드백, 댓글, 추천, 멤버십이 함께 삭제됩니다
// @Tags         boards
// @Security     BearerAuth
// @Param        id path string true "Board ID (UUID)"
// @Success      204 "삭제 성공"
// @Failure      403 {object} response.ErrorResponse "관리자 아님"
// @Failure      404 {object} response.ErrorResponse "Board를 찾을 수 없음"
// @Router       /boards/{id} [delete]
func (h *BoardHandler) DeleteBoard(c *gin.Context) {
	boardID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.boardService.DeleteBoard(c.Request.Context(), util.CallerFrom(c), boardID); err != nil {
		handleServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// AddMember godoc
// @Summary      Board 멤버 추가
// @Description  관리자 전용. 이미 멤버인 사용자를 다시 추가해도 성공합니다
// @Tags         boards
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Board ID (UUID)"
// @Param        request body dto.AddMemberRequest true "추가할 사용자 이름"
// @Success      200 {object} response.SuccessResponse{data=dto.MemberAddedResponse}
// @Failure      400 {object} response.ErrorResponse "username 누락"
// @Failure      403 {object} response.ErrorResponse "관리자 아님"
// @Failure      404 {object} response.ErrorResponse "Board 또는 사용자를 찾을 수 없음"
// @Router       /boards/{id}/add-member [post]
func (h *BoardHandler) AddMember(c *gin.Context) {
	boardID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.AddMemberRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	result, err := h.boardService.AddMember(c.Request.Context(), util.CallerFrom(c), boardID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, result)
}
