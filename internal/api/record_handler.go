package api

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/grimoire/internal/errors"
	"github.com/wfunc/grimoire/internal/game"
	"github.com/wfunc/grimoire/internal/middleware"
	"github.com/wfunc/grimoire/internal/repository"
)

// RecordHandler 对局记录处理器
type RecordHandler struct {
	games *game.GameService
}

// NewRecordHandler 创建对局记录处理器
func NewRecordHandler(games *game.GameService) *RecordHandler {
	return &RecordHandler{games: games}
}

// List 分页查询当前说书人的对局记录
func (h *RecordHandler) List(c *gin.Context) {
	storytellerID, _ := middleware.GetStorytellerID(c)
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	p := repository.NewPagination(page, pageSize)

	records, err := h.games.History(c.Request.Context(), storytellerID, p)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, PageResponse{
		Items:    records,
		Page:     p.Page,
		PageSize: p.PageSize,
		Total:    p.Total,
	})
}

// Get 单条记录
func (h *RecordHandler) Get(c *gin.Context) {
	storytellerID, _ := middleware.GetStorytellerID(c)
	record, err := h.games.Record(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if record.StorytellerID != storytellerID {
		respondError(c, errors.New(errors.ErrPermissionDenied, "不是该对局的说书人"))
		return
	}
	respondOK(c, record)
}

// Stats 胜负统计，days 默认 30
func (h *RecordHandler) Stats(c *gin.Context) {
	storytellerID, _ := middleware.GetStorytellerID(c)
	days, err := strconv.Atoi(c.DefaultQuery("days", "30"))
	if err != nil || days <= 0 {
		respondError(c, errors.Newf(errors.ErrInvalidParam, "days %q", c.Query("days")))
		return
	}

	stats, err := h.games.Statistics(c.Request.Context(), storytellerID, time.Now().AddDate(0, 0, -days))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, stats)
}
