package controller

import (
	"thai_learn_backend/internal/service"
	"thai_learn_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// AdminController 挑战目录运维接口
type AdminController struct {
	CatalogService   *service.CatalogService
	ChallengeService *service.ChallengeService
	Days             *DayResolver
}

func NewAdminController(
	catalogService *service.CatalogService,
	challengeService *service.ChallengeService,
	days *DayResolver,
) *AdminController {
	return &AdminController{
		CatalogService:   catalogService,
		ChallengeService: challengeService,
		Days:             days,
	}
}

type SetActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// @Summary 生成每日挑战目录
// @Description 幂等：已存在的定义原样返回，缺失的按配置补齐
// @Tags 管理后台
// @Produce json
// @Security BearerAuth
// @Param date query string false "日期 YYYY-MM-DD，默认今天"
// @Success 200 {object} util.Response
// @Router /api/admin/challenges/catalog [post]
func (c *AdminController) EnsureCatalog(ctx *gin.Context) {
	day, err := c.Days.FromQuery(ctx)
	if err != nil {
		respondError(ctx, err)
		return
	}

	defs, err := c.CatalogService.EnsureDailyCatalog(ctx.Request.Context(), day)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"day":        day,
		"challenges": defs,
	})
}

// @Summary 停用/恢复挑战
// @Tags 管理后台
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "挑战ID"
// @Param body body SetActiveRequest true "是否生效"
// @Success 200 {object} util.Response
// @Router /api/admin/challenges/{id}/active [patch]
func (c *AdminController) SetActive(ctx *gin.Context) {
	id := util.MustParseUint(ctx.Param("id"))
	if id == 0 {
		util.BadRequest(ctx, "invalid id")
		return
	}

	var req SetActiveRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	def, err := c.CatalogService.SetActive(ctx.Request.Context(), id, *req.Active)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, def)
}

// @Summary 重新评估某天
// @Description 对当天有活动的所有学习者重新评估挑战
// @Tags 管理后台
// @Produce json
// @Security BearerAuth
// @Param date query string false "日期 YYYY-MM-DD，默认今天"
// @Success 200 {object} util.Response
// @Router /api/admin/challenges/reevaluate [post]
func (c *AdminController) Reevaluate(ctx *gin.Context) {
	day, err := c.Days.FromQuery(ctx)
	if err != nil {
		respondError(ctx, err)
		return
	}

	summary, err := c.ChallengeService.ReevaluateDay(ctx.Request.Context(), day)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, summary)
}
