package controller

import (
	"thai_learn_backend/internal/model"
	"thai_learn_backend/internal/service"
	"thai_learn_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ChallengeController struct {
	ChallengeService *service.ChallengeService
	Days             *DayResolver
}

func NewChallengeController(challengeService *service.ChallengeService, days *DayResolver) *ChallengeController {
	return &ChallengeController{ChallengeService: challengeService, Days: days}
}

// @Summary 每日挑战
// @Description 获取当天适用于当前学习者的挑战及进度
// @Tags 每日挑战
// @Produce json
// @Security BearerAuth
// @Param date query string false "日期 YYYY-MM-DD，默认今天"
// @Success 200 {object} util.Response
// @Router /api/challenges/daily [get]
func (c *ChallengeController) GetDailyBoard(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	day, err := c.Days.FromQuery(ctx)
	if err != nil {
		respondError(ctx, err)
		return
	}

	items, err := c.ChallengeService.DailyBoard(ctx.Request.Context(), user.UserID, day)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"day":        day,
		"challenges": items,
	})
}

// @Summary 评估每日挑战
// @Description 根据当天进度评估挑战，新完成的挑战会发放奖励；事件信号只取自服务端记录
// @Tags 每日挑战
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /api/challenges/evaluate [post]
func (c *ChallengeController) Evaluate(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	result, err := c.ChallengeService.Evaluate(ctx.Request.Context(), user.UserID, c.Days.Today(), model.EventSignals{})
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, result)
}
