package controller

import (
	"thai_learn_backend/internal/model"
	"thai_learn_backend/internal/service"
	"thai_learn_backend/internal/util"
	"thai_learn_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ProgressController struct {
	ProgressService  *service.ProgressService
	ChallengeService *service.ChallengeService
	Days             *DayResolver
}

func NewProgressController(
	progressService *service.ProgressService,
	challengeService *service.ChallengeService,
	days *DayResolver,
) *ProgressController {
	return &ProgressController{
		ProgressService:  progressService,
		ChallengeService: challengeService,
		Days:             days,
	}
}

// evaluateAfter 进度写入后触发评估；评估失败只记录日志，挑战保持 pending 由下次请求重试
func (c *ProgressController) evaluateAfter(ctx *gin.Context, userID uint, day string, signals model.EventSignals) *service.EvaluationResult {
	result, err := c.ChallengeService.Evaluate(ctx.Request.Context(), userID, day, signals)
	if err != nil {
		logger.Log.Warn("Evaluation after progress update failed",
			zap.Uint("userId", userID),
			zap.String("day", day),
			zap.Error(err),
		)
		return nil
	}
	return result
}

// @Summary 记录测验结果
// @Description 记录一局测验的结果并评估当天的挑战
// @Tags 学习进度
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param result body service.GameResult true "测验结果"
// @Success 200 {object} util.Response
// @Router /api/progress/games [post]
func (c *ProgressController) RecordGame(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.GameResult
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	day := c.Days.Today()
	record, err := c.ProgressService.RecordGameResult(ctx.Request.Context(), user.UserID, day, req)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"record":     record,
		"evaluation": c.evaluateAfter(ctx, user.UserID, day, model.EventSignals{}),
	})
}

// @Summary 每日登录
// @Description 记录当天登录（签到）并评估当天的挑战
// @Tags 学习进度
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/progress/login [post]
func (c *ProgressController) RecordLogin(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	day := c.Days.Today()
	record, err := c.ProgressService.RecordLogin(ctx.Request.Context(), user.UserID, day)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"record":     record,
		"evaluation": c.evaluateAfter(ctx, user.UserID, day, model.EventSignals{LoggedInToday: true}),
	})
}

// @Summary 进度快照
// @Description 获取某天的进度计数、事件信号和已发放的奖励
// @Tags 学习进度
// @Produce json
// @Security BearerAuth
// @Param date query string false "日期 YYYY-MM-DD，默认今天"
// @Success 200 {object} util.Response
// @Router /api/progress/snapshot [get]
func (c *ProgressController) GetSnapshot(ctx *gin.Context) {
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

	snapshot, err := c.ProgressService.GetSnapshot(ctx.Request.Context(), user.UserID, day)
	if err != nil {
		respondError(ctx, err)
		return
	}
	signals, err := c.ProgressService.GetSignals(ctx.Request.Context(), user.UserID, day)
	if err != nil {
		respondError(ctx, err)
		return
	}

	rewards, err := c.ProgressService.GetRewards(ctx.Request.Context(), user.UserID, day)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, gin.H{
		"day":      day,
		"snapshot": snapshot,
		"signals":  signals,
		"rewards":  rewards,
	})
}
