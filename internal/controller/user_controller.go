package controller

import (
	"thai_learn_backend/internal/model"
	"thai_learn_backend/internal/service"
	"thai_learn_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type UserController struct {
	UserService *service.UserService
}

func NewUserController(userService *service.UserService) *UserController {
	return &UserController{UserService: userService}
}

type UpdateLevelRequest struct {
	Level model.LearnerLevel `json:"level" binding:"required"`
}

// @Summary 获取学习者档案
// @Tags 用户
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/profile [get]
func (c *UserController) GetProfile(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	profile, err := c.UserService.GetProfile(ctx.Request.Context(), user.UserID)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, profile)
}

// @Summary 修改学习者水平
// @Description 修改后之后的评估按新水平筛选挑战
// @Tags 用户
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param level body UpdateLevelRequest true "Beginner / Intermediate / Advanced"
// @Success 200 {object} util.Response
// @Router /api/profile/level [put]
func (c *UserController) UpdateLevel(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req UpdateLevelRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	profile, err := c.UserService.UpdateLevel(ctx.Request.Context(), user.UserID, req.Level)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, profile)
}
