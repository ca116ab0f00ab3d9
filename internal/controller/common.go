package controller

import (
	"errors"
	"net/http"
	"thai_learn_backend/internal/util"
	"time"

	"github.com/gin-gonic/gin"
)

// DayResolver 在请求边界确定"今天"，服务层只接收日期字符串
type DayResolver struct {
	Loc *time.Location
	Now func() time.Time
}

func NewDayResolver(loc *time.Location) *DayResolver {
	return &DayResolver{Loc: loc, Now: time.Now}
}

func (r *DayResolver) Today() string {
	return util.Today(r.Now(), r.Loc)
}

// FromQuery 读取 date 参数，未提供时为今天
func (r *DayResolver) FromQuery(ctx *gin.Context) (string, error) {
	date := ctx.Query("date")
	if date == "" {
		return r.Today(), nil
	}
	return util.ParseDay(date)
}

// respondError 将领域错误映射为 HTTP 响应
func respondError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrInvalidDay),
		errors.Is(err, util.ErrInvalidLevel),
		errors.Is(err, util.ErrInvalidGameResult):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, util.ErrUserNotFound),
		errors.Is(err, util.ErrChallengeNotFound):
		util.Error(ctx, http.StatusNotFound, err.Error())
	case errors.Is(err, util.ErrLockNotAcquired):
		util.Conflict(ctx, err.Error())
	case errors.Is(err, util.ErrEmptyCatalogPolicy),
		errors.Is(err, util.ErrInvalidCatalogPolicy):
		util.Error(ctx, http.StatusServiceUnavailable, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}
