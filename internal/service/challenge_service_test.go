package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"thai_learn_backend/internal/config"
	"thai_learn_backend/internal/model"
	"thai_learn_backend/internal/util"
	"thai_learn_backend/pkg/lock"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestEvaluate_XPGoalScenario(t *testing.T) {
	env := newTestEnv(t, template(model.KindXPGoal, 100, config.TemplateReward{XPBonus: 50}))
	user := seedUser(t, env.db, 1, model.LevelBeginner)
	ctx := context.Background()

	// xp=80：仍为 pending
	env.addDailyXP(t, user.ID, 80)
	res, err := env.challenge.Evaluate(ctx, user.ID, testDay, model.EventSignals{})
	require.NoError(t, err)
	assert.Empty(t, res.Completed)
	require.Len(t, res.Pending, 1)
	assert.Equal(t, 80, res.Pending[0].CurrentValue)

	p := env.progressOf(t, user.ID, model.KindXPGoal)
	require.NotNil(t, p)
	assert.Equal(t, model.ChallengePending, p.Status)
	assert.Nil(t, p.CompletedAt)

	// xp=120：完成并发放 50 XP
	env.addDailyXP(t, user.ID, 40)
	res, err = env.challenge.Evaluate(ctx, user.ID, testDay, model.EventSignals{})
	require.NoError(t, err)
	require.Len(t, res.Completed, 1)
	assert.Equal(t, model.ChallengeReward{XPBonus: 50}, res.Completed[0].Reward)
	assert.Empty(t, res.Pending)

	p = env.progressOf(t, user.ID, model.KindXPGoal)
	assert.Equal(t, model.ChallengeCompleted, p.Status)
	require.NotNil(t, p.CompletedAt)
	completedAt := *p.CompletedAt

	profile, err := env.progress.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 120+50, profile.XP)

	// xp=150：已完成，奖励批次为空
	env.addDailyXP(t, user.ID, 30)
	res, err = env.challenge.Evaluate(ctx, user.ID, testDay, model.EventSignals{})
	require.NoError(t, err)
	assert.Empty(t, res.Completed)

	p = env.progressOf(t, user.ID, model.KindXPGoal)
	assert.Equal(t, model.ChallengeCompleted, p.Status)
	assert.True(t, completedAt.Equal(*p.CompletedAt))
	assert.Equal(t, 120, p.CurrentValue)

	profile, err = env.progress.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 150+50, profile.XP)
}

func TestEvaluate_MultipleCompletionsOrderedByID(t *testing.T) {
	env := newTestEnv(t,
		template(model.KindPerfectScores, 3, config.TemplateReward{XPBonus: 75, Badge: "flawless"}),
		template(model.KindGamesPlayed, 5, config.TemplateReward{XPBonus: 25}),
	)
	user := seedUser(t, env.db, 1, model.LevelBeginner)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		r := GameResult{XPEarned: 5, CorrectAnswers: 10, TotalQuestions: 10}
		if i >= 3 {
			r.CorrectAnswers = 7
		}
		_, err := env.progress.RecordGameResult(ctx, user.ID, testDay, r)
		require.NoError(t, err)
	}

	res, err := env.challenge.Evaluate(ctx, user.ID, testDay, model.EventSignals{})
	require.NoError(t, err)
	require.Len(t, res.Completed, 2)
	assert.Less(t, res.Completed[0].ChallengeID, res.Completed[1].ChallengeID)
	assert.Equal(t, model.KindPerfectScores, res.Completed[0].Kind)
	assert.Equal(t, model.KindGamesPlayed, res.Completed[1].Kind)

	// 徽章作为挑战来源的成就写入
	achievements, err := env.repos.achievement.FindByUserID(ctx, user.ID)
	require.NoError(t, err)
	var badge *model.Achievement
	for i := range achievements {
		if achievements[i].Code == "badge-flawless" {
			badge = &achievements[i]
		}
	}
	require.NotNil(t, badge)
	assert.Equal(t, model.AchievementChallenge, badge.Source)
}

func TestEvaluate_MonotonicGateAfterCounterRollback(t *testing.T) {
	env := newTestEnv(t, template(model.KindXPGoal, 100, config.TemplateReward{XPBonus: 50}))
	user := seedUser(t, env.db, 1, model.LevelBeginner)
	ctx := context.Background()

	env.addDailyXP(t, user.ID, 120)
	res, err := env.challenge.Evaluate(ctx, user.ID, testDay, model.EventSignals{})
	require.NoError(t, err)
	require.Len(t, res.Completed, 1)

	// 计数被修正回退
	require.NoError(t, env.db.Model(&model.DailyProgress{}).
		Where("user_id = ? AND day = ?", user.ID, testDay).
		Update("xp_earned", 10).Error)

	res, err = env.challenge.Evaluate(ctx, user.ID, testDay, model.EventSignals{})
	require.NoError(t, err)
	assert.Empty(t, res.Completed)
	assert.Empty(t, res.Pending)
	assert.Equal(t, model.ChallengeCompleted, env.progressOf(t, user.ID, model.KindXPGoal).Status)
}

func TestEvaluate_LevelFilterCreatesNoProgress(t *testing.T) {
	env := newTestEnv(t,
		template(model.KindGamesPlayed, 1, config.TemplateReward{XPBonus: 10}, "Advanced"),
		template(model.KindXPGoal, 10, config.TemplateReward{XPBonus: 10}),
	)
	user := seedUser(t, env.db, 1, model.LevelBeginner)
	ctx := context.Background()

	env.addDailyXP(t, user.ID, 500)
	res, err := env.challenge.Evaluate(ctx, user.ID, testDay, model.EventSignals{})
	require.NoError(t, err)
	require.Len(t, res.Completed, 1)
	assert.Equal(t, model.KindXPGoal, res.Completed[0].Kind)

	assert.Nil(t, env.progressOf(t, user.ID, model.KindGamesPlayed))

	board, err := env.challenge.DailyBoard(ctx, user.ID, testDay)
	require.NoError(t, err)
	require.Len(t, board, 1)
	assert.Equal(t, model.KindXPGoal, board[0].Definition.Kind)
	assert.Equal(t, model.ChallengeCompleted, board[0].Status)
}

func TestEvaluate_EventSignals(t *testing.T) {
	env := newTestEnv(t,
		template(model.KindDailyLogin, 1, config.TemplateReward{XPBonus: 10}),
		template(model.KindSpecialAchievement, 1, config.TemplateReward{SpecialReward: "golden-elephant-sticker"}),
	)
	user := seedUser(t, env.db, 1, model.LevelBeginner)
	ctx := context.Background()

	res, err := env.challenge.Evaluate(ctx, user.ID, testDay, model.EventSignals{})
	require.NoError(t, err)
	assert.Empty(t, res.Completed)
	assert.Len(t, res.Pending, 2)

	// 签到后由存储的签到记录得出信号
	_, err = env.progress.RecordLogin(ctx, user.ID, testDay)
	require.NoError(t, err)
	res, err = env.challenge.Evaluate(ctx, user.ID, testDay, model.EventSignals{})
	require.NoError(t, err)
	require.Len(t, res.Completed, 1)
	assert.Equal(t, model.KindDailyLogin, res.Completed[0].Kind)

	// 调用方显式传入的信号
	res, err = env.challenge.Evaluate(ctx, user.ID, testDay, model.EventSignals{UnlockedSpecialAchievement: true})
	require.NoError(t, err)
	require.Len(t, res.Completed, 1)
	assert.Equal(t, "golden-elephant-sticker", res.Completed[0].Reward.SpecialReward)
}

func TestEvaluate_UnknownKindReported(t *testing.T) {
	env := newTestEnv(t, template(model.KindXPGoal, 10, config.TemplateReward{XPBonus: 5}))
	user := seedUser(t, env.db, 1, model.LevelBeginner)
	ctx := context.Background()

	_, err := env.catalog.EnsureDailyCatalog(ctx, testDay)
	require.NoError(t, err)

	// 旧版本写入的、当前不认识的类型
	legacy := &model.ChallengeDefinition{EffectiveDate: testDay, Kind: "words_spoken", TargetValue: 3, Active: true}
	require.NoError(t, env.db.Create(legacy).Error)
	env.catalog.cache.Purge()

	env.addDailyXP(t, user.ID, 20)
	res, err := env.challenge.Evaluate(ctx, user.ID, testDay, model.EventSignals{})
	require.NoError(t, err)
	require.Len(t, res.Ignored, 1)
	assert.Equal(t, legacy.ID, res.Ignored[0].ChallengeID)
	require.Len(t, res.Completed, 1)
	assert.Equal(t, model.KindXPGoal, res.Completed[0].Kind)
}

func TestEvaluate_ConcurrentCallsGrantRewardOnce(t *testing.T) {
	env := newTestEnv(t, template(model.KindXPGoal, 100, config.TemplateReward{XPBonus: 50, StreakBonus: 1}))
	user := seedUser(t, env.db, 1, model.LevelBeginner)
	ctx := context.Background()
	env.addDailyXP(t, user.ID, 150)

	const n = 10
	results := make([]*EvaluationResult, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = env.challenge.Evaluate(ctx, user.ID, testDay, model.EventSignals{})
		}(i)
	}
	wg.Wait()

	granted := 0
	for i := 0; i < n; i++ {
		if errors.Is(errs[i], util.ErrLockNotAcquired) {
			continue
		}
		require.NoError(t, errs[i])
		granted += len(results[i].Completed)
	}
	assert.Equal(t, 1, granted)

	var grants int64
	require.NoError(t, env.db.Model(&model.RewardGrant{}).Where("user_id = ?", user.ID).Count(&grants).Error)
	assert.Equal(t, int64(1), grants)

	profile, err := env.progress.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 150+50, profile.XP)
	assert.Equal(t, 1, profile.Streak)
}

// noopLocker 不加锁，并发评估只能靠数据库条件更新保证只完成一次
type noopLocker struct{}

func (noopLocker) Lock(context.Context, string) (func(), error) {
	return func() {}, nil
}

func TestEvaluate_RacingWithoutLockGrantsOnce(t *testing.T) {
	env := newTestEnv(t, template(model.KindXPGoal, 100, config.TemplateReward{XPBonus: 50}))
	user := seedUser(t, env.db, 1, model.LevelBeginner)
	ctx := context.Background()
	env.addDailyXP(t, user.ID, 150)

	_, err := env.catalog.EnsureDailyCatalog(ctx, testDay)
	require.NoError(t, err)

	svc := NewChallengeService(env.db, env.repos.challenge, env.catalog, env.progress, noopLocker{}, time.Second, 1)

	const n = 10
	results := make([]*EvaluationResult, n)
	errs := make([]error, n)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			results[i], errs[i] = svc.Evaluate(ctx, user.ID, testDay, model.EventSignals{})
		}(i)
	}
	close(start)
	wg.Wait()

	granted := 0
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		granted += len(results[i].Completed)
	}
	assert.Equal(t, 1, granted)

	var grants, rows, completed int64
	require.NoError(t, env.db.Model(&model.RewardGrant{}).Where("user_id = ?", user.ID).Count(&grants).Error)
	require.NoError(t, env.db.Model(&model.ChallengeProgress{}).Where("user_id = ?", user.ID).Count(&rows).Error)
	require.NoError(t, env.db.Model(&model.ChallengeProgress{}).
		Where("user_id = ? AND status = ?", user.ID, model.ChallengeCompleted).Count(&completed).Error)
	assert.Equal(t, int64(1), grants)
	assert.Equal(t, int64(1), rows)
	assert.Equal(t, int64(1), completed)

	profile, err := env.progress.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 200, profile.XP)
}

func TestEvaluate_StreakGoalNeedsUnbrokenChain(t *testing.T) {
	env := newTestEnv(t, template(model.KindStreakGoal, 7, config.TemplateReward{XPBonus: 100}))
	user := seedUser(t, env.db, 1, model.LevelBeginner)
	ctx := context.Background()

	for _, d := range []string{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05", "2024-01-06", "2024-01-07"} {
		_, err := env.progress.RecordLogin(ctx, user.ID, d)
		require.NoError(t, err)
	}

	// 断签十多天后只打游戏
	_, err := env.progress.RecordGameResult(ctx, user.ID, "2024-01-20", GameResult{XPEarned: 10})
	require.NoError(t, err)
	res, err := env.challenge.Evaluate(ctx, user.ID, "2024-01-20", model.EventSignals{})
	require.NoError(t, err)
	assert.Empty(t, res.Completed)
	require.Len(t, res.Pending, 1)
	assert.Zero(t, res.Pending[0].CurrentValue)

	// 过去的日期按当天的连续天数评估
	res, err = env.challenge.Evaluate(ctx, user.ID, "2024-01-03", model.EventSignals{})
	require.NoError(t, err)
	assert.Empty(t, res.Completed)
	require.Len(t, res.Pending, 1)
	assert.Equal(t, 3, res.Pending[0].CurrentValue)

	res, err = env.challenge.Evaluate(ctx, user.ID, "2024-01-07", model.EventSignals{})
	require.NoError(t, err)
	require.Len(t, res.Completed, 1)
	assert.Equal(t, model.KindStreakGoal, res.Completed[0].Kind)
}

// failingStore 奖励写入失败
type failingStore struct {
	*ProgressService
}

func (s failingStore) ApplyReward(ctx context.Context, tx *gorm.DB, grant *model.RewardGrant) (bool, error) {
	return false, errors.New("profile store unavailable")
}

func TestEvaluate_RewardFailureLeavesChallengePending(t *testing.T) {
	env := newTestEnv(t, template(model.KindXPGoal, 100, config.TemplateReward{XPBonus: 50}))
	user := seedUser(t, env.db, 1, model.LevelBeginner)
	ctx := context.Background()
	env.addDailyXP(t, user.ID, 120)

	broken := NewChallengeService(env.db, env.repos.challenge, env.catalog, failingStore{env.progress}, lock.NewLocalLocker(), time.Second, 1)
	_, err := broken.Evaluate(ctx, user.ID, testDay, model.EventSignals{})
	require.Error(t, err)

	// 事务回滚：既没有进度行也没有奖励
	assert.Nil(t, env.progressOf(t, user.ID, model.KindXPGoal))

	// 恢复后重试成功且只发放一次
	res, err := env.challenge.Evaluate(ctx, user.ID, testDay, model.EventSignals{})
	require.NoError(t, err)
	require.Len(t, res.Completed, 1)

	profile, err := env.progress.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 170, profile.XP)
}

func TestEvaluate_LockTimeout(t *testing.T) {
	env := newTestEnv(t, template(model.KindXPGoal, 100, config.TemplateReward{XPBonus: 50}))
	user := seedUser(t, env.db, 1, model.LevelBeginner)

	locker := lock.NewLocalLocker()
	svc := NewChallengeService(env.db, env.repos.challenge, env.catalog, env.progress, locker, 20*time.Millisecond, 1)

	unlock, err := locker.Lock(context.Background(), userLockKey(user.ID))
	require.NoError(t, err)
	defer unlock()

	_, err = svc.Evaluate(context.Background(), user.ID, testDay, model.EventSignals{})
	assert.ErrorIs(t, err, util.ErrLockNotAcquired)
}

func TestEvaluate_UnknownUser(t *testing.T) {
	env := newTestEnv(t, template(model.KindXPGoal, 100, config.TemplateReward{XPBonus: 50}))
	_, err := env.challenge.Evaluate(context.Background(), 42, testDay, model.EventSignals{})
	assert.ErrorIs(t, err, util.ErrUserNotFound)
}

func TestReevaluateDay(t *testing.T) {
	env := newTestEnv(t, template(model.KindXPGoal, 100, config.TemplateReward{XPBonus: 50}))
	ctx := context.Background()

	for id := uint(1); id <= 4; id++ {
		seedUser(t, env.db, id, model.LevelBeginner)
	}
	env.addDailyXP(t, 1, 150)
	env.addDailyXP(t, 2, 20)
	env.addDailyXP(t, 3, 100)
	// 用户 4 当天没有活动

	summary, err := env.challenge.ReevaluateDay(ctx, testDay)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Users)
	assert.Equal(t, 2, summary.Completed)
	assert.Zero(t, summary.Failed)

	// 再次执行不会重复发放
	summary, err = env.challenge.ReevaluateDay(ctx, testDay)
	require.NoError(t, err)
	assert.Zero(t, summary.Completed)
}
