package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"thai_learn_backend/internal/model"
	"thai_learn_backend/internal/repository"
	"thai_learn_backend/internal/util"
	"thai_learn_backend/pkg/lock"
	"thai_learn_backend/pkg/logger"
	"thai_learn_backend/pkg/monitoring"
	"thai_learn_backend/pkg/tracing"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// ProgressStore 挑战引擎读取快照、发放奖励所依赖的进度存储
type ProgressStore interface {
	GetProfile(ctx context.Context, userID uint) (*model.User, error)
	GetSnapshot(ctx context.Context, userID uint, day string) (model.ProgressSnapshot, error)
	GetSignals(ctx context.Context, userID uint, day string) (model.EventSignals, error)
	// ApplyReward 必须在 tx 内完成，返回 false 表示已发放过
	ApplyReward(ctx context.Context, tx *gorm.DB, grant *model.RewardGrant) (bool, error)
	ActiveUserIDs(ctx context.Context, day string) ([]uint, error)
}

// CatalogProvider 提供某天生效的挑战目录
type CatalogProvider interface {
	EnsureDailyCatalog(ctx context.Context, day string) ([]model.ChallengeDefinition, error)
}

type CompletedChallenge struct {
	ChallengeID uint                  `json:"challengeId"`
	Kind        model.ChallengeKind   `json:"kind"`
	Title       string                `json:"title"`
	CompletedAt time.Time             `json:"completedAt"`
	Reward      model.ChallengeReward `json:"reward"`
}

type PendingProgress struct {
	ChallengeID  uint                `json:"challengeId"`
	Kind         model.ChallengeKind `json:"kind"`
	CurrentValue int                 `json:"currentValue"`
	TargetValue  int                 `json:"targetValue"`
}

// EvaluationResult 一次评估的结果，Completed 即本次应发放的奖励批次
type EvaluationResult struct {
	EvaluationID string               `json:"evaluationId"`
	Day          string               `json:"day"`
	Completed    []CompletedChallenge `json:"completed"`
	Ignored      []IgnoredChallenge   `json:"ignored"`
	Pending      []PendingProgress    `json:"pending"`
}

// BoardItem 每日挑战面板中的一项
type BoardItem struct {
	Definition   model.ChallengeDefinition `json:"definition"`
	CurrentValue int                       `json:"currentValue"`
	Status       model.ChallengeStatus     `json:"status"`
	CompletedAt  *time.Time                `json:"completedAt,omitempty"`
}

type ReevaluateSummary struct {
	Day       string `json:"day"`
	Users     int    `json:"users"`
	Completed int    `json:"completed"`
	Failed    int    `json:"failed"`
}

type ChallengeService struct {
	db            *gorm.DB
	ChallengeRepo *repository.ChallengeRepository
	catalog       CatalogProvider
	store         ProgressStore
	locker        lock.Locker
	lockWait      time.Duration
	concurrency   int
	now           func() time.Time
}

func NewChallengeService(
	db *gorm.DB,
	challengeRepo *repository.ChallengeRepository,
	catalog CatalogProvider,
	store ProgressStore,
	locker lock.Locker,
	lockWait time.Duration,
	concurrency int,
) *ChallengeService {
	if lockWait <= 0 {
		lockWait = 5 * time.Second
	}
	if concurrency <= 0 {
		concurrency = 8
	}
	return &ChallengeService{
		db:            db,
		ChallengeRepo: challengeRepo,
		catalog:       catalog,
		store:         store,
		locker:        locker,
		lockWait:      lockWait,
		concurrency:   concurrency,
		now:           time.Now,
	}
}

func userLockKey(userID uint) string {
	return fmt.Sprintf("challenge:user:%d", userID)
}

// Evaluate 评估用户当天的挑战，extra 为调用方额外提供的事件信号
// 同一用户的评估串行执行；拿到锁之后不再响应取消
func (s *ChallengeService) Evaluate(ctx context.Context, userID uint, day string, extra model.EventSignals) (*EvaluationResult, error) {
	day, err := util.ParseDay(day)
	if err != nil {
		return nil, err
	}

	lockCtx, cancel := context.WithTimeout(ctx, s.lockWait)
	unlock, err := s.locker.Lock(lockCtx, userLockKey(userID))
	cancel()
	if err != nil {
		monitoring.ChallengeEvaluations.WithLabelValues("lock_timeout").Inc()
		if errors.Is(err, lock.ErrNotAcquired) {
			return nil, util.ErrLockNotAcquired
		}
		return nil, fmt.Errorf("acquire evaluation lock: %w", err)
	}
	defer unlock()

	ctx = context.WithoutCancel(ctx)
	ctx, span := tracing.Tracer.Start(ctx, "ChallengeService.Evaluate")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("user.id", int64(userID)),
		attribute.String("day", day),
	)

	start := time.Now()
	result, err := s.evaluateLocked(ctx, userID, day, extra)
	monitoring.ChallengeEvaluationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		monitoring.ChallengeEvaluations.WithLabelValues("error").Inc()
		logger.Log.Error("Challenge evaluation failed",
			zap.Uint("userId", userID),
			zap.String("day", day),
			zap.Error(err),
		)
		return nil, err
	}

	monitoring.ChallengeEvaluations.WithLabelValues("ok").Inc()
	span.SetAttributes(attribute.Int("completed", len(result.Completed)))
	return result, nil
}

func (s *ChallengeService) evaluateLocked(ctx context.Context, userID uint, day string, extra model.EventSignals) (*EvaluationResult, error) {
	defs, err := s.catalog.EnsureDailyCatalog(ctx, day)
	if err != nil {
		return nil, err
	}

	user, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	snapshot, err := s.store.GetSnapshot(ctx, userID, day)
	if err != nil {
		return nil, err
	}
	signals, err := s.store.GetSignals(ctx, userID, day)
	if err != nil {
		return nil, err
	}
	signals = signals.Merge(extra)

	rows, err := s.ChallengeRepo.FindProgressByUserAndDay(ctx, userID, day)
	if err != nil {
		return nil, err
	}
	byChallenge := make(map[uint]*model.ChallengeProgress, len(rows))
	for i := range rows {
		byChallenge[rows[i].ChallengeID] = &rows[i]
	}

	input := MatchInput{
		Level:      user.Level,
		Snapshot:   snapshot,
		Signals:    signals,
		Challenges: make([]PendingChallenge, 0, len(defs)),
	}
	for _, d := range defs {
		input.Challenges = append(input.Challenges, PendingChallenge{
			Definition: d,
			Progress:   byChallenge[d.ID],
		})
	}
	match := MatchChallenges(input)

	result := &EvaluationResult{
		EvaluationID: uuid.NewString(),
		Day:          day,
		Completed:    []CompletedChallenge{},
		Ignored:      match.Ignored,
		Pending:      []PendingProgress{},
	}
	if result.Ignored == nil {
		result.Ignored = []IgnoredChallenge{}
	}
	for _, ig := range match.Ignored {
		logger.Log.Warn("Challenge ignored during evaluation",
			zap.Uint("userId", userID),
			zap.Uint("challengeId", ig.ChallengeID),
			zap.String("kind", string(ig.Kind)),
		)
	}

	now := s.now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.ChallengeRepo.WithTx(tx)

		for _, o := range match.Outcomes {
			if !o.Existing {
				created, err := repo.CreateProgressIfAbsent(ctx, &model.ChallengeProgress{
					UserID:        userID,
					ChallengeID:   o.Definition.ID,
					EffectiveDate: day,
					CurrentValue:  o.CurrentValue,
					Status:        model.ChallengePending,
				})
				if err != nil {
					return err
				}
				if created {
					continue
				}
			}
			if err := repo.UpdatePendingValue(ctx, userID, o.Definition.ID, o.CurrentValue); err != nil {
				return err
			}
		}

		for _, o := range match.Satisfied {
			flipped, err := repo.MarkCompleted(ctx, userID, o.Definition.ID, o.CurrentValue, now)
			if err != nil {
				return err
			}
			if !flipped {
				// 已被其他评估完成
				continue
			}

			granted, err := s.store.ApplyReward(ctx, tx, &model.RewardGrant{
				UserID:          userID,
				ChallengeID:     o.Definition.ID,
				ChallengeReward: o.Definition.Rewards,
				Day:             day,
				GrantedAt:       now,
			})
			if err != nil {
				return fmt.Errorf("apply reward for challenge %d: %w", o.Definition.ID, err)
			}
			if !granted {
				logger.Log.Warn("Reward already granted for challenge",
					zap.Uint("userId", userID),
					zap.Uint("challengeId", o.Definition.ID),
				)
				continue
			}

			result.Completed = append(result.Completed, CompletedChallenge{
				ChallengeID: o.Definition.ID,
				Kind:        o.Definition.Kind,
				Title:       o.Definition.Title,
				CompletedAt: now,
				Reward:      o.Definition.Rewards,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, o := range match.Outcomes {
		if o.Satisfied {
			continue
		}
		result.Pending = append(result.Pending, PendingProgress{
			ChallengeID:  o.Definition.ID,
			Kind:         o.Definition.Kind,
			CurrentValue: o.CurrentValue,
			TargetValue:  o.Definition.TargetValue,
		})
	}
	sort.Slice(result.Completed, func(i, j int) bool {
		return result.Completed[i].ChallengeID < result.Completed[j].ChallengeID
	})

	for _, c := range result.Completed {
		monitoring.ChallengeCompletions.WithLabelValues(string(c.Kind)).Inc()
		logger.Log.Info("Challenge completed",
			zap.String("evaluationId", result.EvaluationID),
			zap.Uint("userId", userID),
			zap.Uint("challengeId", c.ChallengeID),
			zap.String("kind", string(c.Kind)),
			zap.Int("xpBonus", c.Reward.XPBonus),
		)
	}

	return result, nil
}

// DailyBoard 用户当天可见的挑战及进度，不触发评估
func (s *ChallengeService) DailyBoard(ctx context.Context, userID uint, day string) ([]BoardItem, error) {
	defs, err := s.catalog.EnsureDailyCatalog(ctx, day)
	if err != nil {
		return nil, err
	}

	user, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	rows, err := s.ChallengeRepo.FindProgressByUserAndDay(ctx, userID, day)
	if err != nil {
		return nil, err
	}
	byChallenge := make(map[uint]model.ChallengeProgress, len(rows))
	for _, r := range rows {
		byChallenge[r.ChallengeID] = r
	}

	items := make([]BoardItem, 0, len(defs))
	for _, d := range defs {
		if !d.AppliesTo(user.Level) {
			continue
		}
		item := BoardItem{Definition: d, Status: model.ChallengePending}
		if p, ok := byChallenge[d.ID]; ok {
			item.CurrentValue = p.CurrentValue
			item.Status = p.Status
			item.CompletedAt = p.CompletedAt
		}
		items = append(items, item)
	}
	return items, nil
}

// ReevaluateDay 重新评估当天所有活跃用户，单个用户失败不影响其他用户
func (s *ChallengeService) ReevaluateDay(ctx context.Context, day string) (*ReevaluateSummary, error) {
	day, err := util.ParseDay(day)
	if err != nil {
		return nil, err
	}
	if _, err := s.catalog.EnsureDailyCatalog(ctx, day); err != nil {
		return nil, err
	}

	userIDs, err := s.store.ActiveUserIDs(ctx, day)
	if err != nil {
		return nil, err
	}

	summary := &ReevaluateSummary{Day: day, Users: len(userIDs)}
	completed := make([]int, len(userIDs))
	failed := make([]bool, len(userIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, id := range userIDs {
		g.Go(func() error {
			res, err := s.Evaluate(gctx, id, day, model.EventSignals{})
			if err != nil {
				failed[i] = true
				logger.Log.Warn("Re-evaluation failed for user",
					zap.Uint("userId", id),
					zap.String("day", day),
					zap.Error(err),
				)
				return nil
			}
			completed[i] = len(res.Completed)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := range userIDs {
		summary.Completed += completed[i]
		if failed[i] {
			summary.Failed++
		}
	}

	logger.Log.Info("Day re-evaluated",
		zap.String("day", day),
		zap.Int("users", summary.Users),
		zap.Int("completed", summary.Completed),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}
