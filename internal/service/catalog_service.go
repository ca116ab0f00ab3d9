package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"thai_learn_backend/internal/config"
	"thai_learn_backend/internal/model"
	"thai_learn_backend/internal/util"
	"thai_learn_backend/pkg/logger"
	"thai_learn_backend/pkg/monitoring"
	"thai_learn_backend/pkg/tracing"

	lru "github.com/hashicorp/golang-lru"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefinitionStore 挑战定义的持久化
type DefinitionStore interface {
	FindDefinitionsByDay(ctx context.Context, day string) ([]model.ChallengeDefinition, error)
	FindDefinitionByID(ctx context.Context, id uint) (*model.ChallengeDefinition, error)
	InsertDefinitionIfAbsent(ctx context.Context, def *model.ChallengeDefinition) (bool, error)
	SetDefinitionActive(ctx context.Context, id uint, active bool) (int64, error)
}

// CatalogTemplate 校验后的挑战模板
type CatalogTemplate struct {
	Kind        model.ChallengeKind
	Title       string
	Description string
	TargetValue int
	Difficulty  model.Difficulty
	Levels      []model.LearnerLevel
	Rewards     model.ChallengeReward
}

// Instantiate 生成某天的挑战定义
func (t CatalogTemplate) Instantiate(day string) *model.ChallengeDefinition {
	levels := make([]model.LearnerLevel, len(t.Levels))
	copy(levels, t.Levels)
	return &model.ChallengeDefinition{
		EffectiveDate:    day,
		Kind:             t.Kind,
		Title:            t.Title,
		Description:      t.Description,
		TargetValue:      t.TargetValue,
		Difficulty:       t.Difficulty,
		Rewards:          t.Rewards,
		ApplicableLevels: levels,
		Active:           true,
	}
}

// BuildCatalogPolicy 校验配置中的模板列表
func BuildCatalogPolicy(templates []config.ChallengeTemplate) ([]CatalogTemplate, error) {
	if len(templates) == 0 {
		return nil, util.ErrEmptyCatalogPolicy
	}

	seen := make(map[model.ChallengeKind]bool, len(templates))
	policy := make([]CatalogTemplate, 0, len(templates))
	for i, t := range templates {
		kind := model.ChallengeKind(t.Kind)
		if !KnownKind(kind) {
			return nil, fmt.Errorf("%w: template %d has unknown kind %q", util.ErrInvalidCatalogPolicy, i, t.Kind)
		}
		// 定义以 (日期, 类型) 为唯一键
		if seen[kind] {
			return nil, fmt.Errorf("%w: duplicate kind %q", util.ErrInvalidCatalogPolicy, t.Kind)
		}
		seen[kind] = true

		if t.TargetValue <= 0 {
			return nil, fmt.Errorf("%w: %s target_value must be positive", util.ErrInvalidCatalogPolicy, t.Kind)
		}
		difficulty := model.Difficulty(t.Difficulty)
		if !difficulty.Valid() {
			return nil, fmt.Errorf("%w: %s has invalid difficulty %q", util.ErrInvalidCatalogPolicy, t.Kind, t.Difficulty)
		}
		if t.Rewards.XPBonus < 0 || t.Rewards.StreakBonus < 0 {
			return nil, fmt.Errorf("%w: %s rewards must not be negative", util.ErrInvalidCatalogPolicy, t.Kind)
		}

		var levels []model.LearnerLevel
		for _, l := range t.Levels {
			level := model.LearnerLevel(l)
			if !level.Valid() {
				return nil, fmt.Errorf("%w: %s has invalid level %q", util.ErrInvalidCatalogPolicy, t.Kind, l)
			}
			levels = append(levels, level)
		}

		title := t.Title
		if title == "" {
			title = string(kind)
		}

		policy = append(policy, CatalogTemplate{
			Kind:        kind,
			Title:       title,
			Description: t.Description,
			TargetValue: t.TargetValue,
			Difficulty:  difficulty,
			Levels:      levels,
			Rewards: model.ChallengeReward{
				XPBonus:       t.Rewards.XPBonus,
				StreakBonus:   t.Rewards.StreakBonus,
				SpecialReward: t.Rewards.SpecialReward,
				Badge:         t.Rewards.Badge,
			},
		})
	}
	return policy, nil
}

// CatalogService 每日挑战目录生成
type CatalogService struct {
	store DefinitionStore

	mu        sync.RWMutex
	policy    []CatalogTemplate
	policyErr error

	// day -> 当天生效的挑战定义
	cache *lru.Cache
}

func NewCatalogService(store DefinitionStore, templates []config.ChallengeTemplate, cacheSize int) *CatalogService {
	if cacheSize <= 0 {
		cacheSize = 64
	}
	cache, _ := lru.New(cacheSize)

	s := &CatalogService{store: store, cache: cache}
	s.policy, s.policyErr = BuildCatalogPolicy(templates)
	if s.policyErr != nil {
		logger.Log.Error("Invalid challenge catalog policy", zap.Error(s.policyErr))
	}
	return s
}

// SetPolicy 替换模板列表，校验失败时保留原配置
func (s *CatalogService) SetPolicy(templates []config.ChallengeTemplate) error {
	policy, err := BuildCatalogPolicy(templates)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.policy = policy
	s.policyErr = nil
	s.mu.Unlock()

	s.cache.Purge()
	logger.Log.Info("Challenge catalog policy updated", zap.Int("templates", len(policy)))
	return nil
}

func (s *CatalogService) currentPolicy() ([]CatalogTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.policy, s.policyErr
}

// EnsureDailyCatalog 确保某天的挑战目录存在并返回生效的定义（按 id 升序）
// 已存在的定义原样返回；缺失的类型逐条插入，部分失败后重试会补齐而不重复
// 模板无效时，只有当天尚无任何定义才返回错误
func (s *CatalogService) EnsureDailyCatalog(ctx context.Context, day string) ([]model.ChallengeDefinition, error) {
	day, err := util.ParseDay(day)
	if err != nil {
		return nil, err
	}

	if cached, ok := s.cache.Get(day); ok {
		return cloneDefinitions(cached.([]model.ChallengeDefinition)), nil
	}

	ctx, span := tracing.Tracer.Start(ctx, "CatalogService.EnsureDailyCatalog")
	defer span.End()
	span.SetAttributes(attribute.String("day", day))

	existing, err := s.store.FindDefinitionsByDay(ctx, day)
	if err != nil {
		monitoring.CatalogGenerations.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("load catalog for %s: %w", day, err)
	}

	// 模板无效时只能返回已生成的目录，无法补齐
	policy, policyErr := s.currentPolicy()
	if policyErr != nil {
		if len(existing) == 0 {
			monitoring.CatalogGenerations.WithLabelValues("invalid_policy").Inc()
			return nil, policyErr
		}
		logger.Log.Warn("Serving existing challenge catalog with invalid policy",
			zap.String("day", day),
			zap.Int("definitions", len(existing)),
			zap.Error(policyErr),
		)
	}

	have := make(map[model.ChallengeKind]bool, len(existing))
	for _, d := range existing {
		have[d.Kind] = true
	}

	missing, created := 0, 0
	for _, t := range policy {
		if have[t.Kind] {
			continue
		}
		missing++
		inserted, err := s.store.InsertDefinitionIfAbsent(ctx, t.Instantiate(day))
		if err != nil {
			monitoring.CatalogGenerations.WithLabelValues("error").Inc()
			logger.Log.Error("Failed to write challenge definition",
				zap.String("day", day),
				zap.String("kind", string(t.Kind)),
				zap.Int("written", created),
				zap.Error(err),
			)
			return nil, fmt.Errorf("write %s challenge for %s: %w", t.Kind, day, err)
		}
		if inserted {
			created++
		}
	}

	defs := existing
	if missing > 0 {
		defs, err = s.store.FindDefinitionsByDay(ctx, day)
		if err != nil {
			monitoring.CatalogGenerations.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("reload catalog for %s: %w", day, err)
		}
	}

	if created > 0 {
		monitoring.CatalogGenerations.WithLabelValues("created").Inc()
		logger.Log.Info("Daily challenge catalog generated",
			zap.String("day", day),
			zap.Int("created", created),
			zap.Int("total", len(defs)),
		)
	} else {
		monitoring.CatalogGenerations.WithLabelValues("existing").Inc()
	}

	active := make([]model.ChallengeDefinition, 0, len(defs))
	for _, d := range defs {
		if d.Active {
			active = append(active, d)
		}
	}
	s.cache.Add(day, active)
	return cloneDefinitions(active), nil
}

// SetActive 停用/恢复某个挑战定义
func (s *CatalogService) SetActive(ctx context.Context, id uint, active bool) (*model.ChallengeDefinition, error) {
	def, err := s.store.FindDefinitionByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrChallengeNotFound
	}
	if err != nil {
		return nil, err
	}

	if _, err := s.store.SetDefinitionActive(ctx, id, active); err != nil {
		return nil, err
	}
	s.cache.Remove(def.EffectiveDate)

	logger.Log.Info("Challenge definition active flag changed",
		zap.Uint("challengeId", id),
		zap.String("day", def.EffectiveDate),
		zap.Bool("active", active),
	)
	def.Active = active
	return def, nil
}

func cloneDefinitions(defs []model.ChallengeDefinition) []model.ChallengeDefinition {
	out := make([]model.ChallengeDefinition, len(defs))
	copy(out, defs)
	return out
}
