package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"thai_learn_backend/internal/config"
	"thai_learn_backend/internal/model"
	"thai_learn_backend/internal/repository"
	"thai_learn_backend/pkg/database"
	"thai_learn_backend/pkg/lock"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testDay = "2024-01-01"

// setupTestDB 每个测试独立的内存数据库，单连接避免 sqlite 表锁
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(database.Models()...))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, id uint, level model.LearnerLevel) *model.User {
	t.Helper()
	user := &model.User{
		BaseModel: model.BaseModel{ID: id},
		Name:      fmt.Sprintf("learner-%d", id),
		Email:     fmt.Sprintf("learner-%d@example.com", id),
		Role:      model.Student,
		Level:     level,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func template(kind model.ChallengeKind, target int, rewards config.TemplateReward, levels ...string) config.ChallengeTemplate {
	return config.ChallengeTemplate{
		Kind:        string(kind),
		Title:       string(kind),
		TargetValue: target,
		Difficulty:  string(model.DifficultyMedium),
		Levels:      levels,
		Rewards:     rewards,
	}
}

type testEnv struct {
	db        *gorm.DB
	progress  *ProgressService
	catalog   *CatalogService
	challenge *ChallengeService
	repos     struct {
		user        *repository.UserRepository
		challenge   *repository.ChallengeRepository
		reward      *repository.RewardRepository
		achievement *repository.AchievementRepository
	}
}

func newTestEnv(t *testing.T, templates ...config.ChallengeTemplate) *testEnv {
	t.Helper()
	db := setupTestDB(t)

	env := &testEnv{db: db}
	env.repos.user = repository.NewUserRepository(db)
	env.repos.challenge = repository.NewChallengeRepository(db)
	env.repos.reward = repository.NewRewardRepository(db)
	env.repos.achievement = repository.NewAchievementRepository(db)

	env.progress = NewProgressService(
		db,
		env.repos.user,
		repository.NewProgressRepository(db),
		repository.NewCheckinRepository(db),
		env.repos.achievement,
		env.repos.reward,
	)
	env.catalog = NewCatalogService(env.repos.challenge, templates, 16)
	env.challenge = NewChallengeService(db, env.repos.challenge, env.catalog, env.progress, lock.NewLocalLocker(), time.Second, 4)
	return env
}

// addDailyXP 直接写入当天计数，模拟学习行为
func (e *testEnv) addDailyXP(t *testing.T, userID uint, xp int) {
	t.Helper()
	_, err := e.progress.RecordGameResult(context.Background(), userID, testDay, GameResult{XPEarned: xp})
	require.NoError(t, err)
}

func (e *testEnv) progressOf(t *testing.T, userID uint, kind model.ChallengeKind) *model.ChallengeProgress {
	t.Helper()
	rows, err := e.repos.challenge.FindProgressByUserAndDay(context.Background(), userID, testDay)
	require.NoError(t, err)
	defs, err := e.repos.challenge.FindDefinitionsByDay(context.Background(), testDay)
	require.NoError(t, err)

	var id uint
	for _, d := range defs {
		if d.Kind == kind {
			id = d.ID
		}
	}
	for i := range rows {
		if rows[i].ChallengeID == id {
			return &rows[i]
		}
	}
	return nil
}
