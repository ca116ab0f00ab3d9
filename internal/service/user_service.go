package service

import (
	"context"
	"errors"
	"thai_learn_backend/internal/model"
	"thai_learn_backend/internal/repository"
	"thai_learn_backend/internal/util"
	"thai_learn_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UserService 处理学习者档案相关的业务逻辑
type UserService struct {
	UserRepo *repository.UserRepository
}

// NewUserService 创建一个新的用户服务实例
func NewUserService(userRepo *repository.UserRepository) *UserService {
	return &UserService{
		UserRepo: userRepo,
	}
}

// EnsureLearner 令牌中的用户首次访问时建立档案
func (s *UserService) EnsureLearner(ctx context.Context, claims *util.Claims) error {
	role := claims.Role
	if role == "" {
		role = model.Student
	}
	return s.UserRepo.EnsureExists(ctx, &model.User{
		BaseModel: model.BaseModel{ID: claims.UserID},
		Name:      claims.Name,
		Email:     claims.Email,
		Role:      role,
		Level:     model.LevelBeginner,
	})
}

// GetProfile 根据ID获取学习者档案
func (s *UserService) GetProfile(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.UserRepo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateLevel 修改学习者水平，影响之后评估时的挑战适用范围
func (s *UserService) UpdateLevel(ctx context.Context, id uint, level model.LearnerLevel) (*model.User, error) {
	if !level.Valid() {
		return nil, util.ErrInvalidLevel
	}

	user, err := s.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.Level == level {
		return user, nil
	}

	if _, err := s.UserRepo.UpdateLevel(ctx, id, level); err != nil {
		return nil, err
	}

	logger.Log.Info("Learner level changed",
		zap.Uint("userId", id),
		zap.String("from", string(user.Level)),
		zap.String("to", string(level)),
	)
	user.Level = level
	return user, nil
}
