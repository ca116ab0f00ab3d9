package database

import (
	"fmt"
	"log"
	"thai_learn_backend/internal/config"
	"thai_learn_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Models 参与自动迁移的全部模型
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.Achievement{},
		&model.Checkin{},
		&model.DailyProgress{},
		&model.ChallengeDefinition{},
		&model.ChallengeProgress{},
		&model.RewardGrant{},
	}
}

func InitDB(cfg *config.DatabaseConfig, mode string) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	logLevel := logger.Warn
	if mode == "debug" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")
	return db, nil
}

// Migrate 执行自动迁移
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return err
	}

	log.Println("Database migration completed")
	return nil
}
