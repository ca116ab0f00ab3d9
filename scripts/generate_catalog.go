// 手动生成每日挑战目录
//
// 服务运行时后台任务会自动生成当天的目录。
// 此脚本用于提前生成未来若干天，或在修改配置后为缺失的类型补齐定义。
//
// 用法: go run scripts/generate_catalog.go -from 2024-01-01 -days 7

package main

import (
	"context"
	"flag"
	"log"
	"thai_learn_backend/internal/config"
	"thai_learn_backend/internal/repository"
	"thai_learn_backend/internal/service"
	"thai_learn_backend/internal/util"
	"thai_learn_backend/pkg/database"
	"thai_learn_backend/pkg/logger"
	"time"
)

func main() {
	from := flag.String("from", "", "起始日期 YYYY-MM-DD，默认今天")
	days := flag.Int("days", 1, "生成天数")
	flag.Parse()

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}

	logger.InitLogger(cfg)

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	loc, err := util.LoadLocation(cfg.Challenges.Timezone)
	if err != nil {
		log.Fatalf("时区无效: %v", err)
	}

	start := util.Today(time.Now(), loc)
	if *from != "" {
		if start, err = util.ParseDay(*from); err != nil {
			log.Fatalf("起始日期无效: %v", err)
		}
	}

	catalog := service.NewCatalogService(repository.NewChallengeRepository(db), cfg.Challenges.Catalog, cfg.Challenges.CacheSize)

	day, _ := time.Parse(util.DateFormat, start)
	for i := 0; i < *days; i++ {
		d := day.AddDate(0, 0, i).Format(util.DateFormat)
		defs, err := catalog.EnsureDailyCatalog(context.Background(), d)
		if err != nil {
			log.Fatalf("%s 生成失败: %v", d, err)
		}
		log.Printf("%s: %d 个挑战", d, len(defs))
	}
	log.Println("完成！")
}
