// 手动触发内容引用完整性审计
//
// 主应用会按 jobs.integrity_audit_spec 定期执行同样的审计。
// 此脚本用于手动排查，结果以 YAML 输出到标准输出。
//
// 用法: go run scripts/integrity_audit.go [-config configs]

package main

import (
	"context"
	"flag"
	"learnhub_backend/internal/config"
	"learnhub_backend/internal/repository"
	"learnhub_backend/internal/service"
	"learnhub_backend/pkg/database"
	"learnhub_backend/pkg/logger"
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

func main() {
	configDir := flag.String("config", "configs", "配置文件目录")
	flag.Parse()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}

	logger.InitLogger(cfg)

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	// 审计只读，不需要顺序号分配
	audit := service.NewIntegrityService(repository.NewContentRepository(db, nil))

	report, err := audit.Audit(context.Background())
	if err != nil {
		log.Fatalf("审计失败: %v", err)
	}

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		log.Fatalf("输出失败: %v", err)
	}
	enc.Close()

	if len(report.Broken) > 0 {
		os.Exit(1)
	}
}
