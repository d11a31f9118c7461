package service

import (
	"context"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/repository"
	"learnhub_backend/pkg/logger"
	"learnhub_backend/pkg/monitoring"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const auditBatchSize = 200

// BrokenReference 内容行指向的条目不存在
type BrokenReference struct {
	ContentID   uint              `json:"contentId" yaml:"contentId"`
	ModuleID    uint              `json:"moduleId" yaml:"moduleId"`
	ContentType model.ContentType `json:"contentType" yaml:"contentType"`
	ObjectID    uint              `json:"objectId" yaml:"objectId"`
}

type AuditReport struct {
	Scanned int               `json:"scanned" yaml:"scanned"`
	Broken  []BrokenReference `json:"broken" yaml:"broken"`
}

// IntegrityService 定期检查内容引用是否完整，只读
type IntegrityService struct {
	ContentRepo *repository.ContentRepository
	cron        *cron.Cron
}

func NewIntegrityService(contentRepo *repository.ContentRepository) *IntegrityService {
	return &IntegrityService{ContentRepo: contentRepo}
}

func (s *IntegrityService) Audit(ctx context.Context) (*AuditReport, error) {
	report := &AuditReport{Broken: []BrokenReference{}}
	err := s.ContentRepo.ScanAll(ctx, auditBatchSize, func(contents []model.Content) error {
		for _, c := range contents {
			report.Scanned++
			_, err := s.ContentRepo.FindItem(ctx, c.ContentType, c.ObjectID)
			if err == nil {
				continue
			}
			if !isNotFound(err) && c.ContentType.Valid() {
				return err
			}
			report.Broken = append(report.Broken, BrokenReference{
				ContentID:   c.ID,
				ModuleID:    c.ModuleID,
				ContentType: c.ContentType,
				ObjectID:    c.ObjectID,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	monitoring.BrokenReferences.Set(float64(len(report.Broken)))
	for _, b := range report.Broken {
		logger.Log.Warn("Broken content reference",
			zap.Uint("content_id", b.ContentID),
			zap.Uint("module_id", b.ModuleID),
			zap.String("type", string(b.ContentType)),
			zap.Uint("object_id", b.ObjectID))
	}
	return report, nil
}

// Start 按 cron 表达式定期执行审计，上一轮未结束时跳过
func (s *IntegrityService) Start(spec string) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		report, err := s.Audit(ctx)
		if err != nil {
			logger.Log.Error("Integrity audit failed", zap.Error(err))
			return
		}
		logger.Log.Info("Integrity audit finished",
			zap.Int("scanned", report.Scanned),
			zap.Int("broken", len(report.Broken)))
	})
	if err != nil {
		return err
	}
	s.cron = c
	c.Start()
	logger.Log.Info("Integrity audit scheduled", zap.String("spec", spec))
	return nil
}

func (s *IntegrityService) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}
