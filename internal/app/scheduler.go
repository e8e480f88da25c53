package app

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Reconciler фоновая задача сверки резервов слотов
type Reconciler interface {
	ReleaseOrphanedReservations(ctx context.Context) (int, error)
}

// Scheduler управляет фоновыми задачами
type Scheduler struct {
	reconciler Reconciler
	interval   time.Duration
	logger     *zap.Logger
}

// NewScheduler создаёт новый планировщик. interval <= 0 выключает сверку.
func NewScheduler(reconciler Reconciler, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		reconciler: reconciler,
		interval:   interval,
		logger:     logger,
	}
}

// Run выполняет задачи до отмены ctx
func (s *Scheduler) Run(ctx context.Context) error {
	if s.interval <= 0 {
		s.logger.Info("Reservation reconciler disabled")
		return nil
	}

	s.logger.Info("Starting background scheduler", zap.Duration("interval", s.interval))

	// Первый запуск сразу при старте
	s.reconcile(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.reconcile(ctx)
		case <-ctx.Done():
			s.logger.Info("Background scheduler stopped")
			return nil
		}
	}
}

// reconcile освобождает слоты SWAP_PENDING без ожидающей заявки.
// Ошибка не останавливает планировщик: следующий тик попробует снова.
func (s *Scheduler) reconcile(ctx context.Context) {
	released, err := s.reconciler.ReleaseOrphanedReservations(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Error("Failed to reconcile slot reservations", zap.Error(err))
		return
	}
	s.logger.Debug("Reservation reconcile finished", zap.Int("released", released))
}
