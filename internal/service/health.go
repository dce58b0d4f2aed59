package service

import (
	"context"
	"fmt"

	"github.com/msto63/livescribe/pkg/core/health"
)

// QueueBacklogThreshold is the pending chunk count reported as degraded
const QueueBacklogThreshold = 30

// RegisterHealthChecks adds the engine, recorder and queue checks
func (s *Service) RegisterHealthChecks(r *health.Registry) {
	r.RegisterFunc("engine", func(ctx context.Context) health.CheckResult {
		state := s.engine.State()
		result := health.CheckResult{
			Status:  health.StatusHealthy,
			Details: map[string]interface{}{"state": state.String(), "backend": s.cfg.Backend.Name()},
		}
		if !s.engine.IsInitialized() {
			result.Status = health.StatusDegraded
			result.Message = "model not loaded"
		}
		return result
	})

	r.RegisterFunc("recorder", func(ctx context.Context) health.CheckResult {
		result := health.CheckResult{
			Status:  health.StatusHealthy,
			Details: map[string]interface{}{"state": s.recorder.State().String()},
		}
		if session := s.recorder.Session(); session != nil {
			result.Details["session"] = session.ID
			result.Details["chunks"] = session.Chunks()
		}
		return result
	})

	r.RegisterFunc("queue", func(ctx context.Context) health.CheckResult {
		pending := s.coord.Pending()
		result := health.CheckResult{
			Status:  health.StatusHealthy,
			Details: map[string]interface{}{"pending": pending},
		}
		if pending > QueueBacklogThreshold {
			result.Status = health.StatusDegraded
			result.Message = fmt.Sprintf("transcription is %d chunks behind", pending)
		}
		return result
	})
}
