package llm

import (
	"context"
	"time"

	"clinicAgent/internal/logger"
	"clinicAgent/internal/metrics"
	"clinicAgent/internal/retry"

	"go.uber.org/zap"
)

// Recorded оборачивает ассистента: предохранитель, метрики и запись обменов.
type Recorded struct {
	next     Assistant
	recorder Recorder
	breaker  *retry.Breaker
	metrics  *metrics.Metrics
	log      *logger.Zap
}

// NewRecorded собирает обертку. recorder, breaker и m могут быть nil.
func NewRecorded(next Assistant, recorder Recorder, breaker *retry.Breaker, m *metrics.Metrics, log *logger.Zap) *Recorded {
	if log == nil {
		log = logger.Nop()
	}
	return &Recorded{
		next:     next,
		recorder: recorder,
		breaker:  breaker,
		metrics:  m,
		log:      log.Named("assistant"),
	}
}

func (r *Recorded) Name() string { return r.next.Name() }

func (r *Recorded) Ask(ctx context.Context, req Request) (Answer, error) {
	var ans Answer
	call := func(ctx context.Context) error {
		var err error
		ans, err = r.next.Ask(ctx, req)
		return err
	}

	start := time.Now()
	var err error
	if r.breaker != nil {
		err = r.breaker.Call(ctx, call)
	} else {
		err = call(ctx)
	}
	r.metrics.AssistantRequest(r.next.Name(), string(req.Kind), time.Since(start), err)

	if err != nil {
		r.log.Warn("Ассистент не ответил",
			zap.String("site", req.Site),
			zap.String("kind", string(req.Kind)),
			zap.Error(err),
		)
		return Answer{}, err
	}

	r.log.Debug("Ответ ассистента",
		zap.String("site", req.Site),
		zap.String("kind", string(req.Kind)),
		zap.String("reply", ans.Text),
	)

	if r.recorder != nil {
		if rerr := r.recorder.RecordExchange(ctx, req, ans); rerr != nil {
			r.log.Warn("Не удалось сохранить обмен с ассистентом", zap.Error(rerr))
		}
	}
	return ans, nil
}
