package userservice

import (
	"context"
	"log/slog"
	"time"
)

// ExpiredSessionDeleter is implemented by stores that keep sessions until they
// are pruned.
type ExpiredSessionDeleter interface {
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}

// SessionPruner deletes expired sessions on a fixed interval.
type SessionPruner struct {
	sessions ExpiredSessionDeleter
	interval time.Duration
	logger   *slog.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewSessionPruner(sessions ExpiredSessionDeleter, interval time.Duration, logger *slog.Logger) *SessionPruner {
	ctx, cancel := context.WithCancel(context.Background())
	return &SessionPruner{
		sessions: sessions,
		interval: interval,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start prunes once per interval until Close is called.
func (p *SessionPruner) Start() {
	p.done = make(chan struct{})

	go func() {
		defer close(p.done)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				p.prune()
			case <-p.ctx.Done():
				return
			}
		}
	}()
}

func (p *SessionPruner) prune() {
	n, err := p.sessions.DeleteExpiredSessions(p.ctx)
	if err != nil {
		p.logger.Error("could not prune expired sessions", slog.String("error", err.Error()))
		return
	}

	if n > 0 {
		p.logger.Info("expired sessions pruned", slog.Int64("count", n))
	}
}

// Close stops the pruner and waits for a running prune to finish.
func (p *SessionPruner) Close() {
	p.cancel()
	if p.done != nil {
		<-p.done
	}
}
