package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/forgo/mentora/api/internal/service"
)

// NotificationDispatcher periodically delivers due queued notifications
type NotificationDispatcher struct {
	notifications *service.NotificationService
	interval      time.Duration
	logger        *slog.Logger
	stopCh        chan struct{}
	wg            sync.WaitGroup
	running       bool
	mu            sync.Mutex
}

// NewNotificationDispatcher creates a new dispatcher job
func NewNotificationDispatcher(notifications *service.NotificationService, interval time.Duration, logger *slog.Logger) *NotificationDispatcher {
	if interval == 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationDispatcher{
		notifications: notifications,
		interval:      interval,
		logger:        logger,
		stopCh:        make(chan struct{}),
	}
}

// Start begins the dispatcher loop
func (d *NotificationDispatcher) Start() {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return
	}
	d.running = true
	d.mu.Unlock()

	d.wg.Add(1)
	go d.run()
	d.logger.Info("notification dispatcher started", slog.Duration("interval", d.interval))
}

// Stop gracefully stops the dispatcher loop
func (d *NotificationDispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	d.mu.Unlock()

	close(d.stopCh)
	d.wg.Wait()
	d.logger.Info("notification dispatcher stopped")
}

// run is the main loop
func (d *NotificationDispatcher) run() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.dispatch()
		case <-d.stopCh:
			return
		}
	}
}

func (d *NotificationDispatcher) dispatch() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	sent, err := d.notifications.DispatchDue(ctx, time.Now())
	if err != nil {
		d.logger.Error("dispatching notifications", slog.String("error", err.Error()))
		return
	}
	if sent > 0 {
		d.logger.Info("notifications dispatched", slog.Int("sent", sent))
	}
}

// RunOnce runs one dispatch cycle (for testing or manual trigger)
func (d *NotificationDispatcher) RunOnce(ctx context.Context) (int, error) {
	return d.notifications.DispatchDue(ctx, time.Now())
}

// IsRunning returns whether the dispatcher is running
func (d *NotificationDispatcher) IsRunning() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}
