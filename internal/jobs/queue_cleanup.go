package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/forgo/mentora/api/internal/service"
)

// retentionWindow is how long delivered notifications are kept before the
// cleanup job removes them
const retentionWindow = 7 * 24 * time.Hour

// QueueCleanup periodically trims delivered notifications past retention
type QueueCleanup struct {
	notifications *service.NotificationService
	interval      time.Duration
	logger        *slog.Logger
	stopCh        chan struct{}
	wg            sync.WaitGroup
	running       bool
	mu            sync.Mutex
}

// NewQueueCleanup creates a new cleanup job
func NewQueueCleanup(notifications *service.NotificationService, interval time.Duration, logger *slog.Logger) *QueueCleanup {
	if interval == 0 {
		interval = 24 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &QueueCleanup{
		notifications: notifications,
		interval:      interval,
		logger:        logger,
		stopCh:        make(chan struct{}),
	}
}

// Start begins the cleanup loop
func (c *QueueCleanup) Start() {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	c.running = true
	c.mu.Unlock()

	c.wg.Add(1)
	go c.run()
	c.logger.Info("queue cleanup started", slog.Duration("interval", c.interval))
}

// Stop gracefully stops the cleanup loop
func (c *QueueCleanup) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	c.mu.Unlock()

	close(c.stopCh)
	c.wg.Wait()
	c.logger.Info("queue cleanup stopped")
}

// run is the main loop
func (c *QueueCleanup) run() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stopCh:
			return
		}
	}
}

func (c *QueueCleanup) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if _, err := c.notifications.CleanupSent(ctx, retentionWindow); err != nil {
		c.logger.Error("cleaning notification queue", slog.String("error", err.Error()))
	}
}

// RunOnce runs one cleanup cycle (for testing or manual trigger)
func (c *QueueCleanup) RunOnce(ctx context.Context) (int, error) {
	return c.notifications.CleanupSent(ctx, retentionWindow)
}

// IsRunning returns whether the cleanup job is running
func (c *QueueCleanup) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}
