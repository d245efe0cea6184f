package jobs

import (
	"log"
	"time"

	"aasaan-server/database"
	"aasaan-server/models"
	"aasaan-server/services"
)

const staleRequestAge = 30 * 24 * time.Hour

// AutoCloseJob closes work requests that stayed active for too long
type AutoCloseJob struct {
	interval time.Duration
	stopChan chan struct{}
}

// NewAutoCloseJob creates a new auto-close job
func NewAutoCloseJob() *AutoCloseJob {
	return &AutoCloseJob{
		interval: 10 * time.Minute,
		stopChan: make(chan struct{}),
	}
}

// Start begins the periodic sweep
func (j *AutoCloseJob) Start() {
	log.Println("🕐 Starting work-request auto-close job...")

	go func() {
		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()

		// Sweep once at startup to catch requests that went stale while
		// the server was down
		j.closeStaleRequests()

		for {
			select {
			case <-ticker.C:
				j.closeStaleRequests()
			case <-j.stopChan:
				log.Println("🛑 Auto-close job stopped")
				return
			}
		}
	}()
}

// Stop stops the job
func (j *AutoCloseJob) Stop() {
	close(j.stopChan)
}

// closeStaleRequests closes every active request older than 30 days and
// notifies the owner
func (j *AutoCloseJob) closeStaleRequests() {
	cutoff := time.Now().Add(-staleRequestAge)

	var stale []models.WorkRequest
	if err := database.DB.
		Where("status = ? AND created_at < ?", models.RequestStatusActive, cutoff).
		Find(&stale).Error; err != nil {
		log.Printf("❌ Auto-close sweep failed to load stale requests: %v", err)
		return
	}

	if len(stale) == 0 {
		return
	}

	closed := 0
	for i := range stale {
		now := time.Now()
		stale[i].Status = models.RequestStatusClosed
		stale[i].ClosedAt = &now

		if err := database.DB.Save(&stale[i]).Error; err != nil {
			log.Printf("❌ Failed to auto-close request %d: %v", stale[i].ID, err)
			continue
		}
		closed++

		if err := services.NotifyAutoClosed(stale[i].UserID, &stale[i]); err != nil {
			log.Printf("⚠️ Failed to notify owner %d about auto-close: %v", stale[i].UserID, err)
		}
	}

	log.Printf("🧹 Auto-close sweep closed %d stale requests", closed)
}
