package jobs

import (
	"log"
	"time"

	"aasaan-server/services"
)

// TokenCleanupJob removes expired refresh tokens once a day
type TokenCleanupJob struct {
	jwtService *services.JWTService
	stopChan   chan struct{}
}

// NewTokenCleanupJob creates a new token cleanup job
func NewTokenCleanupJob() *TokenCleanupJob {
	return &TokenCleanupJob{
		jwtService: services.NewJWTService(),
		stopChan:   make(chan struct{}),
	}
}

// Start begins the daily cleanup
func (j *TokenCleanupJob) Start() {
	log.Println("🕐 Starting refresh-token cleanup job...")

	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := j.jwtService.CleanupExpiredTokens(); err != nil {
					log.Printf("❌ Refresh-token cleanup failed: %v", err)
				}
			case <-j.stopChan:
				log.Println("🛑 Token cleanup job stopped")
				return
			}
		}
	}()
}

// Stop stops the job
func (j *TokenCleanupJob) Stop() {
	close(j.stopChan)
}
