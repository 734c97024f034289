package jobs

import (
	"log"
	"time"

	"carcare-marketplace-server/config"
	"carcare-marketplace-server/middleware"
	"carcare-marketplace-server/services"
)

const sweepBatchSize = 100

// ExpirationJob sweeps stale pending quotes and expired pending orders, and
// periodically cleans up expired refresh tokens.
type ExpirationJob struct {
	quotes   *services.QuoteService
	orders   *services.OrderService
	jwt      *services.JWTService
	cfg      config.MatchingConfig
	stopChan chan bool
}

// NewExpirationJob creates a new expiration job
func NewExpirationJob(quotes *services.QuoteService, orders *services.OrderService, jwt *services.JWTService, cfg config.MatchingConfig) *ExpirationJob {
	return &ExpirationJob{
		quotes:   quotes,
		orders:   orders,
		jwt:      jwt,
		cfg:      cfg,
		stopChan: make(chan bool),
	}
}

// Start begins the expiration job
func (j *ExpirationJob) Start() {
	go j.run()
	log.Println("🚀 Expiration job started")
}

// Stop stops the expiration job
func (j *ExpirationJob) Stop() {
	j.stopChan <- true
	log.Println("🛑 Expiration job stopped")
}

func (j *ExpirationJob) run() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	// Token cleanup is much less frequent than the lifecycle sweeps
	tokenTicker := time.NewTicker(1 * time.Hour)
	defer tokenTicker.Stop()

	for {
		select {
		case <-ticker.C:
			j.sweep()
		case <-tokenTicker.C:
			if err := j.jwt.CleanupExpiredTokens(); err != nil {
				log.Printf("❌ Token cleanup failed: %v", err)
			}
			middleware.CleanupRateLimiters()
		case <-j.stopChan:
			return
		}
	}
}

// sweep runs one pass over stale quotes and expired orders
func (j *ExpirationJob) sweep() {
	ttl := time.Duration(j.cfg.QuoteTTLMinutes) * time.Minute
	if n, err := j.quotes.ExpireStaleQuotes(ttl, sweepBatchSize); err != nil {
		log.Printf("❌ Quote expiry sweep failed: %v", err)
	} else if n > 0 {
		log.Printf("⏰ Expired %d stale quotes", n)
	}

	if n, err := j.orders.ExpirePendingOrders(sweepBatchSize); err != nil {
		log.Printf("❌ Order expiry sweep failed: %v", err)
	} else if n > 0 {
		log.Printf("⏰ Expired %d pending orders", n)
	}
}
