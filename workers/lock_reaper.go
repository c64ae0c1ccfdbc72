package workers

import (
	"time"

	"aura/config"
	"aura/insight"

	"github.com/jinzhu/gorm"
)

// StartLockReaper starts a loop that clears expired insight lock leases.
// The lock protocol does not depend on it (expired rows are reclaimed in
// place); it keeps the table from accumulating rows for users that never
// come back.
func StartLockReaper(db *gorm.DB, every time.Duration) {
	if every <= 0 {
		every = time.Minute
	}
	locks := insight.NewLockStore(db)

	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()

		for range ticker.C {
			n, err := locks.ReapExpired()
			if err != nil {
				config.Logger.Warn().Err(err).Msg("lock reaper: sweep failed")
				continue
			}
			if n > 0 {
				config.Logger.Debug().Int64("reaped", n).Msg("lock reaper: cleared expired leases")
			}
		}
	}()
}
