package main

import (
	"time"

	"github.com/robfig/cron/v3"
	logger "github.com/sirupsen/logrus"

	"botcontrol/internal/models"
	dbconfig "botcontrol/pkg/config"
)

// getZeroSecondTime truncates a time to the minute
func getZeroSecondTime(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, t.Location())
}

// RecordPerformanceSnapshots writes a performance snapshot for every bot that
// is not in a terminal state
func RecordPerformanceSnapshots() error {
	logger.Info("Recording bot performance snapshots")

	var bots []models.TradingBot
	if err := dbconfig.DB.Where("status IN ?", []string{"active", "paused", "stopped"}).Find(&bots).Error; err != nil {
		logger.Errorf("Failed to load bots: %v", err)
		return err
	}

	logger.Infof("Found %d bots to snapshot", len(bots))

	now := time.Now().UTC()
	for _, b := range bots {
		snapshot := models.PerformanceSnapshot{
			BotID:             b.ID,
			TotalProfitUSD:    b.TotalProfitUSD,
			TotalTransactions: b.TotalTransactions,
			SuccessRate:       b.SuccessRate,
			ROI:               b.ROI,
			SnapshotAt:        getZeroSecondTime(now),
		}
		if err := dbconfig.DB.Create(&snapshot).Error; err != nil {
			logger.Errorf("Failed to create snapshot for bot %s: %v", b.ID, err)
			continue
		}
	}

	logger.Info("Performance snapshots recorded")
	return nil
}

func main() {
	logger.SetFormatter(&logger.TextFormatter{
		FullTimestamp: true,
	})
	logger.SetLevel(logger.InfoLevel)

	dbconfig.InitDB()
	logger.Info("Database connection initialized")

	c := cron.New(cron.WithSeconds())

	// Run at the top of every hour
	_, err := c.AddFunc("0 0 * * * *", func() {
		if err := RecordPerformanceSnapshots(); err != nil {
			logger.Errorf("Failed to record performance snapshots: %v", err)
		}
	})
	if err != nil {
		logger.Fatalf("Failed to add cron job: %v", err)
	}

	logger.Info("Snapshot job scheduled, running hourly")
	c.Start()

	select {}
}
