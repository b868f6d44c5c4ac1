// Command partforge partitions a list of filesystem entries into balanced
// or bounded groups, for splitting a large copy/archive job across workers.
package main

import (
	"log"
	"os"

	"partforge/internal/config"
	"partforge/internal/engine"
	"partforge/internal/history"
)

func main() {
	logger := log.New(os.Stderr, "", log.LstdFlags)

	opt, err := config.Load(os.Args[1:])
	if err != nil {
		logger.Fatalf("configuration error: %v", err)
	}

	ledger, err := history.Open(opt.HistoryDBPath)
	if err != nil {
		logger.Printf("history: %v (continuing without a run ledger)", err)
		ledger = nil
	}
	defer ledger.Close()

	if opt.Verbose >= 2 {
		logRecentHistory(logger, ledger)
	}

	eng := engine.New(opt, logger)
	res, err := eng.Run(ledger)
	if err != nil {
		logger.Fatalf("partforge: %v", err)
	}

	logger.Printf("done: %d partitions, %d entries in %s", res.NumParts, res.TotalFiles, res.Duration)
}

// logRecentHistory prints the last 5 ledger entries at -vv and above, giving
// a quick before-and-after comparison against prior runs over the same tree.
func logRecentHistory(logger *log.Logger, ledger *history.Ledger) {
	recs, err := ledger.Recent(5)
	if err != nil {
		logger.Printf("history: %v", err)
		return
	}
	for _, r := range recs {
		logger.Printf("history: %s mode=%s %s files=%d size=%d parts=%d took=%s",
			r.StartedAt.Format("2006-01-02T15:04:05"), r.Mode, r.Selector, r.TotalFiles, r.TotalSize, r.NumParts, r.Duration)
	}
}
