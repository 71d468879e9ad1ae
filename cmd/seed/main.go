// Command seed fills the configured storage backend with generated demo
// transactions so the dashboard has something to show on a fresh install.
package main

import (
	"context"
	"flag"
	"math/rand"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/qmcao/spending-tracker/internal/cli"
	"github.com/qmcao/spending-tracker/internal/core"
	"github.com/qmcao/spending-tracker/internal/ledger"
	"github.com/qmcao/spending-tracker/internal/registry"
)

func main() {
	count := flag.Int("count", 120, "number of transactions to generate")
	months := flag.Int("months", 6, "spread transactions over this many months back from today")
	reset := flag.Bool("reset", false, "clear existing transactions before seeding")
	flag.Parse()
	if *months < 1 {
		*months = 1
	}

	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	cfg := cli.LoadAndValidateConfig(logger)

	store := cli.OpenStorage(logger, cfg)
	if store.Degraded() {
		logger.Error("Storage degraded to in-memory; seeding would be lost on exit")
		os.Exit(1)
	}

	instruments := registry.DefaultInstruments()
	categories := registry.DefaultCategories()
	led := ledger.New(store, instruments, nil)
	existing := led.Load()

	ctx := context.Background()
	if *reset && existing > 0 {
		led.ClearAll(ctx)
		logger.Info("Cleared existing transactions", "count", existing)
	}

	cards := instruments.All()
	now := time.Now()

	created := 0
	for i := 0; i < *count; i++ {
		card := cards[rand.Intn(len(cards))]
		day := now.AddDate(0, 0, -rand.Intn(*months*30))

		draft := ledger.Draft{
			Date:     core.DateOf(day),
			Amount:   core.Money{Cents: int64(rand.Intn(15000) + 100)},
			Category: categories[rand.Intn(len(categories))],
			Memo:     gofakeit.ProductName(),
			CardID:   card.ID,
		}
		// Credit purchases pend until cleared; leave roughly a third pending.
		if card.Settlement == core.Credit && rand.Intn(3) == 0 {
			pending := false
			draft.Cleared = &pending
		}

		if _, err := led.Create(ctx, draft); err != nil {
			logger.Error("Failed to create seed transaction", "error", err)
			os.Exit(1)
		}
		created++
	}

	logger.Info("Seeding complete",
		"created", created,
		"total", existing+created,
		"backend", store.Backend(),
		"months", *months)
}
