package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"bankcards/internal/config"
	"bankcards/internal/db"
	apperrors "bankcards/internal/errors"
	"bankcards/internal/logging"
	"bankcards/internal/service"
)

// SeedCardData is one card entry of the seed file.
type SeedCardData struct {
	Number         string `json:"number"`
	OwnerID        string `json:"owner_id"`
	Status         string `json:"status"`
	Balance        string `json:"balance"`
	ExpirationDate string `json:"expiration_date"`
}

func main() {
	file := flag.StringP("file", "f", "cmd/seed/cards.json", "path to the JSON seed file")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load config")
	}
	log := logging.New(cfg.Log.Level)
	log.Info("Starting seed script...")

	if cfg.Database.Driver == "memory" {
		log.Fatal("seeding the memory driver has no effect, configure mysql or postgres")
	}

	store, err := db.OpenStore(cfg.Database, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	log.Info("Connected to database")

	items, err := loadCards(*file)
	if err != nil {
		log.WithError(err).Fatal("Failed to load seed file")
	}
	log.Infof("Loaded %d cards from %s", len(items), *file)

	inputs, skipped := toInputs(items, log)
	if skipped > 0 {
		log.Warnf("Skipped %d invalid entries", skipped)
	}

	cards := service.NewCardService(store, nil, log)
	created, existing, err := seedCards(context.Background(), cards, inputs, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to seed cards")
	}

	log.WithFields(logrus.Fields{
		"created":  created,
		"existing": existing,
		"skipped":  skipped,
	}).Info("Seed completed successfully!")
}

// loadCards reads the seed file.
func loadCards(path string) ([]SeedCardData, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var items []SeedCardData
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return items, nil
}

func toInputs(items []SeedCardData, log logrus.FieldLogger) ([]service.CreateCardInput, int) {
	inputs := make([]service.CreateCardInput, 0, len(items))
	skipped := 0
	for i, item := range items {
		entry := log.WithField("entry", i)

		ownerID, err := uuid.Parse(item.OwnerID)
		if err != nil {
			entry.Warnf("Skipping card with invalid owner_id: %s", item.OwnerID)
			skipped++
			continue
		}
		expires, err := time.Parse("2006-01-02", item.ExpirationDate)
		if err != nil {
			entry.Warnf("Skipping card with invalid expiration_date: %s", item.ExpirationDate)
			skipped++
			continue
		}
		balance := decimal.Zero
		if item.Balance != "" {
			balance, err = decimal.NewFromString(item.Balance)
			if err != nil {
				entry.Warnf("Skipping card with invalid balance: %s", item.Balance)
				skipped++
				continue
			}
		}

		inputs = append(inputs, service.CreateCardInput{
			OwnerID:        ownerID,
			Number:         item.Number,
			Status:         item.Status,
			Balance:        balance,
			ExpirationDate: expires,
		})
	}
	return inputs, skipped
}

// seedCards creates each card, counting numbers that already exist instead of failing.
func seedCards(ctx context.Context, cards service.CardService, inputs []service.CreateCardInput, log logrus.FieldLogger) (created int, existing int, err error) {
	for _, in := range inputs {
		card, err := cards.CreateCard(ctx, in)
		switch {
		case errors.Is(err, apperrors.ErrCardNumberTaken):
			existing++
		case err != nil:
			return created, existing, fmt.Errorf("error creating card %s: %w", service.MaskCardNumber(in.Number), err)
		default:
			log.WithFields(logrus.Fields{
				"card_id": card.ID,
				"number":  service.MaskCardNumber(card.Number),
			}).Debug("card created")
			created++
		}
	}
	return created, existing, nil
}
