package fraud

import (
	"context"
	"fmt"
	"time"

	"github.com/rewards360/fraudwatch/internal/logging"
)

// Seed loads a small demo ledger so the console has something to show in
// development. It is a no-op when the store already has transactions.
func Seed(ctx context.Context, svc *Service) error {
	existing, err := svc.ListTransactions(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	now := time.Now()
	inputs := []*IngestInput{
		{AccountID: "acct-1001", MerchantName: "Corner Grocery", MerchantCategory: "groceries",
			Location: "Seattle", Country: "US", Amount: "42.17", OccurredAt: now.Add(-6 * time.Hour).Format(time.RFC3339)},
		{AccountID: "acct-1001", MerchantName: "Moonlight Jewelers", MerchantCategory: "luxury-goods",
			Location: "Seattle", Country: "US", Amount: "2450.00", OccurredAt: now.Add(-5 * time.Hour).Format(time.RFC3339)},
		{AccountID: "acct-1002", MerchantName: "Skyline Hotels", MerchantCategory: "travel",
			Location: "Lisbon", Country: "PT", Amount: "890.00", OccurredAt: now.Add(-4 * time.Hour).Format(time.RFC3339)},
		{AccountID: "acct-1002", MerchantName: "Harbor Duty Free", MerchantCategory: "retail",
			Location: "Singapore", Country: "SG", Amount: "310.50", OccurredAt: now.Add(-210 * time.Minute).Format(time.RFC3339)},
		{AccountID: "acct-1003", MerchantName: "Apex Exchange", MerchantCategory: "crypto",
			Location: "Online", Country: "US", Amount: "15000.00", OccurredAt: now.Add(-3 * time.Hour).Format(time.RFC3339)},
		{AccountID: "acct-1004", MerchantName: "Grand Auction House", MerchantCategory: "luxury-goods",
			Location: "New York", Country: "US", Amount: "62000.00", OccurredAt: now.Add(-2 * time.Hour).Format(time.RFC3339)},
	}

	// A burst on one account so the velocity rule has something to find.
	for i := 0; i < 5; i++ {
		inputs = append(inputs, &IngestInput{
			AccountID:        "acct-1005",
			MerchantName:     fmt.Sprintf("Quick Mart #%d", i+1),
			MerchantCategory: "convenience",
			Location:         "Austin",
			Country:          "US",
			Amount:           "19.99",
			OccurredAt:       now.Add(-time.Hour).Add(time.Duration(i) * 3 * time.Minute).Format(time.RFC3339),
		})
	}

	for _, in := range inputs {
		if _, err := svc.Ingest(ctx, in, "seed"); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}

	logging.L(ctx).Info("seeded demo transactions", "count", len(inputs))
	return nil
}
