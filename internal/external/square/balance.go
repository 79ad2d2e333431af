package square

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// balanceWindow is how far back the recent-payments listing looks.
const balanceWindow = 7 * 24 * time.Hour

const balancePageLimit = 50

// AccountBalance summarizes the account's location and recent payment
// activity, categorized by settlement status.
type AccountBalance struct {
	Location          Location  `json:"location"`
	CompletedPayments []Payment `json:"completed_payments"`
	PendingPayments   []Payment `json:"pending_payments"`
	TotalCompleted    int64     `json:"total_completed_cents"`
	TotalPending      int64     `json:"total_pending_cents"`
	PaymentCount      int       `json:"payment_count"`
}

// AccountBalance fetches the location and the recent payment list
// concurrently and aggregates cleared versus pending totals.
func (c *Client) AccountBalance(ctx context.Context) (AccountBalance, error) {
	var (
		location Location
		payments []Payment
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		loc, err := c.GetLocation(gctx)
		if err != nil {
			return err
		}
		location = loc
		return nil
	})
	g.Go(func() error {
		end := time.Now()
		list, err := c.ListPayments(gctx, end.Add(-balanceWindow), end, balancePageLimit)
		if err != nil {
			return err
		}
		payments = list
		return nil
	})
	if err := g.Wait(); err != nil {
		return AccountBalance{}, err
	}

	balance := AccountBalance{
		Location:          location,
		CompletedPayments: []Payment{},
		PendingPayments:   []Payment{},
		PaymentCount:      len(payments),
	}
	for _, p := range payments {
		switch p.Status {
		case "COMPLETED":
			balance.CompletedPayments = append(balance.CompletedPayments, p)
			balance.TotalCompleted += p.AmountMoney.Amount
		case "APPROVED", "PENDING":
			balance.PendingPayments = append(balance.PendingPayments, p)
			balance.TotalPending += p.AmountMoney.Amount
		}
	}

	return balance, nil
}
