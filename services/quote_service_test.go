package services

import (
	"errors"
	"sync"
	"testing"
	"time"

	"carcare-marketplace-server/models"
)

func TestSubmitQuote(t *testing.T) {
	env := newTestEnv(t)
	env.seedProvider(t, 10, 19.0800, 72.8777, svc("full_wash", 50000))
	order := env.seedOrder(t, 1)

	t.Run("success", func(t *testing.T) {
		quote, err := env.quotes.SubmitQuote(10, order.ID, models.QuoteSubmitRequest{
			PriceMinor:               45000,
			EstimatedDurationMinutes: 90,
			Notes:                    "includes interior vacuum",
		})
		if err != nil {
			t.Fatalf("SubmitQuote: %v", err)
		}
		if quote.Status != models.QuoteStatusPending {
			t.Fatalf("expected pending quote, got %s", quote.Status)
		}
		if quote.PriceMinor != 45000 {
			t.Fatalf("expected price 45000, got %d", quote.PriceMinor)
		}
		if len(env.sink.notifications) != 1 {
			t.Fatalf("expected 1 notification, got %d", len(env.sink.notifications))
		}
		if env.sink.notifications[0].RecipientID != order.CustomerID {
			t.Fatal("expected customer to be notified")
		}
	})

	t.Run("duplicate pending quote", func(t *testing.T) {
		_, err := env.quotes.SubmitQuote(10, order.ID, models.QuoteSubmitRequest{PriceMinor: 40000})
		if !errors.Is(err, ErrDuplicateQuote) {
			t.Fatalf("expected ErrDuplicateQuote, got %v", err)
		}
	})

	t.Run("non-positive price", func(t *testing.T) {
		_, err := env.quotes.SubmitQuote(10, order.ID, models.QuoteSubmitRequest{PriceMinor: 0})
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("unknown order", func(t *testing.T) {
		_, err := env.quotes.SubmitQuote(10, 9999, models.QuoteSubmitRequest{PriceMinor: 40000})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("unapproved provider", func(t *testing.T) {
		pending := env.seedProvider(t, 11, 19.0800, 72.8777)
		pending.ApprovalStatus = models.ApprovalPending
		if err := env.store.SaveProvider(pending); err != nil {
			t.Fatal(err)
		}
		_, err := env.quotes.SubmitQuote(11, order.ID, models.QuoteSubmitRequest{PriceMinor: 40000})
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})
}

func TestSubmitQuoteOnSettledOrder(t *testing.T) {
	env := newTestEnv(t)
	env.seedProvider(t, 10, 19.0800, 72.8777)
	env.seedProvider(t, 11, 19.0900, 72.8777)
	order := env.seedOrder(t, 1)
	env.settleOrder(t, order, 10, 50000)

	_, err := env.quotes.SubmitQuote(11, order.ID, models.QuoteSubmitRequest{PriceMinor: 30000})
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState on confirmed order, got %v", err)
	}
}

func TestSubmitQuoteAgainAfterRejection(t *testing.T) {
	env := newTestEnv(t)
	env.seedProvider(t, 10, 19.0800, 72.8777)
	order := env.seedOrder(t, 1)

	first, err := env.quotes.SubmitQuote(10, order.ID, models.QuoteSubmitRequest{PriceMinor: 50000})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.quotes.RejectQuote(1, first.ID); err != nil {
		t.Fatal(err)
	}

	// Once the first quote is decided the provider may quote again
	second, err := env.quotes.SubmitQuote(10, order.ID, models.QuoteSubmitRequest{PriceMinor: 42000})
	if err != nil {
		t.Fatalf("expected resubmission after rejection to succeed, got %v", err)
	}
	if second.ID == first.ID {
		t.Fatal("expected a new quote record")
	}
}

func TestAcceptQuoteSettlesOrder(t *testing.T) {
	env := newTestEnv(t)
	winner := env.seedProvider(t, 10, 19.0800, 72.8777)
	loser := env.seedProvider(t, 11, 19.0900, 72.8777)
	order := env.seedOrder(t, 1)

	winningQuote, err := env.quotes.SubmitQuote(10, order.ID, models.QuoteSubmitRequest{PriceMinor: 45000})
	if err != nil {
		t.Fatal(err)
	}
	losingQuote, err := env.quotes.SubmitQuote(11, order.ID, models.QuoteSubmitRequest{PriceMinor: 39000})
	if err != nil {
		t.Fatal(err)
	}

	accepted, err := env.quotes.AcceptQuote(1, winningQuote.ID)
	if err != nil {
		t.Fatalf("AcceptQuote: %v", err)
	}
	if accepted.Status != models.QuoteStatusAccepted {
		t.Fatalf("expected accepted quote, got %s", accepted.Status)
	}
	if accepted.DecidedAt == nil {
		t.Fatal("expected DecidedAt to be set")
	}

	updated, err := env.store.GetOrder(order.ID)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Status != models.OrderStatusConfirmed {
		t.Fatalf("expected confirmed order, got %s", updated.Status)
	}
	if updated.SelectedProviderID == nil || *updated.SelectedProviderID != winner.ID {
		t.Fatal("expected order settled on winning provider")
	}
	if updated.TotalAmountMinor != 45000 {
		t.Fatalf("expected total 45000, got %d", updated.TotalAmountMinor)
	}
	if updated.Version != order.Version+1 {
		t.Fatalf("expected version bump, got %d", updated.Version)
	}

	sibling, err := env.store.GetQuote(losingQuote.ID)
	if err != nil {
		t.Fatal(err)
	}
	if sibling.Status != models.QuoteStatusRejected {
		t.Fatalf("expected sibling quote rejected, got %s", sibling.Status)
	}
	_ = loser

	// Winner and loser each get a notification, plus the submit notifications
	var acceptedNotes, rejectedNotes int
	for _, n := range env.sink.notifications {
		switch n.Title {
		case "Quote accepted":
			acceptedNotes++
		case "Quote declined":
			rejectedNotes++
		}
	}
	if acceptedNotes != 1 || rejectedNotes != 1 {
		t.Fatalf("expected 1 accepted and 1 declined notification, got %d and %d", acceptedNotes, rejectedNotes)
	}
}

func TestAcceptQuoteRaceLoser(t *testing.T) {
	env := newTestEnv(t)
	env.seedProvider(t, 10, 19.0800, 72.8777)
	env.seedProvider(t, 11, 19.0900, 72.8777)
	order := env.seedOrder(t, 1)

	first, err := env.quotes.SubmitQuote(10, order.ID, models.QuoteSubmitRequest{PriceMinor: 45000})
	if err != nil {
		t.Fatal(err)
	}
	second, err := env.quotes.SubmitQuote(11, order.ID, models.QuoteSubmitRequest{PriceMinor: 39000})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := env.quotes.AcceptQuote(1, first.ID); err != nil {
		t.Fatal(err)
	}
	settled, err := env.store.GetOrder(order.ID)
	if err != nil {
		t.Fatal(err)
	}

	// The second accept arrives after the first settled the order
	_, err = env.quotes.AcceptQuote(1, second.ID)
	if !errors.Is(err, ErrAlreadyDecided) {
		t.Fatalf("expected ErrAlreadyDecided for the race loser, got %v", err)
	}

	// Nothing may have been mutated by the losing call
	after, err := env.store.GetOrder(order.ID)
	if err != nil {
		t.Fatal(err)
	}
	if after.Version != settled.Version {
		t.Fatal("losing accept must not bump the order version")
	}
	if *after.SelectedProviderID != *settled.SelectedProviderID {
		t.Fatal("losing accept must not change the selected provider")
	}
	q, err := env.store.GetQuote(second.ID)
	if err != nil {
		t.Fatal(err)
	}
	if q.Status != models.QuoteStatusRejected {
		t.Fatalf("expected losing quote to stay rejected, got %s", q.Status)
	}
}

func TestAcceptQuoteConcurrent(t *testing.T) {
	env := newTestEnv(t)
	env.seedProvider(t, 10, 19.0800, 72.8777)
	env.seedProvider(t, 11, 19.0900, 72.8777)
	order := env.seedOrder(t, 1)

	first, err := env.quotes.SubmitQuote(10, order.ID, models.QuoteSubmitRequest{PriceMinor: 45000})
	if err != nil {
		t.Fatal(err)
	}
	second, err := env.quotes.SubmitQuote(11, order.ID, models.QuoteSubmitRequest{PriceMinor: 39000})
	if err != nil {
		t.Fatal(err)
	}

	results := make([]error, 2)
	var wg sync.WaitGroup
	for i, id := range []uint{first.ID, second.ID} {
		wg.Add(1)
		go func(i int, id uint) {
			defer wg.Done()
			_, results[i] = env.quotes.AcceptQuote(1, id)
		}(i, id)
	}
	wg.Wait()

	var wins, losses int
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, ErrAlreadyDecided):
			losses++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 || losses != 1 {
		t.Fatalf("expected exactly one winner and one loser, got %d wins, %d losses", wins, losses)
	}

	settled, err := env.store.GetOrder(order.ID)
	if err != nil {
		t.Fatal(err)
	}
	if settled.Status != models.OrderStatusConfirmed {
		t.Fatalf("expected confirmed order, got %s", settled.Status)
	}
	if settled.SelectedProviderID == nil {
		t.Fatal("expected a selected provider")
	}
}

func TestAcceptQuoteOnNonPendingOrder(t *testing.T) {
	env := newTestEnv(t)
	env.seedProvider(t, 10, 19.0800, 72.8777)
	order := env.seedOrder(t, 1)

	quote, err := env.quotes.SubmitQuote(10, order.ID, models.QuoteSubmitRequest{PriceMinor: 45000})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.orders.CancelOrder(1, order.ID); err != nil {
		t.Fatal(err)
	}
	cancelled, err := env.store.GetOrder(order.ID)
	if err != nil {
		t.Fatal(err)
	}

	// Cancelling rejected the pending quote; accepting it now is invalid
	// (not AlreadyDecided, since the order never settled on anyone)
	_, err = env.quotes.AcceptQuote(1, quote.ID)
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState on cancelled order, got %v", err)
	}
	if errors.Is(err, ErrAlreadyDecided) {
		t.Fatal("expected plain invalid state, not a race-loser conflict")
	}

	// The failed accept must not have touched the order
	after, err := env.store.GetOrder(order.ID)
	if err != nil {
		t.Fatal(err)
	}
	if after.Version != cancelled.Version {
		t.Fatal("failed accept must not bump the order version")
	}
	q, err := env.store.GetQuote(quote.ID)
	if err != nil {
		t.Fatal(err)
	}
	if q.Status != models.QuoteStatusRejected {
		t.Fatalf("expected quote rejected by the cancellation, got %s", q.Status)
	}
}

func TestAcceptQuoteWrongCustomer(t *testing.T) {
	env := newTestEnv(t)
	env.seedProvider(t, 10, 19.0800, 72.8777)
	order := env.seedOrder(t, 1)

	quote, err := env.quotes.SubmitQuote(10, order.ID, models.QuoteSubmitRequest{PriceMinor: 45000})
	if err != nil {
		t.Fatal(err)
	}
	_, err = env.quotes.AcceptQuote(2, quote.ID)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestRejectQuote(t *testing.T) {
	env := newTestEnv(t)
	env.seedProvider(t, 10, 19.0800, 72.8777)
	env.seedProvider(t, 11, 19.0900, 72.8777)
	order := env.seedOrder(t, 1)

	rejectedQuote, err := env.quotes.SubmitQuote(10, order.ID, models.QuoteSubmitRequest{PriceMinor: 45000})
	if err != nil {
		t.Fatal(err)
	}
	otherQuote, err := env.quotes.SubmitQuote(11, order.ID, models.QuoteSubmitRequest{PriceMinor: 39000})
	if err != nil {
		t.Fatal(err)
	}

	out, err := env.quotes.RejectQuote(1, rejectedQuote.ID)
	if err != nil {
		t.Fatalf("RejectQuote: %v", err)
	}
	if out.Status != models.QuoteStatusRejected || out.DecidedAt == nil {
		t.Fatal("expected rejected quote with DecidedAt set")
	}

	// The order stays open and the sibling quote stays pending
	after, err := env.store.GetOrder(order.ID)
	if err != nil {
		t.Fatal(err)
	}
	if after.Status != models.OrderStatusPending {
		t.Fatalf("expected order to stay pending, got %s", after.Status)
	}
	sibling, err := env.store.GetQuote(otherQuote.ID)
	if err != nil {
		t.Fatal(err)
	}
	if sibling.Status != models.QuoteStatusPending {
		t.Fatalf("expected sibling to stay pending, got %s", sibling.Status)
	}

	// Rejecting twice is an invalid state, not a success
	_, err = env.quotes.RejectQuote(1, rejectedQuote.ID)
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState on second reject, got %v", err)
	}
}

func TestListOrderQuotes(t *testing.T) {
	env := newTestEnv(t)
	env.seedProvider(t, 10, 19.0800, 72.8777)
	env.seedProvider(t, 11, 19.0900, 72.8777)
	order := env.seedOrder(t, 1)

	costly, err := env.quotes.SubmitQuote(10, order.ID, models.QuoteSubmitRequest{PriceMinor: 80000})
	if err != nil {
		t.Fatal(err)
	}
	cheap, err := env.quotes.SubmitQuote(11, order.ID, models.QuoteSubmitRequest{PriceMinor: 30000})
	if err != nil {
		t.Fatal(err)
	}

	byCreated, err := env.quotes.ListOrderQuotes(1, order.ID, QuoteSortCreated)
	if err != nil {
		t.Fatal(err)
	}
	if len(byCreated) != 2 || byCreated[0].ID != costly.ID {
		t.Fatal("expected submission order")
	}

	byPrice, err := env.quotes.ListOrderQuotes(1, order.ID, QuoteSortPrice)
	if err != nil {
		t.Fatal(err)
	}
	if len(byPrice) != 2 || byPrice[0].ID != cheap.ID {
		t.Fatal("expected cheapest quote first")
	}

	if _, err := env.quotes.ListOrderQuotes(2, order.ID, QuoteSortCreated); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for another customer, got %v", err)
	}
}

func TestExpireStaleQuotes(t *testing.T) {
	env := newTestEnv(t)
	env.seedProvider(t, 10, 19.0800, 72.8777)
	order := env.seedOrder(t, 1)

	quote, err := env.quotes.SubmitQuote(10, order.ID, models.QuoteSubmitRequest{PriceMinor: 45000})
	if err != nil {
		t.Fatal(err)
	}

	// A freshly submitted quote is not stale
	n, err := env.quotes.ExpireStaleQuotes(time.Hour, 100)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("expected no quotes expired, got %d", n)
	}

	// With a zero TTL every pending quote is stale
	n, err = env.quotes.ExpireStaleQuotes(0, 100)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected 1 quote expired, got %d", n)
	}
	q, err := env.store.GetQuote(quote.ID)
	if err != nil {
		t.Fatal(err)
	}
	if q.Status != models.QuoteStatusRejected {
		t.Fatalf("expected expired quote rejected, got %s", q.Status)
	}
}

// lockRecordingStore wraps the fake store and records the sequence of row
// locks taken inside transactions.
type lockRecordingStore struct {
	*fakeStore
	locks []string
}

func (s *lockRecordingStore) Transact(fn func(tx Tx) error) error {
	return s.fakeStore.Transact(func(tx Tx) error {
		return fn(&lockRecordingTx{Tx: tx, rec: s})
	})
}

type lockRecordingTx struct {
	Tx
	rec *lockRecordingStore
}

func (t *lockRecordingTx) GetOrderForUpdate(id uint) (*models.Order, error) {
	t.rec.locks = append(t.rec.locks, "order")
	return t.Tx.GetOrderForUpdate(id)
}

func (t *lockRecordingTx) GetQuoteForUpdate(id uint) (*models.Quote, error) {
	t.rec.locks = append(t.rec.locks, "quote")
	return t.Tx.GetQuoteForUpdate(id)
}

// Concurrent decisions on quotes of the same order serialize on the order
// row. That only holds if every decision path locks the order before any
// quote; locking the quote first lets two accepts on different quotes of the
// same order each hold a quote lock while waiting for the other's.
func TestQuoteDecisionsLockOrderFirst(t *testing.T) {
	env := newTestEnv(t)
	env.seedProvider(t, 10, 19.0800, 72.8777)
	env.seedProvider(t, 11, 19.0900, 72.8777)
	order := env.seedOrder(t, 1)

	first, err := env.quotes.SubmitQuote(10, order.ID, models.QuoteSubmitRequest{PriceMinor: 40000})
	if err != nil {
		t.Fatal(err)
	}
	second, err := env.quotes.SubmitQuote(11, order.ID, models.QuoteSubmitRequest{PriceMinor: 45000})
	if err != nil {
		t.Fatal(err)
	}

	rec := &lockRecordingStore{fakeStore: env.store}
	quotes := NewQuoteService(rec, nil)

	if _, err := quotes.RejectQuote(1, second.ID); err != nil {
		t.Fatalf("RejectQuote: %v", err)
	}
	if len(rec.locks) < 2 || rec.locks[0] != "order" || rec.locks[1] != "quote" {
		t.Fatalf("reject locked rows as %v, want the order before the quote", rec.locks)
	}

	rec.locks = nil
	if _, err := quotes.AcceptQuote(1, first.ID); err != nil {
		t.Fatalf("AcceptQuote: %v", err)
	}
	if len(rec.locks) < 2 || rec.locks[0] != "order" || rec.locks[1] != "quote" {
		t.Fatalf("accept locked rows as %v, want the order before the quote", rec.locks)
	}
}
