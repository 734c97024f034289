package services

import (
	"errors"
	"testing"
	"time"

	"carcare-marketplace-server/models"
)

func TestCreateOrder(t *testing.T) {
	env := newTestEnv(t)

	t.Run("success", func(t *testing.T) {
		order, err := env.orders.CreateOrder(1, models.OrderCreateRequest{
			ServiceType:     "full_wash",
			LocationLat:     19.0760,
			LocationLng:     72.8777,
			LocationAddress: "12 Marine Drive",
			ScheduledDate:   "2026-09-15",
			ScheduledTime:   "10:30",
		})
		if err != nil {
			t.Fatalf("CreateOrder: %v", err)
		}
		if order.Status != models.OrderStatusPending {
			t.Fatalf("expected pending order, got %s", order.Status)
		}
		if order.Reference == "" {
			t.Fatal("expected a reference to be assigned")
		}
		if order.ExpiresAt == nil || !order.ExpiresAt.After(time.Now()) {
			t.Fatal("expected a future expiry")
		}
		if order.ScheduledDate == nil || order.ScheduledDate.Format("2006-01-02") != "2026-09-15" {
			t.Fatal("expected scheduled date to be parsed")
		}
		if order.Version != 0 {
			t.Fatalf("expected version 0, got %d", order.Version)
		}
	})

	t.Run("round trip", func(t *testing.T) {
		created, err := env.orders.CreateOrder(2, models.OrderCreateRequest{
			ServiceType:         "oil_change",
			LocationLat:         19.0761,
			LocationLng:         72.8778,
			LocationAddress:     "7 Hill Road",
			LocationCity:        "Mumbai",
			ScheduledDate:       "2026-10-01",
			ScheduledTime:       "09:00",
			VehicleDescription:  "White Honda City 2019",
			SpecialInstructions: "Gate code 4821",
		})
		if err != nil {
			t.Fatalf("CreateOrder: %v", err)
		}

		fetched, err := env.orders.GetCustomerOrder(2, created.ID)
		if err != nil {
			t.Fatalf("GetCustomerOrder: %v", err)
		}
		if fetched.Reference != created.Reference {
			t.Fatalf("expected reference %q, got %q", created.Reference, fetched.Reference)
		}
		if fetched.ServiceType != "oil_change" {
			t.Fatalf("expected service type oil_change, got %q", fetched.ServiceType)
		}
		if fetched.LocationLat == nil || *fetched.LocationLat != 19.0761 {
			t.Fatal("expected latitude to survive the round trip")
		}
		if fetched.LocationLng == nil || *fetched.LocationLng != 72.8778 {
			t.Fatal("expected longitude to survive the round trip")
		}
		if fetched.LocationAddress != "7 Hill Road" || fetched.LocationCity != "Mumbai" {
			t.Fatalf("expected address to survive the round trip, got %q / %q", fetched.LocationAddress, fetched.LocationCity)
		}
		if fetched.ScheduledDate == nil || fetched.ScheduledDate.Format("2006-01-02") != "2026-10-01" {
			t.Fatal("expected scheduled date to survive the round trip")
		}
		if fetched.ScheduledTime != "09:00" {
			t.Fatalf("expected scheduled time 09:00, got %q", fetched.ScheduledTime)
		}
		if fetched.VehicleDescription != "White Honda City 2019" {
			t.Fatalf("unexpected vehicle description %q", fetched.VehicleDescription)
		}
		if fetched.SpecialInstructions != "Gate code 4821" {
			t.Fatalf("unexpected special instructions %q", fetched.SpecialInstructions)
		}
	})

	t.Run("invalid coordinates", func(t *testing.T) {
		_, err := env.orders.CreateOrder(1, models.OrderCreateRequest{
			ServiceType:     "full_wash",
			LocationLat:     120,
			LocationLng:     72.8777,
			LocationAddress: "nowhere",
		})
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("bad scheduled date", func(t *testing.T) {
		_, err := env.orders.CreateOrder(1, models.OrderCreateRequest{
			ServiceType:     "full_wash",
			LocationLat:     19.0760,
			LocationLng:     72.8777,
			LocationAddress: "12 Marine Drive",
			ScheduledDate:   "15/09/2026",
		})
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
	})
}

func TestOrderLifecycleHappyPath(t *testing.T) {
	env := newTestEnv(t)
	provider := env.seedProvider(t, 10, 19.0800, 72.8777)
	order := env.seedOrder(t, 1)
	env.settleOrder(t, order, 10, 50000)

	started, err := env.orders.StartOrder(10, order.ID)
	if err != nil {
		t.Fatalf("StartOrder: %v", err)
	}
	if started.Status != models.OrderStatusInProgress {
		t.Fatalf("expected in_progress, got %s", started.Status)
	}
	if started.StartedAt == nil {
		t.Fatal("expected StartedAt to be set")
	}

	completed, err := env.orders.CompleteOrder(10, order.ID)
	if err != nil {
		t.Fatalf("CompleteOrder: %v", err)
	}
	if completed.Status != models.OrderStatusCompleted {
		t.Fatalf("expected completed, got %s", completed.Status)
	}
	if completed.CompletedAt == nil {
		t.Fatal("expected CompletedAt to be set")
	}

	// Each transition bumps the version exactly once
	if completed.Version != 3 {
		t.Fatalf("expected version 3 after confirm, start, complete, got %d", completed.Version)
	}

	updated, err := env.store.GetProvider(provider.ID)
	if err != nil {
		t.Fatal(err)
	}
	if updated.CompletedJobs != 1 {
		t.Fatalf("expected 1 completed job, got %d", updated.CompletedJobs)
	}
}

func TestOrderIllegalTransitions(t *testing.T) {
	env := newTestEnv(t)
	env.seedProvider(t, 10, 19.0800, 72.8777)

	t.Run("start before confirmation", func(t *testing.T) {
		order := env.seedOrder(t, 1)
		quote, err := env.quotes.SubmitQuote(10, order.ID, models.QuoteSubmitRequest{PriceMinor: 50000})
		if err != nil {
			t.Fatal(err)
		}
		_ = quote
		_, err = env.orders.StartOrder(10, order.ID)
		if !errors.Is(err, ErrForbidden) && !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("expected start of pending order to fail, got %v", err)
		}
	})

	t.Run("complete before start", func(t *testing.T) {
		order := env.seedOrder(t, 1)
		env.settleOrder(t, order, 10, 50000)
		_, err := env.orders.CompleteOrder(10, order.ID)
		if !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("expected ErrInvalidTransition, got %v", err)
		}
	})

	t.Run("cancel after completion", func(t *testing.T) {
		order := env.seedOrder(t, 1)
		env.settleOrder(t, order, 10, 50000)
		if _, err := env.orders.StartOrder(10, order.ID); err != nil {
			t.Fatal(err)
		}
		if _, err := env.orders.CompleteOrder(10, order.ID); err != nil {
			t.Fatal(err)
		}
		_, err := env.orders.CancelOrder(1, order.ID)
		if !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("expected ErrInvalidTransition, got %v", err)
		}
	})

	t.Run("failed transition leaves order untouched", func(t *testing.T) {
		order := env.seedOrder(t, 1)
		env.settleOrder(t, order, 10, 50000)
		before, err := env.store.GetOrder(order.ID)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := env.orders.CompleteOrder(10, order.ID); err == nil {
			t.Fatal("expected completion of confirmed order to fail")
		}
		after, err := env.store.GetOrder(order.ID)
		if err != nil {
			t.Fatal(err)
		}
		if after.Status != before.Status || after.Version != before.Version {
			t.Fatal("failed transition must not mutate the order")
		}
	})
}

func TestStartOrderWrongProvider(t *testing.T) {
	env := newTestEnv(t)
	env.seedProvider(t, 10, 19.0800, 72.8777)
	env.seedProvider(t, 11, 19.0900, 72.8777)
	order := env.seedOrder(t, 1)
	env.settleOrder(t, order, 10, 50000)

	_, err := env.orders.StartOrder(11, order.ID)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for the unselected provider, got %v", err)
	}
}

func TestCancelOrder(t *testing.T) {
	env := newTestEnv(t)
	env.seedProvider(t, 10, 19.0800, 72.8777)

	t.Run("cancel pending", func(t *testing.T) {
		order := env.seedOrder(t, 1)
		cancelled, err := env.orders.CancelOrder(1, order.ID)
		if err != nil {
			t.Fatalf("CancelOrder: %v", err)
		}
		if cancelled.Status != models.OrderStatusCancelled {
			t.Fatalf("expected cancelled, got %s", cancelled.Status)
		}
	})

	t.Run("cancel rejects pending quotes", func(t *testing.T) {
		order := env.seedOrder(t, 1)
		quote, err := env.quotes.SubmitQuote(10, order.ID, models.QuoteSubmitRequest{PriceMinor: 40000})
		if err != nil {
			t.Fatal(err)
		}

		if _, err := env.orders.CancelOrder(1, order.ID); err != nil {
			t.Fatal(err)
		}

		got, err := env.store.GetQuote(quote.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.Status != models.QuoteStatusRejected {
			t.Fatalf("expected the pending quote to be rejected, got %s", got.Status)
		}
	})

	t.Run("cancel confirmed notifies provider", func(t *testing.T) {
		order := env.seedOrder(t, 1)
		env.settleOrder(t, order, 10, 50000)
		before := len(env.sink.notifications)

		if _, err := env.orders.CancelOrder(1, order.ID); err != nil {
			t.Fatal(err)
		}
		if len(env.sink.notifications) != before+1 {
			t.Fatal("expected the selected provider to be notified")
		}
		last := env.sink.notifications[len(env.sink.notifications)-1]
		if last.RecipientType != models.RecipientProvider {
			t.Fatal("expected a provider notification")
		}
	})

	t.Run("cancel in progress", func(t *testing.T) {
		order := env.seedOrder(t, 1)
		env.settleOrder(t, order, 10, 50000)
		if _, err := env.orders.StartOrder(10, order.ID); err != nil {
			t.Fatal(err)
		}
		if _, err := env.orders.CancelOrder(1, order.ID); err != nil {
			t.Fatalf("expected cancellation of in-progress order to succeed, got %v", err)
		}
	})

	t.Run("wrong customer", func(t *testing.T) {
		order := env.seedOrder(t, 1)
		_, err := env.orders.CancelOrder(2, order.ID)
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
	})
}

func TestSubmitReview(t *testing.T) {
	env := newTestEnv(t)
	provider := env.seedProvider(t, 10, 19.0800, 72.8777)

	completeOrder := func(t *testing.T) *models.Order {
		order := env.seedOrder(t, 1)
		env.settleOrder(t, order, 10, 50000)
		if _, err := env.orders.StartOrder(10, order.ID); err != nil {
			t.Fatal(err)
		}
		if _, err := env.orders.CompleteOrder(10, order.ID); err != nil {
			t.Fatal(err)
		}
		return order
	}

	t.Run("review folds into provider rating", func(t *testing.T) {
		order := completeOrder(t)
		reviewed, err := env.orders.SubmitReview(1, order.ID, models.OrderReviewRequest{Rating: 4, Review: "quick and clean"})
		if err != nil {
			t.Fatalf("SubmitReview: %v", err)
		}
		if reviewed.CustomerRating == nil || *reviewed.CustomerRating != 4 {
			t.Fatal("expected rating stored on the order")
		}

		updated, err := env.store.GetProvider(provider.ID)
		if err != nil {
			t.Fatal(err)
		}
		if updated.TotalReviews != 1 || updated.Rating != 4 {
			t.Fatalf("expected rating 4.0 over 1 review, got %f over %d", updated.Rating, updated.TotalReviews)
		}

		// A second review averages in
		second := completeOrder(t)
		if _, err := env.orders.SubmitReview(1, second.ID, models.OrderReviewRequest{Rating: 2}); err != nil {
			t.Fatal(err)
		}
		updated, err = env.store.GetProvider(provider.ID)
		if err != nil {
			t.Fatal(err)
		}
		if updated.TotalReviews != 2 || updated.Rating != 3 {
			t.Fatalf("expected rating 3.0 over 2 reviews, got %f over %d", updated.Rating, updated.TotalReviews)
		}
	})

	t.Run("double review rejected", func(t *testing.T) {
		order := completeOrder(t)
		if _, err := env.orders.SubmitReview(1, order.ID, models.OrderReviewRequest{Rating: 5}); err != nil {
			t.Fatal(err)
		}
		_, err := env.orders.SubmitReview(1, order.ID, models.OrderReviewRequest{Rating: 1})
		if !errors.Is(err, ErrInvalidState) {
			t.Fatalf("expected ErrInvalidState, got %v", err)
		}
	})

	t.Run("review before completion", func(t *testing.T) {
		order := env.seedOrder(t, 1)
		_, err := env.orders.SubmitReview(1, order.ID, models.OrderReviewRequest{Rating: 5})
		if !errors.Is(err, ErrInvalidState) {
			t.Fatalf("expected ErrInvalidState, got %v", err)
		}
	})

	t.Run("rating out of range", func(t *testing.T) {
		order := completeOrder(t)
		_, err := env.orders.SubmitReview(1, order.ID, models.OrderReviewRequest{Rating: 6})
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
	})
}

func TestExpirePendingOrders(t *testing.T) {
	env := newTestEnv(t)
	env.seedProvider(t, 10, 19.0800, 72.8777)

	stale := env.seedOrder(t, 1)
	quote, err := env.quotes.SubmitQuote(10, stale.ID, models.QuoteSubmitRequest{PriceMinor: 40000})
	if err != nil {
		t.Fatal(err)
	}

	past := time.Now().Add(-time.Minute)
	staleRec, err := env.store.GetOrder(stale.ID)
	if err != nil {
		t.Fatal(err)
	}
	staleRec.ExpiresAt = &past
	if err := env.store.Transact(func(tx Tx) error { return tx.SaveOrder(staleRec) }); err != nil {
		t.Fatal(err)
	}

	fresh := env.seedOrder(t, 1)
	settled := env.seedOrder(t, 1)
	env.settleOrder(t, settled, 10, 50000)

	n, err := env.orders.ExpirePendingOrders(100)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected 1 order expired, got %d", n)
	}

	expired, err := env.store.GetOrder(stale.ID)
	if err != nil {
		t.Fatal(err)
	}
	if expired.Status != models.OrderStatusCancelled {
		t.Fatalf("expected expired order cancelled, got %s", expired.Status)
	}

	// Expiry decides the order's quotes too, like a cancellation
	got, err := env.store.GetQuote(quote.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.QuoteStatusRejected {
		t.Fatalf("expected the pending quote rejected with its order, got %s", got.Status)
	}
	declined := false
	for _, n := range env.sink.notifications {
		if n.RecipientType == models.RecipientProvider && n.Title == "Quote declined" {
			declined = true
		}
	}
	if !declined {
		t.Fatal("expected the quoting provider to be told the order expired")
	}

	untouched, err := env.store.GetOrder(fresh.ID)
	if err != nil {
		t.Fatal(err)
	}
	if untouched.Status != models.OrderStatusPending {
		t.Fatalf("expected fresh order to stay pending, got %s", untouched.Status)
	}
	confirmed, err := env.store.GetOrder(settled.ID)
	if err != nil {
		t.Fatal(err)
	}
	if confirmed.Status != models.OrderStatusConfirmed {
		t.Fatalf("expected settled order untouched, got %s", confirmed.Status)
	}
}

func TestListOrders(t *testing.T) {
	env := newTestEnv(t)
	provider := env.seedProvider(t, 10, 19.0800, 72.8777)

	first := env.seedOrder(t, 1)
	second := env.seedOrder(t, 1)
	env.seedOrder(t, 2)
	env.settleOrder(t, second, 10, 50000)

	mine, err := env.orders.ListCustomerOrders(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 2 {
		t.Fatalf("expected 2 customer orders, got %d", len(mine))
	}
	if mine[0].ID != second.ID || mine[1].ID != first.ID {
		t.Fatal("expected newest order first")
	}

	assigned, err := env.orders.ListProviderOrders(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(assigned) != 1 || assigned[0].ID != second.ID {
		t.Fatalf("expected only the settled order for provider %d", provider.ID)
	}
}
