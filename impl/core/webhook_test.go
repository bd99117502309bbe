package core

import (
	"context"
	"fmt"
	"testing"
	"time"

	"printflow/entity"
)

func webhookCore(repo *fakeRepo) (*Core, *fakeMailer) {
	c := testCore(repo)
	mailer := &fakeMailer{}
	c.SetStorage(newFakeStorage())
	c.SetPdfRenderer(fakePdf{})
	c.SetMailer(mailer)
	return c, mailer
}

func syncedOrder(id, providerOrderID string, provider entity.ProviderName) *entity.Order {
	o := testOrder(id)
	o.Status = entity.OrderStatusProcessing
	o.ProviderStatus = entity.ProviderStatusSynced
	o.Provider = provider
	o.ProviderOrderID = providerOrderID
	return o
}

func TestProcessWebhook_PrintifyLifecycle(t *testing.T) {
	order := syncedOrder("ord-1", "pf-77", entity.ProviderPrintify)
	repo := newFakeRepo(order)
	c, _ := webhookCore(repo)

	steps := []struct {
		payload string
		want    entity.OrderStatus
	}{
		{
			payload: `{"type":"order:sent-to-production","resource":{"id":"pf-77","type":"order"}}`,
			want:    entity.OrderStatusProduction,
		},
		{
			payload: `{"type":"order:shipment:created","resource":{"id":"pf-77","type":"order","data":{"shipment":{"carrier":"dhl","number":"TRK1","url":"https://t.test/TRK1"}}}}`,
			want:    entity.OrderStatusShipped,
		},
		{
			payload: `{"type":"order:shipment:delivered","resource":{"id":"pf-77","type":"order","data":{"shipment":{"carrier":"dhl","number":"TRK1","url":"https://t.test/TRK1"}}}}`,
			want:    entity.OrderStatusDelivered,
		},
	}

	for _, step := range steps {
		if err := c.ProcessWebhook(context.Background(), "printify", []byte(step.payload)); err != nil {
			t.Fatalf("webhook failed at %s: %v", step.want, err)
		}
		stored, _ := repo.GetOrder("ord-1")
		if stored.Status != step.want {
			t.Fatalf("status = %s, want %s", stored.Status, step.want)
		}
	}

	stored, _ := repo.GetOrder("ord-1")
	if stored.Tracking == nil || stored.Tracking.Code != "TRK1" {
		t.Errorf("tracking not captured: %+v", stored.Tracking)
	}
	if stored.DeliveredAt == nil {
		t.Error("delivered timestamp not captured")
	}
}

func TestProcessWebhook_LateEventCannotRegress(t *testing.T) {
	order := syncedOrder("ord-1", "pf-77", entity.ProviderPrintify)
	order.Status = entity.OrderStatusDelivered
	repo := newFakeRepo(order)
	c, _ := webhookCore(repo)

	payload := `{"type":"order:shipment:created","resource":{"id":"pf-77","type":"order","data":{"shipment":{"number":"LATE"}}}}`
	if err := c.ProcessWebhook(context.Background(), "printify", []byte(payload)); err != nil {
		t.Fatalf("late webhook errored: %v", err)
	}

	stored, _ := repo.GetOrder("ord-1")
	if stored.Status != entity.OrderStatusDelivered {
		t.Errorf("delivered order regressed to %s", stored.Status)
	}
	if stored.Tracking != nil && stored.Tracking.Code == "LATE" {
		t.Error("stale tracking applied")
	}
}

func TestProcessWebhook_DuplicateDeliveryInvoicesOnce(t *testing.T) {
	order := syncedOrder("ord-1", "", entity.ProviderGelato)
	order.ProviderOrderID = "gl-5"
	order.Status = entity.OrderStatusShipped
	repo := newFakeRepo(order)
	c, mailer := webhookCore(repo)

	payload := fmt.Sprintf(`{"orderReferenceId":"ord-1","fulfillmentStatus":"delivered","timestamp":%q}`,
		time.Now().UTC().Format(time.RFC3339))

	for i := 0; i < 3; i++ {
		if err := c.ProcessWebhook(context.Background(), "gelato", []byte(payload)); err != nil {
			t.Fatalf("delivery %d errored: %v", i, err)
		}
	}

	if len(mailer.sent) != 1 {
		t.Errorf("invoice mailed %d times, want 1", len(mailer.sent))
	}
	if repo.flagged != 1 {
		t.Errorf("invoice flagged %d orders, want 1", repo.flagged)
	}
}

func TestProcessWebhook_GelatoPing(t *testing.T) {
	repo := newFakeRepo()
	c, _ := webhookCore(repo)

	if err := c.ProcessWebhook(context.Background(), "gelato", []byte(`{"event":"ping"}`)); err != nil {
		t.Errorf("ping not acknowledged: %v", err)
	}
}

func TestProcessWebhook_PrintifyPing(t *testing.T) {
	repo := newFakeRepo()
	c, _ := webhookCore(repo)

	if err := c.ProcessWebhook(context.Background(), "printify", []byte(`{"id":"evt-1","type":"order:created"}`)); err != nil {
		t.Errorf("ping not acknowledged: %v", err)
	}
}

func TestProcessWebhook_UnknownSource(t *testing.T) {
	repo := newFakeRepo()
	c, _ := webhookCore(repo)

	if err := c.ProcessWebhook(context.Background(), "fedex", []byte(`{}`)); err == nil {
		t.Error("unknown source accepted")
	}
}

func TestProcessWebhook_UnknownOrder(t *testing.T) {
	repo := newFakeRepo()
	c, _ := webhookCore(repo)

	payload := `{"type":"order:sent-to-production","resource":{"id":"pf-unknown","type":"order"}}`
	if err := c.ProcessWebhook(context.Background(), "printify", []byte(payload)); err == nil {
		t.Error("webhook for unknown order accepted")
	}
}

func TestProcessWebhook_UnhandledEventIsAcknowledged(t *testing.T) {
	order := syncedOrder("ord-1", "pf-77", entity.ProviderPrintify)
	repo := newFakeRepo(order)
	c, _ := webhookCore(repo)

	payload := `{"type":"order:updated","resource":{"id":"pf-77","type":"order"}}`
	if err := c.ProcessWebhook(context.Background(), "printify", []byte(payload)); err != nil {
		t.Errorf("unhandled event type errored: %v", err)
	}
	stored, _ := repo.GetOrder("ord-1")
	if stored.Status != entity.OrderStatusProcessing {
		t.Errorf("unhandled event changed status to %s", stored.Status)
	}
}
