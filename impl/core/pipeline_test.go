package core

import (
	"context"
	"fmt"
	"testing"

	"printflow/entity"
)

func pipelineCore(repo *fakeRepo, provider *fakeProvider) (*Core, *fakeStorage, *fakeMailer) {
	c := testCore(repo)
	storage := newFakeStorage()
	mailer := &fakeMailer{}
	c.SetProvider(provider)
	c.SetRenderer(fakeRenderer{})
	c.SetStorage(storage)
	c.SetMockupSource(&fakeMockupSource{images: [][]entity.PrintifyProductImage{{
		{Src: "m1", Position: "front", IsDefault: true},
		{Src: "m2", Position: "back"},
		{Src: "m3", Position: "left"},
	}}})
	c.SetPdfRenderer(fakePdf{})
	c.SetMailer(mailer)
	return c, storage, mailer
}

func TestProcessOrder_Success(t *testing.T) {
	shortPollInterval(t)
	order := testOrder("ord-1")
	repo := newFakeRepo(order)
	provider := &fakeProvider{name: entity.ProviderQikink}
	c, storage, _ := pipelineCore(repo, provider)

	c.ProcessOrder(context.Background(), "ord-1")

	res, ok := repo.completed["ord-1"]
	if !ok {
		t.Fatalf("order not completed; failures: %v", repo.failed)
	}
	if res.Provider != entity.ProviderQikink {
		t.Errorf("provider = %s, want qikink", res.Provider)
	}
	if res.ProviderOrderID == "" {
		t.Error("no provider order id recorded")
	}
	if res.PrintFiles["front"] != "https://cdn.test/orders/ord-1/print/front.png" {
		t.Errorf("front print file = %q", res.PrintFiles["front"])
	}
	if len(res.MockupFiles) == 0 {
		t.Error("no mockups recorded")
	}
	if len(provider.submitted) != 1 {
		t.Errorf("provider submitted %d times, want 1", len(provider.submitted))
	}
	if _, ok := storage.uploads["orders/ord-1/print/front.png"]; !ok {
		t.Error("print file not uploaded")
	}
}

func TestProcessOrder_ClaimIsIdempotent(t *testing.T) {
	shortPollInterval(t)
	order := testOrder("ord-1")
	repo := newFakeRepo(order)
	provider := &fakeProvider{name: entity.ProviderQikink}
	c, _, _ := pipelineCore(repo, provider)

	c.ProcessOrder(context.Background(), "ord-1")
	c.ProcessOrder(context.Background(), "ord-1")
	c.ProcessOrder(context.Background(), "ord-1")

	if len(provider.submitted) != 1 {
		t.Errorf("provider submitted %d times, want exactly 1", len(provider.submitted))
	}
}

func TestProcessOrder_AlreadyErroredIsNotRetried(t *testing.T) {
	order := testOrder("ord-1")
	order.ProviderStatus = entity.ProviderStatusError
	repo := newFakeRepo(order)
	provider := &fakeProvider{name: entity.ProviderQikink}
	c, _, _ := pipelineCore(repo, provider)

	c.ProcessOrder(context.Background(), "ord-1")

	if len(provider.submitted) != 0 {
		t.Error("errored order was resubmitted")
	}
}

func TestProcessOrder_SubmitFailureMarksError(t *testing.T) {
	shortPollInterval(t)
	order := testOrder("ord-1")
	repo := newFakeRepo(order)
	provider := &fakeProvider{name: entity.ProviderQikink, submitErr: fmt.Errorf("quota exceeded")}
	c, _, _ := pipelineCore(repo, provider)

	c.ProcessOrder(context.Background(), "ord-1")

	if _, ok := repo.completed["ord-1"]; ok {
		t.Error("failed order marked as completed")
	}
	msg, ok := repo.failed["ord-1"]
	if !ok {
		t.Fatal("failure not persisted")
	}
	if msg == "" {
		t.Error("failure persisted without message")
	}
	stored, _ := repo.GetOrder("ord-1")
	if stored.ProviderStatus != entity.ProviderStatusError {
		t.Errorf("provider status = %q, want error", stored.ProviderStatus)
	}
}

func TestProcessOrder_MockupFailureFallsBackToPrintFiles(t *testing.T) {
	shortPollInterval(t)
	order := testOrder("ord-1")
	order.Items[0].ProductID = "poster" // no mockup blueprint, renders fine otherwise
	repo := newFakeRepo(order)
	provider := &fakeProvider{name: entity.ProviderQikink}
	c, _, _ := pipelineCore(repo, provider)

	c.ProcessOrder(context.Background(), "ord-1")

	res, ok := repo.completed["ord-1"]
	if !ok {
		t.Fatalf("order not completed; failures: %v", repo.failed)
	}
	if res.MockupFiles["front"] != res.PrintFiles["front"] {
		t.Errorf("mockups = %v, want print-file fallback %v", res.MockupFiles, res.PrintFiles)
	}
}

func TestProcessOrder_PrepaidGetsInvoiceOnConfirmation(t *testing.T) {
	shortPollInterval(t)
	order := testOrder("ord-1")
	order.Payment.Method = entity.PaymentMethodPrepaid
	repo := newFakeRepo(order)
	provider := &fakeProvider{name: entity.ProviderQikink}
	c, _, mailer := pipelineCore(repo, provider)

	c.ProcessOrder(context.Background(), "ord-1")

	if len(mailer.sent) != 1 {
		t.Fatalf("invoice mailed %d times, want 1", len(mailer.sent))
	}
	if mailer.sent[0] != "asha@example.com" {
		t.Errorf("invoice sent to %q", mailer.sent[0])
	}
	stored, _ := repo.GetOrder("ord-1")
	if !stored.InvoiceSent {
		t.Error("invoice flag not persisted")
	}
}

func TestProcessOrder_CODWaitsForDelivery(t *testing.T) {
	shortPollInterval(t)
	order := testOrder("ord-1")
	repo := newFakeRepo(order)
	provider := &fakeProvider{name: entity.ProviderQikink}
	c, _, mailer := pipelineCore(repo, provider)

	c.ProcessOrder(context.Background(), "ord-1")

	if len(mailer.sent) != 0 {
		t.Errorf("COD order invoiced at confirmation: %v", mailer.sent)
	}
}
