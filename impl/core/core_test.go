package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"printflow/entity"
	"printflow/internal/config"
)

func testCore(repo OrderRepository) *Core {
	conf := &config.Config{}
	conf.Invoice.DomesticCountry = "IN"
	conf.Invoice.SellerName = "Test Seller"

	c := New(slog.New(slog.NewTextHandler(io.Discard, nil)), conf)
	c.SetRepository(repo)
	return c
}

func testOrder(id string) *entity.Order {
	return &entity.Order{
		ID:     id,
		Status: entity.OrderStatusPlaced,
		Items: []entity.LineItem{{
			ProductID: "tshirt-round-neck",
			Title:     "Galaxy Tee",
			Color:     "Black",
			Size:      "M",
			Quantity:  1,
			Price:     105.00,
		}},
		DesignData: map[string]entity.DesignView{
			"front": {Objects: []entity.DesignObject{{Type: entity.DesignObjectText, Text: "hi"}}},
		},
		ShippingAddress: entity.Address{
			Name:    "Asha Rao",
			Email:   "asha@example.com",
			Line1:   "1 MG Road",
			City:    "Bengaluru",
			Zip:     "560001",
			Country: "IN",
		},
		Payment: entity.Payment{Method: entity.PaymentMethodCOD, Currency: "INR"},
		Created: time.Now(),
	}
}

// fakeRepo is an in-memory OrderRepository with the same conditional-update
// semantics as the mongo implementation.
type fakeRepo struct {
	mu     sync.Mutex
	orders map[string]*entity.Order

	completed map[string]*entity.SyncResult
	failed    map[string]string
	flagged   int64
}

func newFakeRepo(orders ...*entity.Order) *fakeRepo {
	r := &fakeRepo{
		orders:    make(map[string]*entity.Order),
		completed: make(map[string]*entity.SyncResult),
		failed:    make(map[string]string),
	}
	for _, o := range orders {
		r.orders[o.ID] = o
	}
	return r
}

func (r *fakeRepo) GetOrder(orderID string) (*entity.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("order %s not found", orderID)
	}
	cp := *o
	return &cp, nil
}

func (r *fakeRepo) GetOrderByProviderOrderID(providerOrderID string) (*entity.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.ProviderOrderID == providerOrderID {
			cp := *o
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("provider order %s not found", providerOrderID)
}

func (r *fakeRepo) GetOrdersByGroup(groupID string) ([]*entity.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Order
	for _, o := range r.orders {
		if o.GroupID == groupID {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeRepo) GetUnprocessedPlaced() ([]*entity.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Order
	for _, o := range r.orders {
		if o.Status == entity.OrderStatusPlaced && o.ProviderStatus == entity.ProviderStatusUnset {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeRepo) ClaimForProcessing(orderID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return false, fmt.Errorf("order %s not found", orderID)
	}
	if o.Status != entity.OrderStatusPlaced || o.ProviderStatus != entity.ProviderStatusUnset {
		return false, nil
	}
	o.ProviderStatus = entity.ProviderStatusProcessing
	return true, nil
}

func (r *fakeRepo) CompleteSync(orderID string, res *entity.SyncResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.orders[orderID]
	o.ProviderStatus = entity.ProviderStatusSynced
	o.Status = entity.OrderStatusProcessing
	o.Provider = res.Provider
	o.ProviderOrderID = res.ProviderOrderID
	r.completed[orderID] = res
	return nil
}

func (r *fakeRepo) FailSync(orderID string, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o, ok := r.orders[orderID]; ok {
		o.ProviderStatus = entity.ProviderStatusError
		o.BotError = message
	}
	r.failed[orderID] = message
	return nil
}

func (r *fakeRepo) AdvanceStatus(orderID string, ev *entity.StatusEvent) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return false, fmt.Errorf("order %s not found", orderID)
	}
	if o.Status.Rank() >= ev.Status.Rank() {
		return false, nil
	}
	o.Status = ev.Status
	if ev.Tracking != nil {
		o.Tracking = ev.Tracking
	}
	if ev.DeliveredAt != nil {
		o.DeliveredAt = ev.DeliveredAt
	}
	return true, nil
}

func (r *fakeRepo) MarkInvoiceSent(orderID, groupID, invoiceFile string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, o := range r.orders {
		match := o.ID == orderID
		if groupID != "" {
			match = o.GroupID == groupID
		}
		if match && !o.InvoiceSent {
			o.InvoiceSent = true
			o.InvoiceFile = invoiceFile
			n++
		}
	}
	r.flagged += n
	return n, nil
}

func (r *fakeRepo) WatchPlaced(ctx context.Context, handler func(orderID string)) error {
	<-ctx.Done()
	return ctx.Err()
}

// fakeProvider records calls and succeeds unless told otherwise.
type fakeProvider struct {
	name       entity.ProviderName
	variantErr error
	submitErr  error
	submitted  []*entity.ProviderOrder
}

func (p *fakeProvider) Name() entity.ProviderName { return p.name }

func (p *fakeProvider) ResolveVariant(_ context.Context, item *entity.LineItem) (string, error) {
	if p.variantErr != nil {
		return "", p.variantErr
	}
	return "variant-" + item.ProductID, nil
}

func (p *fakeProvider) BuildOrder(_ context.Context, order *entity.Order, variantIDs []string, printFiles map[string]string) (*entity.ProviderOrder, error) {
	return &entity.ProviderOrder{Provider: p.name, Payload: order.ID}, nil
}

func (p *fakeProvider) Submit(_ context.Context, po *entity.ProviderOrder) (*entity.Submission, error) {
	if p.submitErr != nil {
		return nil, p.submitErr
	}
	p.submitted = append(p.submitted, po)
	eta := time.Now().Add(7 * 24 * time.Hour)
	return &entity.Submission{ProviderOrderID: "ext-" + fmt.Sprint(po.Payload), EstimatedDelivery: &eta}, nil
}

type fakeRenderer struct{}

func (fakeRenderer) RenderView(_ context.Context, _ string, view *entity.DesignView) ([]byte, error) {
	if view.Empty() {
		return nil, nil
	}
	return []byte("png"), nil
}

type fakeStorage struct {
	mu      sync.Mutex
	uploads map[string][]byte
	mirrors map[string]string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{uploads: make(map[string][]byte), mirrors: make(map[string]string)}
}

func (s *fakeStorage) Upload(_ context.Context, objectPath, _ string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads[objectPath] = data
	return "https://cdn.test/" + objectPath, nil
}

func (s *fakeStorage) Mirror(_ context.Context, srcURL, objectPath string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mirrors[objectPath] = srcURL
	return "https://cdn.test/" + objectPath, nil
}

func (s *fakeStorage) Download(_ context.Context, objectPath string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.uploads[objectPath]
	if !ok {
		return nil, fmt.Errorf("object %s not found", objectPath)
	}
	return data, nil
}

// fakeMockupSource serves a configurable image sequence to the poll loop.
type fakeMockupSource struct {
	mu       sync.Mutex
	polls    int
	images   [][]entity.PrintifyProductImage
	deleted  []string
	products int
}

func (m *fakeMockupSource) UploadArtwork(context.Context, string, string) (string, error) {
	return "img-1", nil
}

func (m *fakeMockupSource) ResolveVariantID(context.Context, int, int, string, string) (int, error) {
	return 4012, nil
}

func (m *fakeMockupSource) CreateProduct(context.Context, *entity.PrintifyProductRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products++
	return fmt.Sprintf("prod-%d", m.products), nil
}

func (m *fakeMockupSource) GetProduct(_ context.Context, productID string) (*entity.PrintifyProduct, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := m.polls
	if idx >= len(m.images) {
		idx = len(m.images) - 1
	}
	m.polls++
	return &entity.PrintifyProduct{ID: productID, Images: m.images[idx]}, nil
}

func (m *fakeMockupSource) DeleteProduct(_ context.Context, productID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, productID)
	return nil
}

type fakePdf struct{}

func (fakePdf) RenderHTML(_ context.Context, html string) ([]byte, error) {
	return []byte("%PDF " + fmt.Sprint(len(html))), nil
}

type fakeMailer struct {
	mu    sync.Mutex
	sent  []string
	files [][]byte
}

func (m *fakeMailer) SendInvoice(to, subject, body, fileName string, pdf []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, to)
	m.files = append(m.files, pdf)
	return nil
}
