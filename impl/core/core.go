package core

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"printflow/entity"
	"printflow/internal/config"
	"printflow/internal/lib/sl"
)

// OrderRepository is the persistence contract of the pipeline. The claim
// and advance operations are conditional updates: the repository, not the
// caller, decides whether the transition applies.
type OrderRepository interface {
	GetOrder(orderID string) (*entity.Order, error)
	GetOrderByProviderOrderID(providerOrderID string) (*entity.Order, error)
	GetOrdersByGroup(groupID string) ([]*entity.Order, error)
	GetUnprocessedPlaced() ([]*entity.Order, error)
	ClaimForProcessing(orderID string) (bool, error)
	CompleteSync(orderID string, res *entity.SyncResult) error
	FailSync(orderID string, message string) error
	AdvanceStatus(orderID string, ev *entity.StatusEvent) (bool, error)
	MarkInvoiceSent(orderID, groupID, invoiceFile string) (int64, error)
	WatchPlaced(ctx context.Context, handler func(orderID string)) error
}

// Provider is a print-on-demand fulfillment network. Resolution and
// submission are split so a resolve failure aborts before any side effect.
type Provider interface {
	Name() entity.ProviderName
	ResolveVariant(ctx context.Context, item *entity.LineItem) (string, error)
	BuildOrder(ctx context.Context, order *entity.Order, variantIDs []string, printFiles map[string]string) (*entity.ProviderOrder, error)
	Submit(ctx context.Context, po *entity.ProviderOrder) (*entity.Submission, error)
}

// StatusPoller serves the manual refresh for providers without webhooks.
type StatusPoller interface {
	GetOrderStatus(ctx context.Context, orderNumber string) (*entity.StatusEvent, error)
}

// MockupSource drives mockup rendering through a disposable catalog
// listing. Printify is the only implementation; mockups come from there
// regardless of which provider fulfills the order.
type MockupSource interface {
	UploadArtwork(ctx context.Context, fileName, srcURL string) (string, error)
	ResolveVariantID(ctx context.Context, blueprintID, printProvider int, color, size string) (int, error)
	CreateProduct(ctx context.Context, req *entity.PrintifyProductRequest) (string, error)
	GetProduct(ctx context.Context, productID string) (*entity.PrintifyProduct, error)
	DeleteProduct(ctx context.Context, productID string) error
}

type Renderer interface {
	RenderView(ctx context.Context, productID string, view *entity.DesignView) ([]byte, error)
}

type Storage interface {
	Upload(ctx context.Context, objectPath, contentType string, data []byte) (string, error)
	Mirror(ctx context.Context, srcURL, objectPath string) (string, error)
	Download(ctx context.Context, objectPath string) ([]byte, error)
}

type PdfRenderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

type Mailer interface {
	SendInvoice(to, subject, body, fileName string, pdf []byte) error
}

type Core struct {
	repo         OrderRepository
	providers    map[entity.ProviderName]Provider
	statusPoller StatusPoller
	mockups      MockupSource
	renderer     Renderer
	storage      Storage
	pdf          PdfRenderer
	mailer       Mailer

	domesticCountry string
	seller          sellerDetails
	authKey         string
	keys            map[string]string
	keysMu          sync.RWMutex
	log             *slog.Logger
	stopCh          chan struct{}
}

type sellerDetails struct {
	Name    string
	Address string
	TaxId   string
}

func New(log *slog.Logger, conf *config.Config) *Core {
	return &Core{
		providers:       make(map[entity.ProviderName]Provider),
		domesticCountry: conf.Invoice.DomesticCountry,
		seller: sellerDetails{
			Name:    conf.Invoice.SellerName,
			Address: conf.Invoice.SellerAddress,
			TaxId:   conf.Invoice.SellerTaxId,
		},
		authKey: conf.Listen.ApiKey,
		keys:    make(map[string]string),
		log:     log.With(sl.Module("core")),
		stopCh:  make(chan struct{}),
	}
}

func (c *Core) Stop() {
	close(c.stopCh)
}

func (c *Core) SetRepository(repo OrderRepository) {
	c.repo = repo
}

func (c *Core) SetProvider(p Provider) {
	c.providers[p.Name()] = p
}

func (c *Core) SetStatusPoller(p StatusPoller) {
	c.statusPoller = p
}

func (c *Core) SetMockupSource(m MockupSource) {
	c.mockups = m
}

func (c *Core) SetRenderer(r Renderer) {
	c.renderer = r
}

func (c *Core) SetStorage(s Storage) {
	c.storage = s
}

func (c *Core) SetPdfRenderer(p PdfRenderer) {
	c.pdf = p
}

func (c *Core) SetMailer(m Mailer) {
	c.mailer = m
}

func (c *Core) SetAuthKey(key string) {
	c.authKey = key
}

// Start launches the pipeline triggers: a change-stream watcher reacting to
// newly placed orders and a sweep ticker that picks up anything the watcher
// missed (restarts, transient stream errors).
func (c *Core) Start() {
	if c.repo == nil {
		c.log.Error("repository not set")
		return
	}
	if len(c.providers) == 0 {
		c.log.Error("no providers set")
		return
	}

	go func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			<-c.stopCh
			cancel()
		}()

		for {
			err := c.repo.WatchPlaced(ctx, func(orderID string) {
				c.ProcessOrder(context.Background(), orderID)
			})
			select {
			case <-c.stopCh:
				c.log.Info("order watcher stopped")
				return
			default:
			}
			if err != nil {
				c.log.With(sl.Err(err)).Warn("order watcher disconnected, restarting")
			}
			time.Sleep(5 * time.Second)
		}
	}()

	go func() {
		ticker := time.NewTicker(2 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-c.stopCh:
				c.log.Info("order sweep stopped")
				return
			default:
				c.ProcessUnhandledOrders()
			}

			select {
			case <-c.stopCh:
				c.log.Info("order sweep stopped")
				return
			case <-ticker.C:
			}
		}
	}()
}
