package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"printflow/entity"
	"printflow/internal/config"
	"printflow/internal/lib/sl"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	ordersCollection = "orders"
)

var ErrOrderNotFound = errors.New("order not found")

type MongoDB struct {
	ctx           context.Context
	clientOptions *options.ClientOptions
	database      string
	log           *slog.Logger
}

func NewMongoClient(conf *config.Config, logger *slog.Logger) (*MongoDB, error) {
	if !conf.Mongo.Enabled {
		return nil, nil
	}
	connectionUri := fmt.Sprintf("mongodb://%s:%s", conf.Mongo.Host, conf.Mongo.Port)
	clientOptions := options.Client().ApplyURI(connectionUri)
	if conf.Mongo.User != "" {
		clientOptions.SetAuth(options.Credential{
			Username:   conf.Mongo.User,
			Password:   conf.Mongo.Password,
			AuthSource: conf.Mongo.Database,
		})
	}
	client := &MongoDB{
		ctx:           context.Background(),
		clientOptions: clientOptions,
		database:      conf.Mongo.Database,
		log:           logger.With(sl.Module("mongodb")),
	}
	return client, nil
}

func (m *MongoDB) connect() (*mongo.Client, error) {
	connection, err := mongo.Connect(m.ctx, m.clientOptions)
	if err != nil {
		return nil, fmt.Errorf("mongodb connect error: %w", err)
	}
	return connection, nil
}

func (m *MongoDB) disconnect(connection *mongo.Client) {
	_ = connection.Disconnect(m.ctx)
}

// unsetStatuses matches provider_status both missing and explicitly empty.
var unsetStatuses = bson.A{nil, string(entity.ProviderStatusUnset)}

// invoiceUnsentFilter selects the orders still awaiting their invoice:
// the whole checkout group when there is one, otherwise the single order.
// $ne matches orders created before the flag existed and carry no field.
func invoiceUnsentFilter(orderID, groupID string) bson.M {
	notSent := bson.M{"$ne": true}
	if groupID != "" {
		return bson.M{"group_id": groupID, "invoice_sent": notSent}
	}
	return bson.M{"_id": orderID, "invoice_sent": notSent}
}

// GetOrder fetches one order by its caller-assigned id.
func (m *MongoDB) GetOrder(orderID string) (*entity.Order, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(ordersCollection)

	var order entity.Order
	err = collection.FindOne(m.ctx, bson.M{"_id": orderID}).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("mongodb find error: %w", err)
	}
	return &order, nil
}

// GetOrderByProviderOrderID joins a provider webhook event that carries only
// the provider's own order id back onto the order record.
func (m *MongoDB) GetOrderByProviderOrderID(providerOrderID string) (*entity.Order, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(ordersCollection)

	var order entity.Order
	err = collection.FindOne(m.ctx, bson.M{"provider_order_id": providerOrderID}).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("mongodb find error: %w", err)
	}
	return &order, nil
}

// GetOrdersByGroup returns all sibling orders sharing a checkout group.
func (m *MongoDB) GetOrdersByGroup(groupID string) ([]*entity.Order, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(ordersCollection)

	cursor, err := collection.Find(m.ctx, bson.M{"group_id": groupID})
	if err != nil {
		return nil, fmt.Errorf("mongodb find error: %w", err)
	}
	defer cursor.Close(m.ctx)

	var orders []*entity.Order
	if err := cursor.All(m.ctx, &orders); err != nil {
		return nil, fmt.Errorf("mongodb decode error: %w", err)
	}
	return orders, nil
}

// GetUnprocessedPlaced returns placed orders the pipeline has not claimed
// yet. The sweep uses it to recover triggers missed while the process was
// down.
func (m *MongoDB) GetUnprocessedPlaced() ([]*entity.Order, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(ordersCollection)

	filter := bson.M{
		"status":          string(entity.OrderStatusPlaced),
		"provider_status": bson.M{"$in": unsetStatuses},
	}
	cursor, err := collection.Find(m.ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("mongodb find error: %w", err)
	}
	defer cursor.Close(m.ctx)

	var orders []*entity.Order
	if err := cursor.All(m.ctx, &orders); err != nil {
		return nil, fmt.Errorf("mongodb decode error: %w", err)
	}
	return orders, nil
}

// ClaimForProcessing flips provider_status from unset to processing in a
// single conditional update, so the guard check and the guard write are one
// indivisible operation. Returns false when another run already holds the
// claim or the order is not in a claimable state.
func (m *MongoDB) ClaimForProcessing(orderID string) (bool, error) {
	connection, err := m.connect()
	if err != nil {
		return false, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(ordersCollection)

	filter := bson.M{
		"_id":             orderID,
		"status":          string(entity.OrderStatusPlaced),
		"provider_status": bson.M{"$in": unsetStatuses},
	}
	update := bson.M{"$set": bson.M{
		"provider_status": string(entity.ProviderStatusProcessing),
		"updated":         time.Now(),
	}}

	err = collection.FindOneAndUpdate(m.ctx, filter, update).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, fmt.Errorf("mongodb update error: %w", err)
	}
	return true, nil
}

// CompleteSync persists everything a successful pipeline run produced in
// one write. The filter refuses to overwrite an order that a different
// provider already fulfilled.
func (m *MongoDB) CompleteSync(orderID string, res *entity.SyncResult) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(ordersCollection)

	filter := bson.M{
		"_id":      orderID,
		"provider": bson.M{"$in": bson.A{nil, "", string(res.Provider)}},
	}
	set := bson.M{
		"provider_status":   string(entity.ProviderStatusSynced),
		"provider":          string(res.Provider),
		"provider_order_id": res.ProviderOrderID,
		"print_files":       res.PrintFiles,
		"mockup_files":      res.MockupFiles,
		"bot_log":           res.Log,
		"bot_error":         "",
		"updated":           time.Now(),
	}
	if res.EstimatedBy != nil {
		set["estimated_by"] = res.EstimatedBy
	}

	result, err := collection.UpdateOne(m.ctx, filter, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("mongodb update error: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("order %s already fulfilled by another provider", orderID)
	}

	m.log.Debug("order synced",
		slog.String("order_id", orderID),
		slog.String("provider", string(res.Provider)),
		slog.String("provider_order_id", res.ProviderOrderID))
	return nil
}

// FailSync records a pipeline failure for operator diagnosis. The error
// state blocks automatic retries but not a manual one.
func (m *MongoDB) FailSync(orderID string, message string) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(ordersCollection)

	update := bson.M{"$set": bson.M{
		"provider_status": string(entity.ProviderStatusError),
		"bot_error":       message,
		"updated":         time.Now(),
	}}
	_, err = collection.UpdateOne(m.ctx, bson.M{"_id": orderID}, update)
	if err != nil {
		return fmt.Errorf("mongodb update error: %w", err)
	}
	return nil
}

// AdvanceStatus moves the shipping status forward. The filter only matches
// orders currently below the new status, so an out-of-order webhook can
// never regress the state machine. Returns false if nothing matched.
func (m *MongoDB) AdvanceStatus(orderID string, ev *entity.StatusEvent) (bool, error) {
	below := entity.StatusesBelow(ev.Status)
	if below == nil {
		return false, fmt.Errorf("status %q is not part of the forward ordering", ev.Status)
	}

	connection, err := m.connect()
	if err != nil {
		return false, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(ordersCollection)

	current := make(bson.A, 0, len(below))
	for _, s := range below {
		current = append(current, string(s))
	}
	filter := bson.M{
		"_id":    orderID,
		"status": bson.M{"$in": current},
	}
	set := bson.M{
		"status":  string(ev.Status),
		"updated": time.Now(),
	}
	if ev.Tracking != nil {
		set["tracking"] = ev.Tracking
	}
	if ev.DeliveredAt != nil {
		set["delivered_at"] = ev.DeliveredAt
	}

	result, err := collection.UpdateOne(m.ctx, filter, bson.M{"$set": set})
	if err != nil {
		return false, fmt.Errorf("mongodb update error: %w", err)
	}
	return result.ModifiedCount > 0, nil
}

// MarkInvoiceSent flags the whole checkout group in one batch write, so a
// late duplicate trigger observes the flag on every sibling. Falls back to
// the single order when it has no group. Only orders not yet flagged match,
// so a zero count means another worker already claimed the invoice.
func (m *MongoDB) MarkInvoiceSent(orderID, groupID, invoiceFile string) (int64, error) {
	connection, err := m.connect()
	if err != nil {
		return 0, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(ordersCollection)

	filter := invoiceUnsentFilter(orderID, groupID)
	update := bson.M{"$set": bson.M{
		"invoice_sent": true,
		"invoice_file": invoiceFile,
		"updated":      time.Now(),
	}}

	result, err := collection.UpdateMany(m.ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("mongodb update error: %w", err)
	}
	return result.ModifiedCount, nil
}

// WatchPlaced follows the orders change stream and invokes handler for
// every order that enters the placed status. Blocks until ctx is done or
// the stream fails.
func (m *MongoDB) WatchPlaced(ctx context.Context, handler func(orderID string)) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(ordersCollection)

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"operationType":       bson.M{"$in": bson.A{"insert", "update", "replace"}},
			"fullDocument.status": string(entity.OrderStatusPlaced),
		}}},
	}
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)

	stream, err := collection.Watch(ctx, pipeline, opts)
	if err != nil {
		return fmt.Errorf("mongodb watch error: %w", err)
	}
	defer stream.Close(ctx)

	m.log.Info("watching order change stream")

	for stream.Next(ctx) {
		var event struct {
			FullDocument entity.Order `bson:"fullDocument"`
		}
		if err := stream.Decode(&event); err != nil {
			m.log.With(sl.Err(err)).Warn("failed to decode change event")
			continue
		}
		if event.FullDocument.ID == "" {
			continue
		}
		handler(event.FullDocument.ID)
	}
	return stream.Err()
}
