package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Latif-jpg/site-aviprod-sub002/internal/domain/models"
)

// ErrStockItemNotFound signals a decrement against a deleted stock item.
var ErrStockItemNotFound = errors.New("stock item not found")

// Collection names used by the engine. Lots, notifications and treatments
// are written by the surrounding application; the engine only reads them.
const (
	collLots            = "lots"
	collStockItems      = "stock_items"
	collAssignments     = "lot_stock_assignments"
	collConsumptionLog  = "consumption_log"
	collJobRunMarkers   = "job_run_markers"
	collAlertDispatches = "alert_dispatches"
	collNotifications   = "notifications"
	collTreatments      = "treatments"
)

// MongoDBRepository is the engine's adapter to the shared remote store.
// It backs every store interface the services accept.
type MongoDBRepository struct {
	client *mongo.Client
	dbName string
}

// NewMongoDBRepository connects to MongoDB, verifies the connection and
// ensures the audit-log uniqueness index that guards per-item retries.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	r := &MongoDBRepository{client: client, dbName: dbName}
	if err := r.ensureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure indexes: %w", err)
	}

	return r, nil
}

func (r *MongoDBRepository) collection(name string) *mongo.Collection {
	return r.client.Database(r.dbName).Collection(name)
}

// ensureIndexes creates the unique (farm, item, lot, day, type) index on
// the consumption log. A retried run that races another host can then at
// worst produce duplicate-key rejects instead of duplicate audit rows.
func (r *MongoDBRepository) ensureIndexes(ctx context.Context) error {
	_, err := r.collection(collConsumptionLog).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "farm_id", Value: 1},
			{Key: "stock_item_id", Value: 1},
			{Key: "lot_id", Value: 1},
			{Key: "day", Value: 1},
			{Key: "entry_type", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// ActiveLots returns the farm's lots with active lifecycle status.
func (r *MongoDBRepository) ActiveLots(ctx context.Context, farmID string) ([]models.Lot, error) {
	filter := bson.D{
		{Key: "farm_id", Value: farmID},
		{Key: "status", Value: models.LotStatusActive},
	}

	cursor, err := r.collection(collLots).Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find active lots: %w", err)
	}

	var lots []models.Lot
	if err := cursor.All(ctx, &lots); err != nil {
		return nil, fmt.Errorf("decode active lots: %w", err)
	}
	return lots, nil
}

// ActiveAssignments returns the farm's lot-to-stock assignments with the
// active flag set.
func (r *MongoDBRepository) ActiveAssignments(ctx context.Context, farmID string) ([]models.LotStockAssignment, error) {
	filter := bson.D{
		{Key: "farm_id", Value: farmID},
		{Key: "active", Value: true},
	}

	cursor, err := r.collection(collAssignments).Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find active assignments: %w", err)
	}

	var assignments []models.LotStockAssignment
	if err := cursor.All(ctx, &assignments); err != nil {
		return nil, fmt.Errorf("decode active assignments: %w", err)
	}
	return assignments, nil
}

// StockItems returns every stock item owned by the farm.
func (r *MongoDBRepository) StockItems(ctx context.Context, farmID string) ([]models.StockItem, error) {
	cursor, err := r.collection(collStockItems).Find(ctx, bson.D{{Key: "farm_id", Value: farmID}})
	if err != nil {
		return nil, fmt.Errorf("find stock items: %w", err)
	}

	var items []models.StockItem
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("decode stock items: %w", err)
	}
	return items, nil
}

// DecrementStockClamped atomically subtracts amount from the item's
// quantity, flooring at zero, using a single server-side pipeline update.
// It returns the amount actually consumed, derived from the pre-image.
func (r *MongoDBRepository) DecrementStockClamped(ctx context.Context, stockItemID string, amount float64) (float64, error) {
	update := mongo.Pipeline{
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "quantity", Value: bson.D{
				{Key: "$max", Value: bson.A{
					0,
					bson.D{{Key: "$subtract", Value: bson.A{"$quantity", amount}}},
				}},
			}},
		}}},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)
	var before models.StockItem
	err := r.collection(collStockItems).
		FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: stockItemID}}, update, opts).
		Decode(&before)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, ErrStockItemNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("decrement stock item %s: %w", stockItemID, err)
	}

	consumed := amount
	if before.Quantity < amount {
		consumed = before.Quantity
	}
	if consumed < 0 {
		consumed = 0
	}
	return consumed, nil
}

// AppendConsumptionEntries inserts audit rows. Rows rejected by the
// uniqueness index were already written by a previous attempt, so
// duplicate-key errors are swallowed.
func (r *MongoDBRepository) AppendConsumptionEntries(ctx context.Context, entries []models.ConsumptionLogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(entries))
	for _, entry := range entries {
		docs = append(docs, entry)
	}

	_, err := r.collection(collConsumptionLog).InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("insert consumption entries: %w", err)
	}
	return nil
}

// HasAutomaticEntries reports whether the ledger already wrote automatic
// rows for the (farm, item, day) triple.
func (r *MongoDBRepository) HasAutomaticEntries(ctx context.Context, farmID, stockItemID, day string) (bool, error) {
	filter := bson.D{
		{Key: "farm_id", Value: farmID},
		{Key: "stock_item_id", Value: stockItemID},
		{Key: "day", Value: day},
		{Key: "entry_type", Value: models.EntryTypeAutomatic},
	}

	count, err := r.collection(collConsumptionLog).CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count consumption entries: %w", err)
	}
	return count > 0, nil
}

// ConsumptionEntriesSince returns the farm's audit rows for days at or
// after sinceDay, oldest first.
func (r *MongoDBRepository) ConsumptionEntriesSince(ctx context.Context, farmID, sinceDay string) ([]models.ConsumptionLogEntry, error) {
	filter := bson.D{
		{Key: "farm_id", Value: farmID},
		{Key: "day", Value: bson.D{{Key: "$gte", Value: sinceDay}}},
	}

	cursor, err := r.collection(collConsumptionLog).Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "day", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find consumption entries: %w", err)
	}

	var entries []models.ConsumptionLogEntry
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("decode consumption entries: %w", err)
	}
	return entries, nil
}

// JobRunMarker returns the last committed ledger day for the farm, or
// empty when the job never ran.
func (r *MongoDBRepository) JobRunMarker(ctx context.Context, farmID string) (string, error) {
	var marker models.JobRunMarker
	err := r.collection(collJobRunMarkers).FindOne(ctx, bson.D{{Key: "_id", Value: farmID}}).Decode(&marker)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read job run marker: %w", err)
	}
	return marker.LastRunDay, nil
}

// SetJobRunMarker upserts the farm's marker to the given day.
func (r *MongoDBRepository) SetJobRunMarker(ctx context.Context, farmID, day string) error {
	marker := models.JobRunMarker{FarmID: farmID, LastRunDay: day, UpdatedAt: time.Now().UTC()}

	_, err := r.collection(collJobRunMarkers).ReplaceOne(ctx,
		bson.D{{Key: "_id", Value: farmID}}, marker, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert job run marker: %w", err)
	}
	return nil
}

// FarmIDs lists the distinct farms that currently hold active lots; the
// scheduler iterates this set.
func (r *MongoDBRepository) FarmIDs(ctx context.Context) ([]string, error) {
	values, err := r.collection(collLots).Distinct(ctx, "farm_id",
		bson.D{{Key: "status", Value: models.LotStatusActive}})
	if err != nil {
		return nil, fmt.Errorf("distinct farm ids: %w", err)
	}

	farms := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			farms = append(farms, s)
		}
	}
	return farms, nil
}

// CountUnreadCriticalNotifications counts the farm's unread critical or
// warning notifications kept by the notification collaborator.
func (r *MongoDBRepository) CountUnreadCriticalNotifications(ctx context.Context, farmID string) (int, error) {
	filter := bson.D{
		{Key: "farm_id", Value: farmID},
		{Key: "read", Value: false},
		{Key: "level", Value: bson.D{{Key: "$in", Value: bson.A{"critical", "warning"}}}},
	}

	count, err := r.collection(collNotifications).CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return int(count), nil
}

// CountOverdueTreatments counts scheduled treatments due before the given
// day that were not completed.
func (r *MongoDBRepository) CountOverdueTreatments(ctx context.Context, farmID, day string) (int, error) {
	filter := bson.D{
		{Key: "farm_id", Value: farmID},
		{Key: "done", Value: false},
		{Key: "due_day", Value: bson.D{{Key: "$lt", Value: day}}},
	}

	count, err := r.collection(collTreatments).CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count overdue treatments: %w", err)
	}
	return int(count), nil
}

type dispatchRecord struct {
	FarmID    string    `bson:"_id"`
	Signature string    `bson:"signature"`
	At        time.Time `bson:"at"`
}

// LastDispatch returns the last alert signature sent for the farm and when.
func (r *MongoDBRepository) LastDispatch(ctx context.Context, farmID string) (string, time.Time, error) {
	var rec dispatchRecord
	err := r.collection(collAlertDispatches).FindOne(ctx, bson.D{{Key: "_id", Value: farmID}}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", time.Time{}, nil
	}
	if err != nil {
		return "", time.Time{}, fmt.Errorf("read last dispatch: %w", err)
	}
	return rec.Signature, rec.At, nil
}

// RecordDispatch upserts the farm's last-sent alert signature.
func (r *MongoDBRepository) RecordDispatch(ctx context.Context, farmID, signature string, at time.Time) error {
	rec := dispatchRecord{FarmID: farmID, Signature: signature, At: at}

	_, err := r.collection(collAlertDispatches).ReplaceOne(ctx,
		bson.D{{Key: "_id", Value: farmID}}, rec, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert dispatch record: %w", err)
	}
	return nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
