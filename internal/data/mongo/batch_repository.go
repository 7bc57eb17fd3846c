package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lystun/payflo-sub003/internal/domain/batch"
)

const (
	// BatchCollectionName is the name of the settlement batches collection in MongoDB
	BatchCollectionName = "settlement_batches"
)

// BatchRepository implements the batch.Repository interface for MongoDB.
// A batch is one document; saves replace it wholesale. Callers are
// serialized per batch by the run queue's message keying.
type BatchRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

func NewBatchRepository(logger *slog.Logger, db *mongo.Database) batch.Repository {
	return &BatchRepository{
		db:     db,
		logger: logger,
	}
}

func (r *BatchRepository) Create(ctx context.Context, b *batch.Batch) error {
	collection := r.db.Collection(BatchCollectionName)

	_, err := collection.InsertOne(ctx, b)
	if err != nil {
		r.logger.Error("Failed to create batch", "code", b.Code, "error", err)
		return fmt.Errorf("failed to create batch: %w", err)
	}

	return nil
}

func (r *BatchRepository) GetByCode(ctx context.Context, code string) (*batch.Batch, error) {
	collection := r.db.Collection(BatchCollectionName)

	filter := bson.M{"code": code}
	var b batch.Batch
	err := collection.FindOne(ctx, filter).Decode(&b)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, batch.ErrBatchNotFound{Code: code}
		}
		r.logger.Error("Failed to get batch", "code", code, "error", err)
		return nil, fmt.Errorf("failed to get batch: %w", err)
	}

	normalize(&b)
	return &b, nil
}

// FindOrCreateForDate returns the batch for a cycle date, creating it
// lazily on first use. A duplicate-key race on first insert resolves by
// re-reading the winner's document.
func (r *BatchRepository) FindOrCreateForDate(ctx context.Context, date time.Time) (*batch.Batch, error) {
	code := batch.CodeFor(date)

	existing, err := r.GetByCode(ctx, code)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, batch.ErrBatchNotFound{}) {
		return nil, err
	}

	b := batch.New(date)
	if err := r.Create(ctx, b); err != nil {
		if mongo.IsDuplicateKeyError(errors.Unwrap(err)) {
			return r.GetByCode(ctx, code)
		}
		return nil, err
	}

	r.logger.Info("Created settlement batch", "code", code)
	return b, nil
}

// Save replaces the persisted batch document with the given state
func (r *BatchRepository) Save(ctx context.Context, b *batch.Batch) error {
	collection := r.db.Collection(BatchCollectionName)

	b.UpdatedAt = time.Now()
	filter := bson.M{"code": b.Code}
	opts := options.Replace().SetUpsert(true)

	_, err := collection.ReplaceOne(ctx, filter, b, opts)
	if err != nil {
		r.logger.Error("Failed to save batch", "code", b.Code, "error", err)
		return fmt.Errorf("failed to save batch: %w", err)
	}

	return nil
}

func (r *BatchRepository) List(ctx context.Context, limit, offset int) ([]*batch.Batch, error) {
	collection := r.db.Collection(BatchCollectionName)

	opts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		r.logger.Error("Failed to list batches", "error", err)
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}
	defer cursor.Close(ctx)

	var batches []*batch.Batch
	if err := cursor.All(ctx, &batches); err != nil {
		r.logger.Error("Failed to decode batches", "error", err)
		return nil, fmt.Errorf("failed to decode batches: %w", err)
	}

	for _, b := range batches {
		normalize(b)
	}
	return batches, nil
}

// normalize restores empty maps that BSON decodes as nil so callers can
// index into them without guarding.
func normalize(b *batch.Batch) {
	if b.Businesses == nil {
		b.Businesses = make(map[string]time.Time)
	}
	if b.TransactionRefs == nil {
		b.TransactionRefs = make(map[string]bool)
	}
	if b.Groups == nil {
		b.Groups = make(map[string]*batch.BusinessGroup)
	}
	if b.PayoutSchedule == nil {
		b.PayoutSchedule = make(map[string]time.Time)
	}
	if b.Analytics.SettledBusinesses == nil {
		b.Analytics.SettledBusinesses = make(map[string]time.Time)
	}
	if b.Analytics.SettledSubaccounts == nil {
		b.Analytics.SettledSubaccounts = make(map[string]time.Time)
	}
	for _, group := range b.Groups {
		if group.Links == nil {
			group.Links = make(map[string]*batch.LinkGroup)
		}
		for _, link := range group.Links {
			if link.Subaccounts == nil {
				link.Subaccounts = make(map[string]batch.SubaccountSnapshot)
			}
			if link.Items == nil {
				link.Items = make(map[string]batch.LineItem)
			}
		}
	}
}
