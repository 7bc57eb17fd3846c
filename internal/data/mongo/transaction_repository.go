// Package mongo provides MongoDB implementations of the transaction and
// batch repositories. Both are document stores: transactions are immutable
// records keyed by reference, batches are one document per settlement cycle.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lystun/payflo-sub003/internal/domain/shared"
	"github.com/lystun/payflo-sub003/internal/domain/transaction"
)

const (
	// TransactionCollectionName is the name of the transactions collection in MongoDB
	TransactionCollectionName = "transactions"
)

// TransactionRepository implements the transaction.Repository interface for MongoDB
type TransactionRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

func NewTransactionRepository(logger *slog.Logger, db *mongo.Database) transaction.Repository {
	return &TransactionRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores a new transaction after checking for duplicates.
// Returns ErrDuplicateTransaction if the reference already exists.
func (r *TransactionRepository) Create(ctx context.Context, txn *transaction.Transaction) error {
	collection := r.db.Collection(TransactionCollectionName)

	existing, err := r.GetByReference(ctx, txn.Reference)
	if err != nil && !errors.Is(err, transaction.ErrTransactionNotFound{}) {
		r.logger.Error("Failed to check for existing transaction",
			"reference", txn.Reference,
			"error", err)
		return fmt.Errorf("failed to check for existing transaction: %w", err)
	}

	if existing != nil {
		return transaction.ErrDuplicateTransaction{Reference: txn.Reference}
	}

	_, err = collection.InsertOne(ctx, txn)
	if err != nil {
		r.logger.Error("Failed to create transaction",
			"reference", txn.Reference,
			"error", err)
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	return nil
}

// GetByReference retrieves a transaction by its reference.
// Returns ErrTransactionNotFound if no transaction exists.
func (r *TransactionRepository) GetByReference(ctx context.Context, reference string) (*transaction.Transaction, error) {
	collection := r.db.Collection(TransactionCollectionName)

	filter := bson.M{"reference": reference}
	var txn transaction.Transaction
	err := collection.FindOne(ctx, filter).Decode(&txn)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, transaction.ErrTransactionNotFound{Reference: reference}
		}
		r.logger.Error("Failed to get transaction",
			"reference", reference,
			"error", err)
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return &txn, nil
}

// Update replaces the stored transaction document with the given state
func (r *TransactionRepository) Update(ctx context.Context, txn *transaction.Transaction) error {
	collection := r.db.Collection(TransactionCollectionName)

	txn.UpdatedAt = time.Now()
	filter := bson.M{"reference": txn.Reference}
	result, err := collection.ReplaceOne(ctx, filter, txn)
	if err != nil {
		r.logger.Error("Failed to update transaction",
			"reference", txn.Reference,
			"error", err)
		return fmt.Errorf("failed to update transaction: %w", err)
	}

	if result.MatchedCount == 0 {
		return transaction.ErrTransactionNotFound{Reference: txn.Reference}
	}

	return nil
}

// AttachToBatch stamps the transaction with its batch membership
func (r *TransactionRepository) AttachToBatch(ctx context.Context, reference, batchCode string) error {
	collection := r.db.Collection(TransactionCollectionName)

	filter := bson.M{"reference": reference}
	update := bson.M{
		"$set": bson.M{
			"batch_code": batchCode,
			"updated_at": time.Now(),
		},
	}

	result, err := collection.UpdateOne(ctx, filter, update)
	if err != nil {
		r.logger.Error("Failed to attach transaction to batch",
			"reference", reference,
			"batch_code", batchCode,
			"error", err)
		return fmt.Errorf("failed to attach transaction to batch: %w", err)
	}

	if result.MatchedCount == 0 {
		return transaction.ErrTransactionNotFound{Reference: reference}
	}

	return nil
}

// MarkSettled bulk-flips settlement status for all pending collection
// transactions of one business scoped to a batch and payment link. One
// update covers the whole link after its payout succeeds; re-running is a
// zero-row no-op because the filter only matches pending transactions.
func (r *TransactionRepository) MarkSettled(ctx context.Context, businessID uuid.UUID, batchCode, linkID string) (int64, error) {
	collection := r.db.Collection(TransactionCollectionName)

	filter := bson.M{
		"business_id":       businessID,
		"batch_code":        batchCode,
		"feature":           shared.FeatureCollection,
		"settlement_status": shared.SettlementStatusPending,
	}
	if linkID != "" {
		filter["payment_link_id"] = linkID
	}

	now := time.Now()
	update := bson.M{
		"$set": bson.M{
			"settlement_status": shared.SettlementStatusCompleted,
			"settled_at":        now,
			"updated_at":        now,
		},
	}

	result, err := collection.UpdateMany(ctx, filter, update)
	if err != nil {
		r.logger.Error("Failed to mark transactions settled",
			"business_id", businessID.String(),
			"batch_code", batchCode,
			"payment_link_id", linkID,
			"error", err)
		return 0, fmt.Errorf("failed to mark transactions settled: %w", err)
	}

	return result.ModifiedCount, nil
}

// PendingSettleTotal sums settle amounts of unsettled collection
// transactions for a business within a batch.
func (r *TransactionRepository) PendingSettleTotal(ctx context.Context, businessID uuid.UUID, batchCode string) (int64, error) {
	collection := r.db.Collection(TransactionCollectionName)

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{
			"business_id":       businessID,
			"batch_code":        batchCode,
			"feature":           shared.FeatureCollection,
			"settlement_status": shared.SettlementStatusPending,
		}}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$settle_amount"},
		}}},
	}

	cursor, err := collection.Aggregate(ctx, pipeline)
	if err != nil {
		r.logger.Error("Failed to sum pending settle amounts",
			"business_id", businessID.String(),
			"batch_code", batchCode,
			"error", err)
		return 0, fmt.Errorf("failed to sum pending settle amounts: %w", err)
	}
	defer cursor.Close(ctx)

	var results []struct {
		Total int64 `bson:"total"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return 0, fmt.Errorf("failed to decode pending settle total: %w", err)
	}
	if len(results) == 0 {
		return 0, nil
	}
	return results[0].Total, nil
}

// ListByBatch retrieves paginated transactions attached to a batch,
// newest first.
func (r *TransactionRepository) ListByBatch(ctx context.Context, batchCode string, limit, offset int) ([]*transaction.Transaction, error) {
	return r.list(ctx, bson.M{"batch_code": batchCode}, limit, offset)
}

// ListByBusiness retrieves paginated transactions for a business,
// newest first.
func (r *TransactionRepository) ListByBusiness(ctx context.Context, businessID uuid.UUID, limit, offset int) ([]*transaction.Transaction, error) {
	return r.list(ctx, bson.M{"business_id": businessID}, limit, offset)
}

func (r *TransactionRepository) list(ctx context.Context, filter bson.M, limit, offset int) ([]*transaction.Transaction, error) {
	collection := r.db.Collection(TransactionCollectionName)

	opts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to list transactions", "error", err)
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer cursor.Close(ctx)

	var txns []*transaction.Transaction
	if err := cursor.All(ctx, &txns); err != nil {
		r.logger.Error("Failed to decode transactions", "error", err)
		return nil, fmt.Errorf("failed to decode transactions: %w", err)
	}

	return txns, nil
}

// UpdateStatus updates the transaction's status and failure reason.
// Returns ErrTransactionNotFound if the transaction doesn't exist.
func (r *TransactionRepository) UpdateStatus(ctx context.Context, reference string, status shared.TransactionStatus, reason string) error {
	collection := r.db.Collection(TransactionCollectionName)

	filter := bson.M{"reference": reference}
	update := bson.M{
		"$set": bson.M{
			"status":         status,
			"failure_reason": reason,
			"updated_at":     time.Now(),
		},
	}

	result, err := collection.UpdateOne(ctx, filter, update)
	if err != nil {
		r.logger.Error("Failed to update transaction status",
			"reference", reference,
			"status", string(status),
			"error", err)
		return fmt.Errorf("failed to update transaction status: %w", err)
	}

	if result.MatchedCount == 0 {
		return transaction.ErrTransactionNotFound{Reference: reference}
	}

	return nil
}
