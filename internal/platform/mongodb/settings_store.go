package mongodb

import (
	"context"
	"errors"
	"fmt"

	"user-management/internal/domain/settings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const userIDIndexName = "user_id_unique"

// settingsDocument is the stored shape of a settings document
type settingsDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	UserID       string             `bson:"user_id"`
	PhotoURL     *string            `bson:"photo_url"`
	MainCurrency string             `bson:"main_currency"`
}

func toDocument(s *settings.UserSettings) settingsDocument {
	return settingsDocument{
		UserID:       s.UserID,
		PhotoURL:     s.PhotoURL,
		MainCurrency: s.MainCurrency,
	}
}

func (d *settingsDocument) toDomain() *settings.UserSettings {
	return &settings.UserSettings{
		ID:           d.ID.Hex(),
		UserID:       d.UserID,
		PhotoURL:     d.PhotoURL,
		MainCurrency: d.MainCurrency,
	}
}

// SettingsStore implements settings.Store on a MongoDB collection
type SettingsStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewSettingsStore binds the store to database.collection and ensures the
// unique user_id index exists
func NewSettingsStore(ctx context.Context, client *mongo.Client, database, collection string) (*SettingsStore, error) {
	s := &SettingsStore{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}
	if err := s.EnsureIndexes(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// EnsureIndexes creates the unique index on user_id. At most one document
// per user can exist once it is in place.
func (s *SettingsStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName(userIDIndexName),
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIndexFailed, err)
	}
	return nil
}

func (s *SettingsStore) ListAll(ctx context.Context) ([]*settings.UserSettings, error) {
	cursor, err := s.collection.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}

	var docs []settingsDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}

	result := make([]*settings.UserSettings, 0, len(docs))
	for i := range docs {
		result = append(result, docs[i].toDomain())
	}
	return result, nil
}

func (s *SettingsStore) GetByUserID(ctx context.Context, userID string) (*settings.UserSettings, error) {
	return s.findOne(ctx, bson.D{{Key: "user_id", Value: userID}})
}

func (s *SettingsStore) GetByDocumentID(ctx context.Context, documentID string) (*settings.UserSettings, error) {
	oid, err := primitive.ObjectIDFromHex(documentID)
	if err != nil {
		// not an id this store could have issued
		return nil, nil
	}
	return s.findOne(ctx, bson.D{{Key: "_id", Value: oid}})
}

func (s *SettingsStore) findOne(ctx context.Context, filter bson.D) (*settings.UserSettings, error) {
	var doc settingsDocument
	err := s.collection.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	return doc.toDomain(), nil
}

func (s *SettingsStore) Insert(ctx context.Context, us *settings.UserSettings) (string, error) {
	res, err := s.collection.InsertOne(ctx, toDocument(us))
	if mongo.IsDuplicateKeyError(err) {
		return "", fmt.Errorf("%w: %s", settings.ErrDuplicateUser, us.UserID)
	}
	if err != nil {
		return "", fmt.Errorf("failed to insert settings: %w", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	return oid.Hex(), nil
}

func (s *SettingsStore) ReplaceByDocumentID(ctx context.Context, documentID string, us *settings.UserSettings) error {
	oid, err := primitive.ObjectIDFromHex(documentID)
	if err != nil {
		return settings.ErrDocumentNotFound
	}

	res, err := s.collection.ReplaceOne(ctx, bson.D{{Key: "_id", Value: oid}}, toDocument(us))
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %s", settings.ErrDuplicateUser, us.UserID)
	}
	if err != nil {
		return fmt.Errorf("failed to replace settings: %w", err)
	}
	if res.MatchedCount == 0 {
		return settings.ErrDocumentNotFound
	}
	return nil
}

func (s *SettingsStore) DeleteByDocumentID(ctx context.Context, documentID string) error {
	oid, err := primitive.ObjectIDFromHex(documentID)
	if err != nil {
		return settings.ErrDocumentNotFound
	}

	res, err := s.collection.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return fmt.Errorf("failed to delete settings: %w", err)
	}
	if res.DeletedCount == 0 {
		return settings.ErrDocumentNotFound
	}
	return nil
}

func (s *SettingsStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the underlying client
func (s *SettingsStore) Close(ctx context.Context) error {
	return Disconnect(ctx, s.client)
}
