package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/YinChingZ/LawAI/internal/domain"
)

// Collection names follow the documents the web app already stores.
const (
	chatsCollection     = "chats"
	queryLogsCollection = "querylogs"
	usersCollection     = "users"
)

// MongoStore implements Store on MongoDB, keeping each conversation as one document
// with an embedded message array.
type MongoStore struct {
	client    *mongo.Client
	chats     *mongo.Collection
	queryLogs *mongo.Collection
	users     *mongo.Collection
}

// Ensure MongoStore implements Store.
var _ Store = (*MongoStore)(nil)

// NewMongoStore connects to MongoDB and ensures the indexes used by range scans exist.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to reach mongo: %w", err)
	}

	db := client.Database(database)
	s := &MongoStore{
		client:    client,
		chats:     db.Collection(chatsCollection),
		queryLogs: db.Collection(queryLogsCollection),
		users:     db.Collection(usersCollection),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	if _, err := s.queryLogs.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "timestamp", Value: 1}},
	}); err != nil {
		return fmt.Errorf("failed to index querylogs: %w", err)
	}
	if _, err := s.chats.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "title", Value: 1}},
	}); err != nil {
		return fmt.Errorf("failed to index chats: %w", err)
	}
	if _, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("failed to index users: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// CreateConversation inserts a conversation document.
func (s *MongoStore) CreateConversation(ctx context.Context, conv *domain.Conversation) error {
	_, err := s.chats.InsertOne(ctx, conv)
	return err
}

// GetConversation retrieves a conversation by ID.
func (s *MongoStore) GetConversation(ctx context.Context, id string) (*domain.Conversation, error) {
	return s.findConversation(ctx, bson.M{"_id": id}, nil)
}

// FindPendingConversation finds the owner's two-message conversation with the given title.
func (s *MongoStore) FindPendingConversation(ctx context.Context, userID, title string) (*domain.Conversation, error) {
	filter := bson.M{
		"user_id":  userID,
		"title":    title,
		"messages": bson.M{"$size": 2},
	}
	return s.findConversation(ctx, filter, options.FindOne().SetSort(bson.D{{Key: "time", Value: -1}}))
}

func (s *MongoStore) findConversation(ctx context.Context, filter bson.M, opts *options.FindOneOptions) (*domain.Conversation, error) {
	var conv domain.Conversation
	var err error
	if opts != nil {
		err = s.chats.FindOne(ctx, filter, opts).Decode(&conv)
	} else {
		err = s.chats.FindOne(ctx, filter).Decode(&conv)
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// ListConversations lists a user's conversations, most recent first.
func (s *MongoStore) ListConversations(ctx context.Context, userID string) ([]domain.Conversation, error) {
	cursor, err := s.chats.Find(ctx, bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "time", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var convs []domain.Conversation
	if err := cursor.All(ctx, &convs); err != nil {
		return nil, err
	}
	return convs, nil
}

// SaveConversation replaces the messages and display time of a conversation.
func (s *MongoStore) SaveConversation(ctx context.Context, conv *domain.Conversation) error {
	res, err := s.chats.UpdateOne(ctx, bson.M{"_id": conv.ID}, bson.M{
		"$set": bson.M{
			"title":    conv.Title,
			"time":     conv.Time,
			"messages": conv.Messages,
		},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrConversationNotFound
	}
	return nil
}

// DeleteConversation removes a conversation document.
func (s *MongoStore) DeleteConversation(ctx context.Context, id string) error {
	_, err := s.chats.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// CountUserMessages counts embedded user messages in [from, until).
func (s *MongoStore) CountUserMessages(ctx context.Context, from, until time.Time) (int, error) {
	tsFilter := bson.M{"$gte": from}
	if !until.IsZero() {
		tsFilter["$lt"] = until
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"messages.timestamp": tsFilter}}},
		{{Key: "$unwind", Value: "$messages"}},
		{{Key: "$match", Value: bson.M{
			"messages.role":      string(domain.RoleUser),
			"messages.timestamp": tsFilter,
		}}},
		{{Key: "$count", Value: "n"}},
	}

	cursor, err := s.chats.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var result []struct {
		N int `bson:"n"`
	}
	if err := cursor.All(ctx, &result); err != nil {
		return 0, err
	}
	if len(result) == 0 {
		return 0, nil
	}
	return result[0].N, nil
}

// CreateUsageLog appends a usage log entry.
func (s *MongoStore) CreateUsageLog(ctx context.Context, entry *domain.UsageLogEntry) error {
	_, err := s.queryLogs.InsertOne(ctx, entry)
	return err
}

// CountUsageLogsSince counts usage log entries at or after since.
func (s *MongoStore) CountUsageLogsSince(ctx context.Context, since time.Time) (int, error) {
	n, err := s.queryLogs.CountDocuments(ctx, bson.M{"timestamp": bson.M{"$gte": since}})
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// FirstUsageLogTime returns the earliest usage log timestamp.
func (s *MongoStore) FirstUsageLogTime(ctx context.Context) (time.Time, bool, error) {
	var entry domain.UsageLogEntry
	err := s.queryLogs.FindOne(ctx, bson.M{},
		options.FindOne().SetSort(bson.D{{Key: "timestamp", Value: 1}})).Decode(&entry)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return entry.Timestamp, true, nil
}

// CreateAccount registers a new account.
func (s *MongoStore) CreateAccount(ctx context.Context, account *domain.Account) error {
	_, err := s.users.InsertOne(ctx, account)
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrAccountExists
	}
	return err
}

// GetAccount retrieves an account by username or display name.
func (s *MongoStore) GetAccount(ctx context.Context, name string) (*domain.Account, error) {
	var account domain.Account
	err := s.users.FindOne(ctx, bson.M{"$or": bson.A{
		bson.M{"username": name},
		bson.M{"name": name},
	}}).Decode(&account)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}
