package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"userportal/api/internal/models"
)

const (
	usersCollection = "users"
	flagsCollection = "flags"
)

// Connect dials MongoDB and verifies the connection before returning the
// database handle.
func Connect(ctx context.Context, uri string, database string) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	return client.Database(database), nil
}

// EnsureIndexes creates the uniqueness and lookup indexes the stores rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := options.Index().SetUnique(true)

	_, err := db.Collection(usersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "role", Value: 1}}},
		{Keys: bson.D{{Key: "isActive", Value: 1}}},
		{Keys: bson.D{{Key: "profile.department", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}

	_, err = db.Collection(flagsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "name", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "isActive", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create flag indexes: %w", err)
	}
	return nil
}

// MongoUsers is the MongoDB-backed UserStore. Filters are passed to the
// server untouched.
type MongoUsers struct {
	coll *mongo.Collection
}

func NewMongoUsers(db *mongo.Database) *MongoUsers {
	return &MongoUsers{coll: db.Collection(usersCollection)}
}

func (m *MongoUsers) Insert(ctx context.Context, user models.User) (models.User, error) {
	if _, err := m.coll.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.User{}, ErrDuplicate
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

func (m *MongoUsers) FindOne(ctx context.Context, filter bson.M) (models.User, error) {
	var user models.User
	if err := m.coll.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (m *MongoUsers) FindByID(ctx context.Context, id string) (models.User, error) {
	return m.FindOne(ctx, bson.M{"_id": id})
}

func (m *MongoUsers) Find(ctx context.Context, filter bson.M, opts ListOptions) ([]models.User, error) {
	findOpts := options.Find()
	if opts.Skip > 0 {
		findOpts.SetSkip(opts.Skip)
	}
	if opts.Limit > 0 {
		findOpts.SetLimit(opts.Limit)
	}
	if opts.SortNewestFirst {
		findOpts.SetSort(bson.D{{Key: "createdAt", Value: -1}})
	}

	cursor, err := m.coll.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

func (m *MongoUsers) Count(ctx context.Context, filter bson.M) (int64, error) {
	count, err := m.coll.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

func (m *MongoUsers) CountGroupBy(ctx context.Context, filter bson.M, field string) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$" + field,
			"count": bson.M{"$sum": 1},
		}}},
	}

	cursor, err := m.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("group users: %w", err)
	}

	var rows []struct {
		ID    *string `bson:"_id"`
		Count int64   `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode groups: %w", err)
	}

	groups := make(map[string]int64, len(rows))
	for _, row := range rows {
		key := ""
		if row.ID != nil {
			key = *row.ID
		}
		groups[key] = row.Count
	}
	return groups, nil
}

func (m *MongoUsers) UpdateByID(ctx context.Context, id string, update bson.M) (models.User, error) {
	after := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user models.User
	err := m.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, after).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

func (m *MongoUsers) Ping(ctx context.Context) error {
	return m.coll.Database().Client().Ping(ctx, readpref.Primary())
}

// MongoFlags is the MongoDB-backed FlagStore.
type MongoFlags struct {
	coll *mongo.Collection
}

func NewMongoFlags(db *mongo.Database) *MongoFlags {
	return &MongoFlags{coll: db.Collection(flagsCollection)}
}

func (m *MongoFlags) Insert(ctx context.Context, flag models.Flag) (models.Flag, error) {
	if _, err := m.coll.InsertOne(ctx, flag); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.Flag{}, ErrDuplicate
		}
		return models.Flag{}, fmt.Errorf("insert flag: %w", err)
	}
	return flag, nil
}

func (m *MongoFlags) Find(ctx context.Context, filter bson.M) ([]models.Flag, error) {
	cursor, err := m.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list flags: %w", err)
	}
	var flags []models.Flag
	if err := cursor.All(ctx, &flags); err != nil {
		return nil, fmt.Errorf("decode flags: %w", err)
	}
	return flags, nil
}

func (m *MongoFlags) FindByID(ctx context.Context, id string) (models.Flag, error) {
	var flag models.Flag
	if err := m.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&flag); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Flag{}, ErrNotFound
		}
		return models.Flag{}, fmt.Errorf("find flag: %w", err)
	}
	return flag, nil
}
