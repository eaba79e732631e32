package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"telemetry/pkg/model"
)

// dialTimeout bounds the initial connection handshake and server
// selection so a bad URI fails fast instead of hanging a request.
const dialTimeout = 10 * time.Second

type mongoDialer struct {
	logger *slog.Logger
}

// NewMongoDialer returns the MongoDB-backed Dialer.
func NewMongoDialer(logger *slog.Logger) Dialer {
	if logger == nil {
		logger = slog.Default()
	}
	return &mongoDialer{logger: logger}
}

func (d *mongoDialer) Dial(ctx context.Context, uri, database, collection string) (Conn, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(dialTimeout).
		SetServerSelectionTimeout(dialTimeout)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, err
	}

	return &mongoConn{
		client:     client,
		db:         client.Database(database),
		collection: collection,
		logger:     d.logger,
	}, nil
}

// mongoConn implements Conn over the MongoDB driver. One reading per
// document; readings never update in place.
type mongoConn struct {
	client     *mongo.Client
	db         *mongo.Database
	collection string
	logger     *slog.Logger
}

// storedReading is the persisted form of a reading. The store assigns
// the object ID; the outward model carries it as a string.
type storedReading struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty"`
	model.SensorReading `bson:",inline"`
}

func (c *mongoConn) coll() *mongo.Collection {
	return c.db.Collection(c.collection)
}

func (c *mongoConn) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, nil)
}

func (c *mongoConn) EnsureCollection(ctx context.Context) error {
	names, err := c.db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: c.collection}})
	if err != nil {
		return err
	}
	if len(names) > 0 {
		return nil
	}

	err = c.db.CreateCollection(ctx, c.collection)
	if err != nil {
		// A concurrent creator winning the race is fine.
		var cmdErr mongo.CommandError
		if errors.As(err, &cmdErr) && cmdErr.Name == "NamespaceExists" {
			return nil
		}
		return err
	}
	return nil
}

func (c *mongoConn) EnsureTimestampIndex(ctx context.Context) error {
	_, err := c.coll().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "timestamp", Value: 1}},
		Options: options.Index().SetUnique(false),
	})
	return err
}

func (c *mongoConn) InsertReading(ctx context.Context, reading *model.SensorReading) (string, error) {
	result, err := c.coll().InsertOne(ctx, storedReading{SensorReading: *reading})
	if err != nil {
		return "", err
	}

	id, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected inserted id type %T", result.InsertedID)
	}
	return id.Hex(), nil
}

func (c *mongoConn) ListReadings(ctx context.Context) ([]model.SensorReading, error) {
	findOpts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	cursor, err := c.coll().Find(ctx, bson.D{}, findOpts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	readings := make([]model.SensorReading, 0)
	for cursor.Next(ctx) {
		var doc storedReading
		if err := bson.Unmarshal(cursor.Current, &doc); err != nil {
			// All-or-nothing: one untranslatable document fails the
			// listing. Log the raw form for diagnosis.
			c.logger.Error("stored document does not match reading shape",
				"collection", c.collection,
				"raw", cursor.Current.String(),
				"error", err,
			)
			return nil, fmt.Errorf("%w: %v", model.ErrInvalidDocument, err)
		}

		reading := doc.SensorReading
		reading.ID = doc.ID.Hex()
		readings = append(readings, reading)
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return readings, nil
}

func (c *mongoConn) DeleteAllReadings(ctx context.Context) (int64, error) {
	result, err := c.coll().DeleteMany(ctx, bson.D{})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

func (c *mongoConn) CountReadings(ctx context.Context) (int64, error) {
	return c.coll().CountDocuments(ctx, bson.D{})
}

func (c *mongoConn) CollectionStats(ctx context.Context) (CollStats, error) {
	var result struct {
		Count       int64            `bson:"count"`
		StorageSize int64            `bson:"storageSize"`
		IndexSizes  map[string]int64 `bson:"indexSizes"`
	}

	err := c.db.RunCommand(ctx, bson.D{{Key: "collStats", Value: c.collection}}).Decode(&result)
	if err != nil {
		return CollStats{}, err
	}

	indexes := make([]string, 0, len(result.IndexSizes))
	for name := range result.IndexSizes {
		indexes = append(indexes, name)
	}
	sort.Strings(indexes)

	return CollStats{
		DocumentCount: result.Count,
		StorageSize:   result.StorageSize,
		Indexes:       indexes,
	}, nil
}

func (c *mongoConn) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}
