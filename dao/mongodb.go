package dao

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/kmills/shortlink/env"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

type MongoDB struct {
	client *mongo.Client
	links  *mongo.Collection
}

func newMongoContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), env.DurationOrDefault("mongo_timeout", 10*time.Second))
}

// CreateMongoDB creates a new MongoDB-backed LinkDao.
// The uri should be a MongoDB connection string, e.g.:
// "mongodb://localhost:27017"
func CreateMongoDB(uri string) LinkDao {
	client, err := mongo.Connect(options.Client().ApplyURI(uri).SetAppName("shortlink"))
	if err != nil {
		log.Fatalf("Unable to create MongoDB client: %v", err)
	}

	ctx, cancel := newMongoContext()
	defer cancel()

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		log.Fatalf("Unable to connect to MongoDB: %v", err)
	}

	db := &MongoDB{
		client: client,
		links:  client.Database(env.StringOrDefault("mongo_db", "shortlink")).Collection("links"),
	}
	db.initIndexes()

	return db
}

func (d *MongoDB) initIndexes() {
	ctx, cancel := newMongoContext()
	defer cancel()

	_, err := d.links.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "short_code", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		log.Printf("Error creating short_code index: %v", err)
	}
}

func (d *MongoDB) Cleanup() {
	ctx, cancel := newMongoContext()
	defer cancel()

	if err := d.client.Disconnect(ctx); err != nil {
		log.Printf("Error disconnecting from MongoDB: %v", err)
	}
}

func (d *MongoDB) IsLikelyOk() bool {
	ctx, cancel := newMongoContext()
	defer cancel()

	if err := d.client.Ping(ctx, readpref.Primary()); err != nil {
		log.Printf("Ping failed: %v", err)
		return false
	}
	return true
}

func (d *MongoDB) Insert(code string, targetURL string) (Link, error) {
	ctx, cancel := newMongoContext()
	defer cancel()

	link := Link{
		ShortCode: code,
		TargetURL: targetURL,
		// BSON keeps millisecond precision, truncate so the returned
		// record matches what a later Get sees.
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	if _, err := d.links.InsertOne(ctx, link); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return Link{}, ErrDuplicateCode
		}
		return Link{}, fmt.Errorf("couldn't store (%s, %s): %w", code, targetURL, err)
	}

	return link, nil
}

func (d *MongoDB) Redirect(code string) (string, error) {
	ctx, cancel := newMongoContext()
	defer cancel()

	// One findAndModify keeps the count and timestamp together. The
	// pre-update document is fine, target_url never changes.
	update := bson.M{
		"$inc":         bson.M{"total_clicks": 1},
		"$currentDate": bson.M{"last_clicked": true},
	}

	var link Link
	err := d.links.FindOneAndUpdate(ctx, bson.M{"short_code": code}, update).Decode(&link)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("error recording click for %s: %w", code, err)
	}

	return link.TargetURL, nil
}

func (d *MongoDB) Get(code string) (Link, error) {
	ctx, cancel := newMongoContext()
	defer cancel()

	var link Link
	err := d.links.FindOne(ctx, bson.M{"short_code": code}).Decode(&link)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return Link{}, ErrNotFound
		}
		return Link{}, fmt.Errorf("error getting link %s: %w", code, err)
	}

	return link, nil
}

func (d *MongoDB) List() ([]Link, error) {
	ctx, cancel := newMongoContext()
	defer cancel()

	sort := options.Find().SetSort(bson.D{
		{Key: "created_at", Value: -1},
		{Key: "_id", Value: -1},
	})
	cursor, err := d.links.Find(ctx, bson.D{}, sort)
	if err != nil {
		return nil, fmt.Errorf("error listing links: %w", err)
	}

	links := make([]Link, 0)
	if err := cursor.All(ctx, &links); err != nil {
		return nil, fmt.Errorf("error reading link documents: %w", err)
	}

	return links, nil
}

func (d *MongoDB) Delete(code string) error {
	ctx, cancel := newMongoContext()
	defer cancel()

	result, err := d.links.DeleteOne(ctx, bson.M{"short_code": code})
	if err != nil {
		return fmt.Errorf("couldn't delete %s: %w", code, err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
