package db

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"oer-preproc/pkg/domain"
)

// MaterialArchive keeps a document copy of every completely processed
// material. The complete topic publish is authoritative; the archive backs
// the read side and ad hoc inspection.
type MaterialArchive struct {
	client     *mongo.Client
	collection *mongo.Collection
	uri        string
	database   string
	name       string
}

// NewMaterialArchive constructs an archive over the given collection.
func NewMaterialArchive(uri, database, collection string) *MaterialArchive {
	return &MaterialArchive{uri: uri, database: database, name: collection}
}

// Connect establishes the connection and verifies it with a ping.
func (a *MaterialArchive) Connect(ctx context.Context) error {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(a.uri))
	if err != nil {
		return fmt.Errorf("connect material archive: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("ping material archive: %w", err)
	}
	a.client = client
	a.collection = client.Database(a.database).Collection(a.name)
	return nil
}

// Close disconnects from the archive.
func (a *MaterialArchive) Close(ctx context.Context) error {
	if a.client == nil {
		return nil
	}
	return a.client.Disconnect(ctx)
}

// UpsertMaterial stores the material document, keyed by its URL. Re-storing
// the same material overwrites the existing document, so redundant
// deliveries are idempotent.
func (a *MaterialArchive) UpsertMaterial(ctx context.Context, material *domain.Material) error {
	if a.collection == nil {
		return fmt.Errorf("material archive not connected")
	}

	filter := bson.M{"materialurl": material.MaterialURL}
	update := bson.M{"$set": material}
	opts := options.Update().SetUpsert(true)

	_, err := a.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("upsert material %s: %w", material.MaterialURL, err)
	}
	return nil
}

// ArchivedURLs returns the set of material URLs already archived, used to
// skip re-ingesting materials during local feed runs.
func (a *MaterialArchive) ArchivedURLs(ctx context.Context) (map[string]bool, error) {
	if a.collection == nil {
		return nil, fmt.Errorf("material archive not connected")
	}

	cursor, err := a.collection.Find(ctx, bson.M{},
		options.Find().SetProjection(bson.M{"materialurl": 1, "_id": 0}))
	if err != nil {
		return nil, fmt.Errorf("query archived urls: %w", err)
	}
	defer cursor.Close(ctx)

	urls := make(map[string]bool)
	for cursor.Next(ctx) {
		var doc struct {
			MaterialURL string `bson:"materialurl"`
		}
		if err := cursor.Decode(&doc); err != nil {
			continue
		}
		if doc.MaterialURL != "" {
			urls[doc.MaterialURL] = true
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return urls, nil
}
