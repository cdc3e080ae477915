// Package mongo implements storage.Storage on a MongoDB collection.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/projecteru2/core/log"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/projecteru2/easydoc/storage"
)

// compile-time interface checks.
var (
	_ storage.Storage = (*Store)(nil)
	_ storage.Lister  = (*Store)(nil)
)

// record is the persisted shape: the ref is the primary key and the
// serialized content is kept opaque as binary.
type record struct {
	Ref     string `bson:"_id"`
	Content []byte `bson:"content"`
}

// Store keeps documents in one MongoDB collection.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// Dial connects to MongoDB and verifies the connection with a ping.
func Dial(ctx context.Context, conf Config) (*Store, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	client, err := mongo.Connect(
		options.Client().
			ApplyURI(conf.ConnectionURI).
			SetConnectTimeout(conf.connectionTimeout()),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, conf.pingTimeout())
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	log.WithFunc("mongo.Dial").Infof(ctx, "MongoDB connected, DB: %s, collection: %s", conf.Database, conf.Collection)
	return &Store{
		client: client,
		coll:   client.Database(conf.Database).Collection(conf.Collection),
	}, nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect mongo: %w", err)
	}
	return nil
}

// Read returns the content stored under ref.
func (s *Store) Read(ctx context.Context, ref string) ([]byte, error) {
	if err := storage.ValidateRef(ref); err != nil {
		return nil, err
	}
	var rec record
	if err := s.coll.FindOne(ctx, bson.M{"_id": ref}).Decode(&rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("find %s: %w", ref, err)
	}
	if rec.Content == nil {
		rec.Content = []byte{}
	}
	return rec.Content, nil
}

// Write upserts the content under ref.
func (s *Store) Write(ctx context.Context, ref string, content []byte) error {
	if err := storage.ValidateRef(ref); err != nil {
		return err
	}
	if _, err := s.coll.ReplaceOne(ctx,
		bson.M{"_id": ref},
		record{Ref: ref, Content: content},
		options.Replace().SetUpsert(true),
	); err != nil {
		return fmt.Errorf("upsert %s: %w", ref, err)
	}
	return nil
}

// Delete removes ref. Zero deleted documents is not an error.
func (s *Store) Delete(ctx context.Context, ref string) error {
	if err := storage.ValidateRef(ref); err != nil {
		return err
	}
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": ref}); err != nil {
		return fmt.Errorf("delete %s: %w", ref, err)
	}
	return nil
}

// List returns every ref in the collection.
func (s *Store) List(ctx context.Context) ([]string, error) {
	cursor, err := s.coll.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	var recs []record
	if err := cursor.All(ctx, &recs); err != nil {
		return nil, fmt.Errorf("decode documents: %w", err)
	}
	refs := make([]string, 0, len(recs))
	for _, rec := range recs {
		refs = append(refs, rec.Ref)
	}
	return refs, nil
}
