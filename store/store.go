// Copyright 2025 ScentStack
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package store

import (
	"context"
	"errors"
	"log"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	// DefaultTimeout is the default operation timeout
	DefaultTimeout = 30 * time.Second
	// DefaultConnectTimeout is the default connection timeout
	DefaultConnectTimeout = 10 * time.Second
	// DefaultMaxPoolSize is the default maximum connection pool size
	DefaultMaxPoolSize = 100
	// DefaultMinPoolSize is the default minimum connection pool size
	DefaultMinPoolSize = 10
	// DefaultDatabase is used when the connection URI carries no database path
	DefaultDatabase = "scentstack"
	// CollectionName is the perfume collection
	CollectionName = "perfumes"
)

// ErrNotFound is returned when an id matches no perfume record.
var ErrNotFound = errors.New("perfume not found")

// StoreError wraps failures from the document store with the operation
// that produced them.
type StoreError struct {
	Operation string
	Message   string
	Cause     error
}

func (e *StoreError) Error() string {
	if e.Cause != nil {
		return "store." + e.Operation + ": " + e.Message + " (cause: " + e.Cause.Error() + ")"
	}
	return "store." + e.Operation + ": " + e.Message
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}

// NewStoreError creates a new StoreError
func NewStoreError(operation, message string, cause error) *StoreError {
	return &StoreError{
		Operation: operation,
		Message:   message,
		Cause:     cause,
	}
}

// Perfume is the sole catalog entity. PriceBDT is only ever non-nil when
// Status is "wantToBuy".
type Perfume struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name     string             `bson:"name" json:"name"`
	Status   string             `bson:"status" json:"status"`
	PriceBDT *float64           `bson:"priceBDT" json:"priceBDT"`
	TopNotes string             `bson:"topNotes" json:"topNotes"`
}

// StatusWantToBuy is the status under which PriceBDT is meaningful.
const StatusWantToBuy = "wantToBuy"

// PerfumePatch describes a partial update. A nil pointer leaves the field
// untouched; PriceSet marks PriceBDT as participating in the update, with a
// nil Price storing an explicit null.
type PerfumePatch struct {
	TopNotes *string
	Status   *string
	Price    *float64
	PriceSet bool
}

// setDocument builds the $set document containing only the supplied fields.
func (p PerfumePatch) setDocument() bson.M {
	set := bson.M{}
	if p.TopNotes != nil {
		set["topNotes"] = *p.TopNotes
	}
	if p.Status != nil {
		set["status"] = *p.Status
	}
	if p.PriceSet {
		set["priceBDT"] = p.Price
	}
	return set
}

// Store provides perfume CRUD against a MongoDB collection. The underlying
// client is established lazily, exactly once per Store, on first use; the
// connect error, if any, is cached and re-surfaced on later calls.
type Store struct {
	uri    string
	dbName string
	logger *log.Logger

	connectOnce sync.Once
	client      *mongo.Client
	coll        *mongo.Collection
	connectErr  error
}

// New creates a Store for the given connection URI. When dbName is empty the
// database encoded in the URI path is used, falling back to DefaultDatabase.
func New(uri, dbName string) *Store {
	return &Store{
		uri:    uri,
		dbName: dbName,
		logger: log.New(os.Stdout, "[STORE] ", log.LstdFlags),
	}
}

// databaseName resolves the database from explicit config or the URI path.
func (s *Store) databaseName() string {
	if s.dbName != "" {
		return s.dbName
	}
	if u, err := url.Parse(s.uri); err == nil {
		if name := strings.TrimPrefix(u.Path, "/"); name != "" {
			return name
		}
	}
	return DefaultDatabase
}

// acquire returns the shared collection handle, connecting on first call.
func (s *Store) acquire(ctx context.Context) (*mongo.Collection, error) {
	s.connectOnce.Do(func() {
		s.connect(ctx)
	})
	if s.connectErr != nil {
		return nil, s.connectErr
	}
	return s.coll, nil
}

// connect establishes the MongoDB client. Runs once per Store.
func (s *Store) connect(ctx context.Context) {
	clientOpts := options.Client().ApplyURI(s.uri)
	clientOpts.SetMaxPoolSize(DefaultMaxPoolSize)
	clientOpts.SetMinPoolSize(DefaultMinPoolSize)
	clientOpts.SetConnectTimeout(DefaultConnectTimeout)
	clientOpts.SetAppName("ScentStack-Catalog")

	connectCtx, cancel := context.WithTimeout(ctx, DefaultConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, clientOpts)
	if err != nil {
		s.connectErr = NewStoreError("Connect", "failed to connect to MongoDB", err)
		return
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		s.connectErr = NewStoreError("Connect", "failed to ping MongoDB", err)
		return
	}

	dbName := s.databaseName()
	s.client = client
	s.coll = client.Database(dbName).Collection(CollectionName)

	s.logger.Printf("Connected to MongoDB (database=%s, collection=%s)", dbName, CollectionName)
}

// Close disconnects the underlying client, if one was ever established.
func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}

	disconnectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := s.client.Disconnect(disconnectCtx); err != nil {
		return NewStoreError("Close", "failed to disconnect", err)
	}

	s.logger.Printf("Disconnected from MongoDB")
	return nil
}

// List returns every perfume record sorted ascending by name. The result is
// never nil.
func (s *Store) List(ctx context.Context) ([]Perfume, error) {
	coll, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}

	opCtx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := coll.Find(opCtx, bson.M{}, opts)
	if err != nil {
		return nil, NewStoreError("List", "find failed", err)
	}
	defer func() { _ = cursor.Close(opCtx) }()

	perfumes := make([]Perfume, 0)
	if err := cursor.All(opCtx, &perfumes); err != nil {
		return nil, NewStoreError("List", "cursor decode failed", err)
	}

	return perfumes, nil
}

// FindByName looks up a perfume by exact name match. Returns (nil, nil) when
// no record matches.
func (s *Store) FindByName(ctx context.Context, name string) (*Perfume, error) {
	coll, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}

	opCtx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	var p Perfume
	err = coll.FindOne(opCtx, bson.M{"name": name}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, NewStoreError("FindByName", "findOne failed", err)
	}

	return &p, nil
}

// FindByID looks up a perfume by its hex ObjectID.
func (s *Store) FindByID(ctx context.Context, id string) (*Perfume, error) {
	coll, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, NewStoreError("FindByID", "invalid id", err)
	}

	opCtx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	var p Perfume
	err = coll.FindOne(opCtx, bson.M{"_id": oid}).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, NewStoreError("FindByID", "findOne failed", err)
	}

	return &p, nil
}

// Insert persists a new perfume and returns it with the store-assigned id.
func (s *Store) Insert(ctx context.Context, p Perfume) (*Perfume, error) {
	coll, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}

	opCtx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	result, err := coll.InsertOne(opCtx, p)
	if err != nil {
		return nil, NewStoreError("Insert", "insertOne failed", err)
	}

	oid, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, NewStoreError("Insert", "unexpected inserted id type", nil)
	}
	p.ID = oid

	s.logger.Printf("Inserted perfume %s (id=%s)", p.Name, oid.Hex())
	return &p, nil
}

// Update applies a partial update to the record matched by id and returns the
// post-update record. Returns ErrNotFound when the id matches nothing. An
// empty patch reads the record back without touching it.
func (s *Store) Update(ctx context.Context, id string, patch PerfumePatch) (*Perfume, error) {
	coll, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, NewStoreError("Update", "invalid id", err)
	}

	set := patch.setDocument()
	if len(set) == 0 {
		return s.FindByID(ctx, id)
	}

	opCtx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated Perfume
	err = coll.FindOneAndUpdate(opCtx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&updated)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, NewStoreError("Update", "findOneAndUpdate failed", err)
	}

	s.logger.Printf("Updated perfume id=%s (%d field(s))", id, len(set))
	return &updated, nil
}

// Delete removes the record matched by id. Returns ErrNotFound when the id
// matches nothing.
func (s *Store) Delete(ctx context.Context, id string) error {
	coll, err := s.acquire(ctx)
	if err != nil {
		return err
	}

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return NewStoreError("Delete", "invalid id", err)
	}

	opCtx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	result, err := coll.DeleteOne(opCtx, bson.M{"_id": oid})
	if err != nil {
		return NewStoreError("Delete", "deleteOne failed", err)
	}

	if result.DeletedCount == 0 {
		return ErrNotFound
	}

	s.logger.Printf("Deleted perfume id=%s", id)
	return nil
}
