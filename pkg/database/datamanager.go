package database

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DataManager provides typed access to a MongoDB collection
type DataManager[T any] struct {
	name       string
	dbInstance *Database
}

// NewDataManager creates a new DataManager for a collection
func NewDataManager[T any](collectionName string, db *Database) *DataManager[T] {
	return &DataManager[T]{name: collectionName, dbInstance: db}
}

// Name returns the collection name.
func (dm *DataManager[T]) Name() string {
	return dm.name
}

func (dm *DataManager[T]) collection() (*mongo.Collection, error) {
	if dm.dbInstance == nil || !dm.dbInstance.Connected() {
		return nil, ErrNotConnected
	}
	col := dm.dbInstance.GetCollection(dm.name)
	if col == nil {
		return nil, ErrNotConnected
	}
	return col, nil
}

// Get retrieves one document, nil when nothing matches
func (dm *DataManager[T]) Get(ctx context.Context, query bson.M) (*T, error) {
	col, err := dm.collection()
	if err != nil {
		return nil, err
	}

	var result T
	err = col.FindOne(ctx, query).Decode(&result)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", dm.name, err)
	}
	return &result, nil
}

// Exists reports whether a document matches query
func (dm *DataManager[T]) Exists(ctx context.Context, query bson.M) (bool, error) {
	col, err := dm.collection()
	if err != nil {
		return false, err
	}
	n, err := col.CountDocuments(ctx, query, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count in %s: %w", dm.name, err)
	}
	return n > 0, nil
}

// GetAll retrieves all documents matching a query
func (dm *DataManager[T]) GetAll(ctx context.Context, query bson.M, opts ...*options.FindOptions) ([]*T, error) {
	col, err := dm.collection()
	if err != nil {
		return nil, err
	}

	cursor, err := col.Find(ctx, query, opts...)
	if err != nil {
		return nil, fmt.Errorf("find all in %s: %w", dm.name, err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	var results []*T
	for cursor.Next(ctx) {
		var doc T
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode from %s: %w", dm.name, err)
		}
		results = append(results, &doc)
	}

	return results, cursor.Err()
}

// Replace upserts doc as a whole: keys its encoding omits are unset on the
// stored document, so clearing a field sticks.
func (dm *DataManager[T]) Replace(ctx context.Context, query bson.M, doc T) (*T, error) {
	update, err := replaceUpdate(doc)
	if err != nil {
		return nil, fmt.Errorf("encode for %s: %w", dm.name, err)
	}
	return dm.Update(ctx, query, update)
}

// replaceUpdate builds a $set of the encoded fields of doc plus an $unset of
// every other key its struct declares.
func replaceUpdate[T any](doc T) (bson.M, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, err
	}
	set := bson.M{}
	if err := bson.Unmarshal(raw, &set); err != nil {
		return nil, err
	}

	unset := bson.M{}
	for _, key := range bsonKeys(reflect.TypeOf(doc)) {
		if _, ok := set[key]; !ok {
			unset[key] = ""
		}
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update, nil
}

// bsonKeys lists the document keys of a struct type.
func bsonKeys(t reflect.Type) []string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	keys := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("bson"), ",")
		switch name {
		case "-":
			continue
		case "":
			name = strings.ToLower(f.Name)
		}
		keys = append(keys, name)
	}
	return keys
}

// Update applies update to the document matching query in one
// findOneAndUpdate, creating it when missing, and returns the new version.
func (dm *DataManager[T]) Update(ctx context.Context, query bson.M, update bson.M) (*T, error) {
	col, err := dm.collection()
	if err != nil {
		return nil, err
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var result T
	if err := col.FindOneAndUpdate(ctx, query, update, opts).Decode(&result); err != nil {
		return nil, fmt.Errorf("update in %s: %w", dm.name, err)
	}
	return &result, nil
}

// UpdateExisting applies update only when a document matches
func (dm *DataManager[T]) UpdateExisting(ctx context.Context, query bson.M, update bson.M) error {
	col, err := dm.collection()
	if err != nil {
		return err
	}
	if _, err := col.UpdateOne(ctx, query, update); err != nil {
		return fmt.Errorf("update in %s: %w", dm.name, err)
	}
	return nil
}

// Insert adds a new document
func (dm *DataManager[T]) Insert(ctx context.Context, doc *T) error {
	col, err := dm.collection()
	if err != nil {
		return err
	}
	if _, err := col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert in %s: %w", dm.name, err)
	}
	return nil
}

// Delete removes a document
func (dm *DataManager[T]) Delete(ctx context.Context, query bson.M) error {
	col, err := dm.collection()
	if err != nil {
		return err
	}
	if _, err := col.DeleteOne(ctx, query); err != nil {
		return fmt.Errorf("delete in %s: %w", dm.name, err)
	}
	return nil
}
