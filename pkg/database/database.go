// Package database provides MongoDB database connection and data management.
// It includes a generic DataManager over collections and the Mongo-backed
// moderation Store.
package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/PancyStudios/PancyGuardGo/pkg/logger"
)

// Collection names
const (
	CollectionGuildConfigs = "guild_configs"
	CollectionWarns        = "warns"
	CollectionMessages     = "messages"
	CollectionExceptions   = "exceptions"
)

// Database manages the MongoDB connection
type Database struct {
	client          *mongo.Client
	db              *mongo.Database
	isConnected     bool
	reconnectTicker *time.Ticker
	stopReconnect   chan struct{}
	stopOnce        sync.Once
	mu              sync.RWMutex
	collections     map[string]*mongo.Collection
}

var (
	database *Database
	dbOnce   sync.Once
)

// Init initializes the global database instance
func Init(mongoURL, dbName string) (*Database, error) {
	var err error
	dbOnce.Do(func() {
		database = NewDatabase()
		err = database.Connect(mongoURL, dbName)
	})
	return database, err
}

// Get returns the global database instance
func Get() *Database {
	return database
}

// NewDatabase creates a new Database instance
func NewDatabase() *Database {
	return &Database{
		stopReconnect: make(chan struct{}),
		collections:   make(map[string]*mongo.Collection),
	}
}

// Connect establishes a connection to MongoDB and makes sure the indexes
// the store relies on exist.
func (d *Database) Connect(mongoURL, dbName string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.isConnected {
		return nil
	}

	logger.System("Intentando conectar a la base de datos...", "DB")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(mongoURL).
		SetServerSelectionTimeout(5 * time.Second)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		logger.Critical("Fallo al conectar con la base de datos.", "DB")
		d.scheduleReconnect(mongoURL, dbName)
		return err
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		logger.Critical("Fallo al verificar conexión con la base de datos.", "DB")
		_ = client.Disconnect(ctx)
		d.scheduleReconnect(mongoURL, dbName)
		return err
	}

	d.client = client
	d.db = client.Database(dbName)
	d.collections = make(map[string]*mongo.Collection)
	d.isConnected = true

	if err := d.ensureIndexes(ctx); err != nil {
		logger.Error(fmt.Sprintf("No se pudieron crear los índices: %v", err), "DB")
		return err
	}

	logger.Success("Conectado exitosamente a la base de datos.", "DB")

	if d.reconnectTicker != nil {
		d.reconnectTicker.Stop()
		d.reconnectTicker = nil
	}

	return nil
}

// ensureIndexes creates the unique keys that make upserts race-free.
// Must be called with d.mu held.
func (d *Database) ensureIndexes(ctx context.Context) error {
	indexes := map[string]mongo.IndexModel{
		CollectionGuildConfigs: {
			Keys:    bson.D{{Key: "guildId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		CollectionWarns: {
			Keys:    bson.D{{Key: "guildId", Value: 1}, {Key: "userId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		CollectionMessages: {
			Keys:    bson.D{{Key: "messageId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		CollectionExceptions: {
			Keys:    bson.D{{Key: "guildId", Value: 1}, {Key: "userId", Value: 1}, {Key: "policy", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	for name, model := range indexes {
		if _, err := d.db.Collection(name).Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("index on %s: %w", name, err)
		}
	}
	return nil
}

// scheduleReconnect starts reconnection attempts every 15 seconds.
// Must be called with d.mu held.
func (d *Database) scheduleReconnect(mongoURL, dbName string) {
	d.isConnected = false
	if d.reconnectTicker != nil {
		return
	}
	logger.Warn("Se perdió la conexión con la base de datos. Reintentando en segundo plano.", "DB")

	ticker := time.NewTicker(15 * time.Second)
	d.reconnectTicker = ticker
	go func() {
		for {
			select {
			case <-ticker.C:
				logger.Info("Intentando reconectar a la base de datos...", "DB")
				if err := d.Connect(mongoURL, dbName); err == nil {
					return
				}
			case <-d.stopReconnect:
				return
			}
		}
	}()
}

// Disconnect closes the database connection
func (d *Database) Disconnect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.reconnectTicker != nil {
		d.reconnectTicker.Stop()
	}
	d.stopOnce.Do(func() { close(d.stopReconnect) })

	if d.client != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := d.client.Disconnect(ctx); err != nil {
			return err
		}
		d.isConnected = false
		logger.Warn("La base de datos ha sido desconectada", "DB")
	}
	return nil
}

// Connected reports whether the last connection attempt succeeded.
func (d *Database) Connected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.isConnected
}

// Ping measures the database response time
func (d *Database) Ping() (time.Duration, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.isConnected || d.client == nil {
		return 0, ErrNotConnected
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := d.client.Ping(ctx, readpref.Primary())
	return time.Since(start), err
}

// GetStatus returns the database connection status
func (d *Database) GetStatus() (string, bool) {
	if _, err := d.Ping(); err != nil {
		return "🔴 | Desconectado", false
	}
	return "🟢 | En linea", true
}

// GetCollection returns a MongoDB collection
func (d *Database) GetCollection(name string) *mongo.Collection {
	d.mu.RLock()
	if col, exists := d.collections[name]; exists {
		d.mu.RUnlock()
		return col
	}
	d.mu.RUnlock()

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.db == nil {
		return nil
	}

	col := d.db.Collection(name)
	d.collections[name] = col
	return col
}
