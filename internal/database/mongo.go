package database

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type Mongo struct {
	Client *mongo.Client
	DB     *mongo.Database

	transactions bool
	logger       zerolog.Logger
}

// Connect opens a client and pings the server. When transactions is false,
// WithTransaction runs its function without a session (standalone servers do
// not support multi-document transactions).
func Connect(ctx context.Context, uri, dbName string, transactions bool, logger zerolog.Logger) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping: %w", err)
	}

	logger = logger.With().Str("component", "mongo").Logger()
	logger.Info().Str("db", dbName).Bool("transactions", transactions).Msg("connected to MongoDB")

	return &Mongo{
		Client:       client,
		DB:           client.Database(dbName),
		transactions: transactions,
		logger:       logger,
	}, nil
}

func (m *Mongo) Collection(name string) *mongo.Collection {
	return m.DB.Collection(name)
}

func (m *Mongo) Ping(ctx context.Context) error {
	return m.Client.Ping(ctx, nil)
}

func (m *Mongo) Disconnect(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}

// WithTransaction runs fn inside a multi-document transaction. The driver
// retries fn on transient transaction errors, so fn must be safe to re-run.
func (m *Mongo) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !m.transactions {
		return fn(ctx)
	}

	sess, err := m.Client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(context.Background())

	_, err = sess.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		return nil, fn(ctx)
	})
	return err
}
