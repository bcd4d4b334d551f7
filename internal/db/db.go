package db

import (
	"context"
	"time"

	"github.com/AbdulWasayUl/country-currency-api/internal/config"
	"github.com/AbdulWasayUl/country-currency-api/internal/db/migrations"
	"github.com/AbdulWasayUl/country-currency-api/internal/logger"
	"github.com/AbdulWasayUl/country-currency-api/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConnectMongoDB connects and pings. Multi-document transactions need the
// server to run as a replica set (a single-node one is enough).
func ConnectMongoDB(ctx context.Context, cfg *config.Config) (*mongo.Client, error) {
	clientOptions := options.Client().ApplyURI(cfg.MongoURI)
	if clientOptions.Auth != nil && cfg.MongoAuthDB != "" {
		clientOptions.Auth.AuthSource = cfg.MongoAuthDB
	}

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	err = client.Ping(ctxTimeout, nil)
	if err != nil {
		return nil, err
	}

	logger.Info("Successfully connected to MongoDB!")
	return client, nil
}

func DisconnectMongoDB(ctx context.Context, client *mongo.Client) error {
	if err := client.Disconnect(ctx); err != nil {
		return err
	}
	logger.Info("Disconnected from MongoDB.")
	return nil
}

func RunMigrations(ctx context.Context, client *mongo.Client, cfg *config.Config) error {
	migrations := []models.Migration{
		{Name: "create_countries_collection", Func: migrations.CreateCountriesCollection(cfg)},
		{Name: "countries_indexes_v1", Func: migrations.CreateCountryIndexes(cfg)},
	}

	coll := client.Database(cfg.DBName).Collection(cfg.CollectionMigrationsHistory)

	for _, m := range migrations {
		var result struct{ Name string }
		err := coll.FindOne(ctx, bson.M{"name": m.Name}).Decode(&result)
		if err == mongo.ErrNoDocuments {
			logger.Info("Running migration: %s", m.Name)
			if err := m.Func(ctx, client); err != nil {
				logger.Error("Error applying migration %s: %v", m.Name, err)
				return err
			}
			_, err = coll.InsertOne(ctx, bson.M{"name": m.Name, "applied_at": time.Now()})
			if err != nil {
				return err
			}
			logger.Info("Migration %s applied successfully.", m.Name)
		} else if err != nil {
			return err
		} else {
			logger.Info("Migration %s already applied, skipping.", m.Name)
		}
	}

	return nil
}
