package migrations

import (
	"context"
	"errors"
	"fmt"

	"github.com/AbdulWasayUl/country-currency-api/internal/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func createCollectionIfNotExists(ctx context.Context, db *mongo.Database, name string) error {
	if err := db.CreateCollection(ctx, name); err != nil {
		var cmdErr mongo.CommandError
		if errors.As(err, &cmdErr) {
			if cmdErr.Code != 48 { // 48 = NamespaceExists
				return fmt.Errorf("failed to create collection %s: %w", name, err)
			}
			// Collection already exists → ignore
		} else {
			return fmt.Errorf("failed to create collection %s: %w", name, err)
		}
	}
	return nil
}

// CreateCountriesCollection creates the collection up front; collections
// cannot be created implicitly inside a transaction on older servers.
func CreateCountriesCollection(cfg *config.Config) func(ctx context.Context, client *mongo.Client) error {
	return func(ctx context.Context, client *mongo.Client) error {
		return createCollectionIfNotExists(ctx, client.Database(cfg.DBName), cfg.CollectionCountries)
	}
}

func CreateCountryIndexes(cfg *config.Config) func(ctx context.Context, client *mongo.Client) error {
	return func(ctx context.Context, client *mongo.Client) error {
		coll := client.Database(cfg.DBName).Collection(cfg.CollectionCountries)

		indexes := []mongo.IndexModel{
			{
				Keys:    bson.D{{Key: "name_key", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("uniq_name_key"),
			},
			{Keys: bson.D{{Key: "estimated_gdp", Value: -1}}},
			{Keys: bson.D{{Key: "population", Value: 1}}},
			{Keys: bson.D{{Key: "last_refreshed_at", Value: -1}}},
		}

		if _, err := coll.Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("failed to create country indexes: %w", err)
		}
		return nil
	}
}
