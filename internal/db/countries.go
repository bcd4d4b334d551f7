package db

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/AbdulWasayUl/country-currency-api/internal/config"
	"github.com/AbdulWasayUl/country-currency-api/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	DefaultLimit = 10
	MaxLimit     = 250
	summaryTopN  = 5
)

// CountryRepository stores countries keyed by their case-folded name.
type CountryRepository struct {
	client *mongo.Client
	coll   *mongo.Collection
}

func NewCountryRepository(client *mongo.Client, cfg *config.Config) *CountryRepository {
	return &CountryRepository{
		client: client,
		coll:   client.Database(cfg.DBName).Collection(cfg.CollectionCountries),
	}
}

// UpsertAll writes the whole batch in a single transaction. Rows are matched
// on name_key against both the persisted set and earlier records of the same
// batch, so repeated names never produce duplicate rows.
func (r *CountryRepository) UpsertAll(ctx context.Context, countries []models.Country, refreshedAt time.Time) (models.UpsertResult, error) {
	session, err := r.client.StartSession()
	if err != nil {
		return models.UpsertResult{}, fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	out, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		existing, err := r.existingIDs(sc, countries)
		if err != nil {
			return nil, err
		}

		writes, result := planUpsert(existing, countries, refreshedAt)
		if len(writes) == 0 {
			return result, nil
		}

		if _, err := r.coll.BulkWrite(sc, writes, options.BulkWrite().SetOrdered(true)); err != nil {
			return nil, fmt.Errorf("failed to write countries: %w", err)
		}
		return result, nil
	})
	if err != nil {
		return models.UpsertResult{}, err
	}

	return out.(models.UpsertResult), nil
}

func (r *CountryRepository) existingIDs(ctx context.Context, countries []models.Country) (map[string]primitive.ObjectID, error) {
	keys := make([]string, 0, len(countries))
	for _, c := range countries {
		keys = append(keys, keyOf(c))
	}

	ids := make(map[string]primitive.ObjectID, len(keys))
	if len(keys) == 0 {
		return ids, nil
	}

	opts := options.Find().SetProjection(bson.M{"_id": 1, "name_key": 1})
	cursor, err := r.coll.Find(ctx, bson.M{"name_key": bson.M{"$in": keys}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load existing countries: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var row struct {
			ID      primitive.ObjectID `bson:"_id"`
			NameKey string             `bson:"name_key"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, err
		}
		ids[row.NameKey] = row.ID
	}
	return ids, cursor.Err()
}

// planUpsert turns a batch into ordered bulk writes. existing is extended
// with the IDs of rows inserted by this batch.
func planUpsert(existing map[string]primitive.ObjectID, countries []models.Country, refreshedAt time.Time) ([]mongo.WriteModel, models.UpsertResult) {
	var (
		writes []mongo.WriteModel
		result models.UpsertResult
	)

	for _, c := range countries {
		c.NameKey = keyOf(c)
		c.LastRefreshedAt = refreshedAt

		if id, ok := existing[c.NameKey]; ok {
			writes = append(writes, mongo.NewUpdateOneModel().
				SetFilter(bson.M{"_id": id}).
				SetUpdate(bson.M{"$set": mutableFields(c)}))
			result.Updated++
			continue
		}

		c.ID = primitive.NewObjectID()
		existing[c.NameKey] = c.ID
		writes = append(writes, mongo.NewInsertOneModel().SetDocument(c))
		result.Created++
	}

	return writes, result
}

func mutableFields(c models.Country) bson.M {
	return bson.M{
		"name":              c.Name,
		"name_key":          c.NameKey,
		"capital":           c.Capital,
		"region":            c.Region,
		"population":        c.Population,
		"currency_code":     c.CurrencyCode,
		"exchange_rate":     c.ExchangeRate,
		"estimated_gdp":     c.EstimatedGDP,
		"flag_url":          c.FlagURL,
		"last_refreshed_at": c.LastRefreshedAt,
	}
}

func keyOf(c models.Country) string {
	if c.NameKey != "" {
		return c.NameKey
	}
	return models.NameKey(c.Name)
}

func (r *CountryRepository) GetByName(ctx context.Context, name string) (models.Country, error) {
	var c models.Country
	err := r.coll.FindOne(ctx, bson.M{"name_key": models.NameKey(name)}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Country{}, &NotFoundError{Name: name}
	}
	if err != nil {
		return models.Country{}, fmt.Errorf("failed to get country %q: %w", name, err)
	}
	return c, nil
}

func (r *CountryRepository) DeleteByName(ctx context.Context, name string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"name_key": models.NameKey(name)})
	if err != nil {
		return fmt.Errorf("failed to delete country %q: %w", name, err)
	}
	if res.DeletedCount == 0 {
		return &NotFoundError{Name: name}
	}
	return nil
}

// List applies filters, ordering and pagination. TotalCount is the size of
// the whole collection, not of the filtered result.
func (r *CountryRepository) List(ctx context.Context, q models.ListQuery) (models.CountryPage, error) {
	if err := NormalizeQuery(&q); err != nil {
		return models.CountryPage{}, err
	}

	data, err := r.aggregate(ctx, listPipeline(q))
	if err != nil {
		return models.CountryPage{}, err
	}

	total, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return models.CountryPage{}, fmt.Errorf("failed to count countries: %w", err)
	}

	return models.CountryPage{Data: data, TotalCount: total}, nil
}

func (r *CountryRepository) Status(ctx context.Context) (models.Status, error) {
	total, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return models.Status{}, fmt.Errorf("failed to count countries: %w", err)
	}

	st := models.Status{TotalCountries: total}
	if total == 0 {
		return st, nil
	}

	var latest struct {
		LastRefreshedAt time.Time `bson:"last_refreshed_at"`
	}
	opts := options.FindOne().
		SetSort(bson.D{{Key: "last_refreshed_at", Value: -1}}).
		SetProjection(bson.M{"last_refreshed_at": 1})
	err = r.coll.FindOne(ctx, bson.M{}, opts).Decode(&latest)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return st, nil
	}
	if err != nil {
		return models.Status{}, fmt.Errorf("failed to read last refresh: %w", err)
	}

	ts := latest.LastRefreshedAt.UTC()
	st.LastRefresh = &ts
	return st, nil
}

func (r *CountryRepository) Summary(ctx context.Context) (models.Summary, error) {
	st, err := r.Status(ctx)
	if err != nil {
		return models.Summary{}, err
	}

	top, err := r.aggregate(ctx, listPipeline(models.ListQuery{Sort: models.SortGDPDesc, Limit: summaryTopN}))
	if err != nil {
		return models.Summary{}, err
	}

	return models.Summary{Status: st, Top: top}, nil
}

func (r *CountryRepository) aggregate(ctx context.Context, pipeline mongo.Pipeline) ([]models.Country, error) {
	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to query countries: %w", err)
	}
	defer cursor.Close(ctx)

	out := []models.Country{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("failed to decode countries: %w", err)
	}
	return out, nil
}

// NormalizeQuery validates the sort key and fills pagination defaults.
func NormalizeQuery(q *models.ListQuery) error {
	if !q.Sort.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidSort, q.Sort)
	}
	if q.Skip < 0 {
		return fmt.Errorf("%w: skip must be >= 0", ErrInvalidPagination)
	}
	if q.Limit < 0 {
		return fmt.Errorf("%w: limit must be > 0", ErrInvalidPagination)
	}
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	return nil
}

func listPipeline(q models.ListQuery) mongo.Pipeline {
	pipeline := mongo.Pipeline{{{Key: "$match", Value: listFilter(q)}}}

	switch q.Sort {
	case models.SortGDPAsc, models.SortGDPDesc:
		dir := 1
		if q.Sort == models.SortGDPDesc {
			dir = -1
		}
		// nulls last in both directions
		pipeline = append(pipeline,
			bson.D{{Key: "$addFields", Value: bson.M{
				"_gdp_missing": bson.M{"$cond": bson.A{bson.M{"$isNumber": "$estimated_gdp"}, 0, 1}},
			}}},
			bson.D{{Key: "$sort", Value: bson.D{
				{Key: "_gdp_missing", Value: 1},
				{Key: "estimated_gdp", Value: dir},
				{Key: "_id", Value: 1},
			}}},
			bson.D{{Key: "$unset", Value: "_gdp_missing"}},
		)
	default:
		pipeline = append(pipeline, bson.D{{Key: "$sort", Value: sortSpec(q.Sort)}})
	}

	if q.Skip > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$skip", Value: q.Skip}})
	}
	return append(pipeline, bson.D{{Key: "$limit", Value: q.Limit}})
}

func sortSpec(k models.SortKey) bson.D {
	switch k {
	case models.SortNameAsc:
		return bson.D{{Key: "name_key", Value: 1}, {Key: "_id", Value: 1}}
	case models.SortNameDesc:
		return bson.D{{Key: "name_key", Value: -1}, {Key: "_id", Value: 1}}
	case models.SortPopulationAsc:
		return bson.D{{Key: "population", Value: 1}, {Key: "_id", Value: 1}}
	case models.SortPopulationDesc:
		return bson.D{{Key: "population", Value: -1}, {Key: "_id", Value: 1}}
	}
	return bson.D{{Key: "_id", Value: 1}}
}

func listFilter(q models.ListQuery) bson.M {
	filter := bson.M{}
	if q.Name != "" {
		filter["name"] = containsFold(q.Name)
	}
	if q.Region != "" {
		filter["region"] = containsFold(q.Region)
	}
	if q.Currency != "" {
		filter["currency_code"] = containsFold(q.Currency)
	}
	return filter
}

func containsFold(s string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
}
