package repository

import (
	"context"

	"techsparks/internal/cache"
	"techsparks/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoCategoryRepository struct {
	coll *mongo.Collection
}

// NewMongoCategoryRepository creates a CategoryRepository backed by MongoDB.
func NewMongoCategoryRepository(db *mongo.Database) CategoryRepository {
	return &mongoCategoryRepository{coll: db.Collection(categoriesCollection)}
}

func (r *mongoCategoryRepository) Create(ctx context.Context, category *models.Category) error {
	stamp(&category.ID, &category.CreatedAt, &category.UpdatedAt)
	if _, err := r.coll.InsertOne(ctx, category); err != nil {
		return translateError(err)
	}
	cache.Invalidate(ctx, cache.CategoryListKey)
	return nil
}

func (r *mongoCategoryRepository) GetByID(ctx context.Context, id string) (*models.Category, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	var category models.Category
	err := cache.Aside(ctx, "category", cache.CategoryKey(id), &category, cache.CategoryTTL, func() error {
		return mongoNotFound(r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&category))
	})
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *mongoCategoryRepository) GetByName(ctx context.Context, name string) (*models.Category, error) {
	var category models.Category
	if err := r.coll.FindOne(ctx, bson.M{"name": name}).Decode(&category); err != nil {
		return nil, mongoNotFound(err)
	}
	return &category, nil
}

func (r *mongoCategoryRepository) List(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	err := cache.Aside(ctx, "category_list", cache.CategoryListKey, &categories, cache.CategoryTTL, func() error {
		cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
		if err != nil {
			return err
		}
		return cur.All(ctx, &categories)
	})
	return categories, err
}

func (r *mongoCategoryRepository) Update(ctx context.Context, category *models.Category) error {
	stamp(&category.ID, &category.CreatedAt, &category.UpdatedAt)
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": category.ID}, category)
	if err != nil {
		return translateError(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	cache.InvalidateCategory(ctx, category.ID)
	return nil
}

func (r *mongoCategoryRepository) Delete(ctx context.Context, id string) error {
	if err := validateID(id); err != nil {
		return err
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	cache.InvalidateCategory(ctx, id)
	return nil
}
