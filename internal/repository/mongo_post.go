package repository

import (
	"context"
	"regexp"
	"time"

	"techsparks/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoPostRepository struct {
	posts      *mongo.Collection
	users      *mongo.Collection
	categories *mongo.Collection
	comments   *mongo.Collection
}

// NewMongoPostRepository creates a PostRepository backed by MongoDB.
func NewMongoPostRepository(db *mongo.Database) PostRepository {
	return &mongoPostRepository{
		posts:      db.Collection(postsCollection),
		users:      db.Collection(usersCollection),
		categories: db.Collection(categoriesCollection),
		comments:   db.Collection(commentsCollection),
	}
}

func (r *mongoPostRepository) hydrate(ctx context.Context, posts []models.Post) error {
	authorIDs := make([]string, 0, len(posts))
	categoryIDs := make([]string, 0, len(posts))
	for _, p := range posts {
		authorIDs = append(authorIDs, p.AuthorID)
		categoryIDs = append(categoryIDs, p.CategoryID)
	}
	authors, err := refLookup(ctx, r.users, uniqueIDs(authorIDs))
	if err != nil {
		return err
	}
	categories, err := refLookup(ctx, r.categories, uniqueIDs(categoryIDs))
	if err != nil {
		return err
	}
	for i := range posts {
		posts[i].Author = userRef(authors, posts[i].AuthorID)
		posts[i].Category = categoryRef(categories, posts[i].CategoryID)
	}
	return nil
}

func (r *mongoPostRepository) Create(ctx context.Context, post *models.Post) error {
	stamp(&post.ID, &post.CreatedAt, &post.UpdatedAt)
	if _, err := r.posts.InsertOne(ctx, post); err != nil {
		return translateError(err)
	}
	one := []models.Post{*post}
	if err := r.hydrate(ctx, one); err != nil {
		return err
	}
	*post = one[0]
	return nil
}

func (r *mongoPostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	var post models.Post
	if err := r.posts.FindOne(ctx, bson.M{"_id": id}).Decode(&post); err != nil {
		return nil, mongoNotFound(err)
	}
	one := []models.Post{post}
	if err := r.hydrate(ctx, one); err != nil {
		return nil, err
	}
	return &one[0], nil
}

func (r *mongoPostRepository) Exists(ctx context.Context, id string) (bool, error) {
	if err := validateID(id); err != nil {
		return false, err
	}
	n, err := r.posts.CountDocuments(ctx, bson.M{"_id": id})
	return n > 0, err
}

func (r *mongoPostRepository) filter(q PostQuery) bson.M {
	filter := bson.M{}
	if q.Search != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(q.Search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"title": rx},
			bson.M{"content": rx},
		}
	}
	if q.CategoryID != "" {
		filter["category"] = q.CategoryID
	}
	return filter
}

func (r *mongoPostRepository) List(ctx context.Context, q PostQuery) ([]models.Post, int64, error) {
	if q.CategoryID != "" {
		if err := validateID(q.CategoryID); err != nil {
			return nil, 0, err
		}
	}
	filter := r.filter(q)

	total, err := r.posts.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	field := "createdAt"
	if _, ok := postSortColumns[q.SortBy]; ok {
		field = q.SortBy
	}
	dir := 1
	if q.Descending() {
		dir = -1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: field, Value: dir}, {Key: "_id", Value: dir}}).
		SetSkip(int64(q.Offset)).
		SetLimit(int64(q.Limit))

	cur, err := r.posts.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	posts := []models.Post{}
	if err := cur.All(ctx, &posts); err != nil {
		return nil, 0, err
	}
	if err := r.hydrate(ctx, posts); err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (r *mongoPostRepository) Update(ctx context.Context, post *models.Post) error {
	res, err := r.posts.UpdateOne(ctx, bson.M{"_id": post.ID}, bson.M{"$set": bson.M{
		"title":     post.Title,
		"content":   post.Content,
		"category":  post.CategoryID,
		"image":     post.Image,
		"updatedAt": time.Now().UTC(),
	}})
	if err != nil {
		return translateError(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	fresh, err := r.GetByID(ctx, post.ID)
	if err != nil {
		return err
	}
	*post = *fresh
	return nil
}

// Delete removes the post's comments and then the post. Standalone servers
// have no multi-document transactions, so a crash in between leaves the post.
func (r *mongoPostRepository) Delete(ctx context.Context, id string) error {
	if err := validateID(id); err != nil {
		return err
	}
	if _, err := r.comments.DeleteMany(ctx, bson.M{"post": id}); err != nil {
		return err
	}
	res, err := r.posts.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
