package repository

import (
	"context"
	"time"

	"techsparks/internal/models"
	"techsparks/internal/observability"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoCommentRepository struct {
	comments *mongo.Collection
	users    *mongo.Collection
	log      *observability.RepoLogger
}

// NewMongoCommentRepository creates a CommentRepository backed by MongoDB.
func NewMongoCommentRepository(db *mongo.Database) CommentRepository {
	return &mongoCommentRepository{
		comments: db.Collection(commentsCollection),
		users:    db.Collection(usersCollection),
		log:      observability.NewRepoLogger(commentsCollection),
	}
}

func (r *mongoCommentRepository) hydrateAuthors(ctx context.Context, comments []models.Comment) error {
	ids := make([]string, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.AuthorID)
		for _, reply := range c.Replies {
			ids = append(ids, reply.AuthorID)
		}
	}
	names, err := refLookup(ctx, r.users, uniqueIDs(ids))
	if err != nil {
		return err
	}
	for i := range comments {
		comments[i].Author = userRef(names, comments[i].AuthorID)
		for j := range comments[i].Replies {
			comments[i].Replies[j].Author = userRef(names, comments[i].Replies[j].AuthorID)
		}
	}
	return nil
}

func (r *mongoCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	stamp(&comment.ID, &comment.CreatedAt, &comment.UpdatedAt)
	if _, err := r.comments.InsertOne(ctx, comment); err != nil {
		return translateError(err)
	}
	one := []models.Comment{*comment}
	if err := r.hydrateAuthors(ctx, one); err != nil {
		return err
	}
	*comment = one[0]
	return nil
}

func (r *mongoCommentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	var comment models.Comment
	if err := r.comments.FindOne(ctx, bson.M{"_id": id}).Decode(&comment); err != nil {
		return nil, mongoNotFound(err)
	}
	one := []models.Comment{comment}
	if err := r.hydrateAuthors(ctx, one); err != nil {
		return nil, err
	}
	return &one[0], nil
}

func (r *mongoCommentRepository) page(
	ctx context.Context,
	filter bson.M,
	dir, offset, limit int,
) ([]models.Comment, int64, error) {
	total, err := r.comments.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: dir}, {Key: "_id", Value: dir}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	cur, err := r.comments.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	out := []models.Comment{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *mongoCommentRepository) ListTopLevelWithReplies(
	ctx context.Context,
	postID string,
	offset, limit int,
) ([]models.Comment, int64, error) {
	if err := validateID(postID); err != nil {
		return nil, 0, err
	}
	top, total, err := r.page(ctx, bson.M{"post": postID, "parentComment": nil}, -1, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	if len(top) == 0 {
		return top, total, nil
	}

	parentIDs := make([]string, len(top))
	index := make(map[string]int, len(top))
	for i, c := range top {
		parentIDs[i] = c.ID
		index[c.ID] = i
	}
	cur, err := r.comments.Find(ctx,
		bson.M{"parentComment": bson.M{"$in": parentIDs}},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, 0, err
	}
	var replies []models.Comment
	if err := cur.All(ctx, &replies); err != nil {
		return nil, 0, err
	}
	for _, reply := range replies {
		if i, ok := index[*reply.ParentCommentID]; ok {
			top[i].Replies = append(top[i].Replies, reply)
		}
	}

	if err := r.hydrateAuthors(ctx, top); err != nil {
		return nil, 0, err
	}
	return top, total, nil
}

func (r *mongoCommentRepository) ListReplies(
	ctx context.Context,
	parentID string,
	offset, limit int,
) ([]models.Comment, int64, error) {
	if err := validateID(parentID); err != nil {
		return nil, 0, err
	}
	replies, total, err := r.page(ctx, bson.M{"parentComment": parentID}, 1, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	if err := r.hydrateAuthors(ctx, replies); err != nil {
		return nil, 0, err
	}
	return replies, total, nil
}

func (r *mongoCommentRepository) Update(ctx context.Context, comment *models.Comment) error {
	res, err := r.comments.UpdateOne(ctx, bson.M{"_id": comment.ID}, bson.M{"$set": bson.M{
		"content":   comment.Content,
		"isEdited":  comment.IsEdited,
		"updatedAt": time.Now().UTC(),
	}})
	if err != nil {
		return translateError(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	fresh, err := r.GetByID(ctx, comment.ID)
	if err != nil {
		return err
	}
	*comment = *fresh
	return nil
}

func (r *mongoCommentRepository) DeleteWithReplies(ctx context.Context, id string) (int64, error) {
	if err := validateID(id); err != nil {
		return 0, err
	}
	res, err := r.comments.DeleteMany(ctx, bson.M{"$or": bson.A{
		bson.M{"_id": id},
		bson.M{"parentComment": id},
	}})
	if err != nil {
		r.log.LogError(ctx, err, "delete")
		return 0, err
	}
	r.log.LogDelete(ctx, map[string]interface{}{"comment_id": id, "rows": res.DeletedCount})
	return res.DeletedCount, nil
}
