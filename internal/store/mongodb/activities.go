package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/teamsphere/teamsphere-server/internal/store"
)

// CreateActivity inserts an activity feed entry and assigns its id.
func (s *MongoStore) CreateActivity(ctx context.Context, a *store.Activity) error {
	a.CreatedAt = time.Now()

	doc := activityDoc{
		UserID:      a.UserID,
		ProjectID:   a.ProjectID,
		Type:        string(a.Type),
		Description: a.Description,
		Meta: activityMetaDoc{
			TaskID:      a.Meta.TaskID,
			MilestoneID: a.Meta.MilestoneID,
			OldValue:    a.Meta.OldValue,
			NewValue:    a.Meta.NewValue,
		},
		CreatedAt: a.CreatedAt,
	}
	res, err := s.coll(activitiesCollection).InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("insert activity: %w", mapMongoErr(err))
	}

	a.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return nil
}

// ListActivitiesByProject returns the project feed, newest first.
func (s *MongoStore) ListActivitiesByProject(ctx context.Context, projectID string, limit int) ([]*store.Activity, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := s.coll(activitiesCollection).Find(ctx, bson.M{"project_id": projectID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find activities: %w", err)
	}
	defer cursor.Close(ctx)

	var out []*store.Activity
	for cursor.Next(ctx) {
		var doc activityDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode activity: %w", err)
		}
		out = append(out, doc.toDomain())
	}
	return out, cursor.Err()
}

// DeleteActivitiesByProject removes the project's whole feed.
func (s *MongoStore) DeleteActivitiesByProject(ctx context.Context, projectID string) error {
	_, err := s.coll(activitiesCollection).DeleteMany(ctx, bson.M{"project_id": projectID})
	if err != nil {
		return fmt.Errorf("delete activities by project: %w", err)
	}
	return nil
}
