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

// CreateMilestone inserts a milestone and assigns its id and timestamps.
func (s *MongoStore) CreateMilestone(ctx context.Context, m *store.Milestone) error {
	now := time.Now()
	m.CreatedAt = now
	m.UpdatedAt = now

	doc := milestoneDoc{
		Title:       m.Title,
		Description: m.Description,
		ProjectID:   m.ProjectID,
		DueDate:     m.DueDate,
		CompletedAt: m.CompletedAt,
		TaskIDs:     m.TaskIDs,
		CreatedBy:   m.CreatedBy,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	res, err := s.coll(milestonesCollection).InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("insert milestone: %w", mapMongoErr(err))
	}

	m.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return nil
}

// GetMilestoneByID retrieves a milestone by id.
func (s *MongoStore) GetMilestoneByID(ctx context.Context, id string) (*store.Milestone, error) {
	objID, err := oid(id)
	if err != nil {
		return nil, err
	}

	var doc milestoneDoc
	if err := s.coll(milestonesCollection).FindOne(ctx, bson.M{"_id": objID}).Decode(&doc); err != nil {
		return nil, mapMongoErr(err)
	}
	return doc.toDomain(), nil
}

// ListMilestonesByProject returns milestones ordered by due date ascending.
func (s *MongoStore) ListMilestonesByProject(ctx context.Context, projectID string) ([]*store.Milestone, error) {
	opts := options.Find().SetSort(bson.D{{Key: "due_date", Value: 1}})
	cursor, err := s.coll(milestonesCollection).Find(ctx, bson.M{"project_id": projectID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find milestones: %w", err)
	}
	defer cursor.Close(ctx)

	var out []*store.Milestone
	for cursor.Next(ctx) {
		var doc milestoneDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode milestone: %w", err)
		}
		out = append(out, doc.toDomain())
	}
	return out, cursor.Err()
}

// UpdateMilestone applies a partial update and returns the updated milestone.
func (s *MongoStore) UpdateMilestone(ctx context.Context, id string, upd store.MilestoneUpdate) (*store.Milestone, error) {
	objID, err := oid(id)
	if err != nil {
		return nil, err
	}

	set := bson.M{"updated_at": time.Now()}
	if upd.Title != nil {
		set["title"] = *upd.Title
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.DueDate != nil {
		set["due_date"] = *upd.DueDate
	}
	if upd.CompletedAt != nil {
		set["completed_at"] = *upd.CompletedAt
	}

	update := bson.M{"$set": set}
	if upd.ClearCompleted {
		update["$unset"] = bson.M{"completed_at": 1}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc milestoneDoc
	err = s.coll(milestonesCollection).
		FindOneAndUpdate(ctx, bson.M{"_id": objID}, update, opts).
		Decode(&doc)
	if err != nil {
		return nil, mapMongoErr(err)
	}
	return doc.toDomain(), nil
}

// AddMilestoneTask appends a task reference to the milestone.
func (s *MongoStore) AddMilestoneTask(ctx context.Context, milestoneID, taskID string) error {
	objID, err := oid(milestoneID)
	if err != nil {
		return err
	}

	res, err := s.coll(milestonesCollection).UpdateOne(ctx,
		bson.M{"_id": objID},
		bson.M{
			"$addToSet": bson.M{"task_ids": taskID},
			"$set":      bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return fmt.Errorf("add milestone task: %w", err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// RemoveMilestoneTask pulls a task reference from the milestone.
func (s *MongoStore) RemoveMilestoneTask(ctx context.Context, milestoneID, taskID string) error {
	objID, err := oid(milestoneID)
	if err != nil {
		return err
	}

	res, err := s.coll(milestonesCollection).UpdateOne(ctx,
		bson.M{"_id": objID},
		bson.M{
			"$pull": bson.M{"task_ids": taskID},
			"$set":  bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return fmt.Errorf("remove milestone task: %w", err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteMilestone removes the milestone document.
func (s *MongoStore) DeleteMilestone(ctx context.Context, id string) error {
	objID, err := oid(id)
	if err != nil {
		return err
	}

	res, err := s.coll(milestonesCollection).DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return fmt.Errorf("delete milestone: %w", err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteMilestonesByProject removes every milestone in the project.
func (s *MongoStore) DeleteMilestonesByProject(ctx context.Context, projectID string) error {
	_, err := s.coll(milestonesCollection).DeleteMany(ctx, bson.M{"project_id": projectID})
	if err != nil {
		return fmt.Errorf("delete milestones by project: %w", err)
	}
	return nil
}
