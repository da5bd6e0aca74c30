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

// CreateTask inserts a task and assigns its id and timestamps.
func (s *MongoStore) CreateTask(ctx context.Context, t *store.Task) error {
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now

	doc := taskToDoc(t)
	res, err := s.coll(tasksCollection).InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("insert task: %w", mapMongoErr(err))
	}

	t.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return nil
}

// GetTaskByID retrieves a task by id.
func (s *MongoStore) GetTaskByID(ctx context.Context, id string) (*store.Task, error) {
	objID, err := oid(id)
	if err != nil {
		return nil, err
	}

	var doc taskDoc
	if err := s.coll(tasksCollection).FindOne(ctx, bson.M{"_id": objID}).Decode(&doc); err != nil {
		return nil, mapMongoErr(err)
	}
	return doc.toDomain(), nil
}

// ListTasksByProject returns matching tasks, newest first.
func (s *MongoStore) ListTasksByProject(ctx context.Context, projectID string, f store.TaskFilter) ([]*store.Task, error) {
	filter := bson.M{"project_id": projectID}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.AssigneeID != "" {
		filter["assignee_id"] = f.AssigneeID
	}
	if f.Priority != "" {
		filter["priority"] = f.Priority
	}
	if f.MilestoneID != "" {
		filter["milestone_id"] = f.MilestoneID
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.coll(tasksCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find tasks: %w", err)
	}
	defer cursor.Close(ctx)

	var out []*store.Task
	for cursor.Next(ctx) {
		var doc taskDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode task: %w", err)
		}
		out = append(out, doc.toDomain())
	}
	return out, cursor.Err()
}

// UpdateTask applies a partial update and returns the updated task.
func (s *MongoStore) UpdateTask(ctx context.Context, id string, upd store.TaskUpdate) (*store.Task, error) {
	objID, err := oid(id)
	if err != nil {
		return nil, err
	}

	set := bson.M{"updated_at": time.Now()}
	unset := bson.M{}
	if upd.Title != nil {
		set["title"] = *upd.Title
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.AssigneeID != nil {
		if *upd.AssigneeID == "" {
			unset["assignee_id"] = 1
		} else {
			set["assignee_id"] = *upd.AssigneeID
		}
	}
	if upd.Status != nil {
		set["status"] = *upd.Status
	}
	if upd.Priority != nil {
		set["priority"] = *upd.Priority
	}
	if upd.DueDate != nil {
		set["due_date"] = *upd.DueDate
	}
	if upd.ClearDueDate {
		unset["due_date"] = 1
	}
	if upd.MilestoneID != nil {
		if *upd.MilestoneID == "" {
			unset["milestone_id"] = 1
		} else {
			set["milestone_id"] = *upd.MilestoneID
		}
	}
	if upd.Tags != nil {
		set["tags"] = *upd.Tags
	}
	if upd.DependencyIDs != nil {
		set["dependency_ids"] = *upd.DependencyIDs
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc taskDoc
	err = s.coll(tasksCollection).
		FindOneAndUpdate(ctx, bson.M{"_id": objID}, update, opts).
		Decode(&doc)
	if err != nil {
		return nil, mapMongoErr(err)
	}
	return doc.toDomain(), nil
}

// AddTaskComment appends a comment and returns the updated task.
func (s *MongoStore) AddTaskComment(ctx context.Context, taskID string, c store.Comment) (*store.Task, error) {
	objID, err := oid(taskID)
	if err != nil {
		return nil, err
	}

	entry := commentDoc{UserID: c.UserID, Content: c.Content, CreatedAt: c.CreatedAt}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc taskDoc
	err = s.coll(tasksCollection).
		FindOneAndUpdate(ctx,
			bson.M{"_id": objID},
			bson.M{
				"$push": bson.M{"comments": entry},
				"$set":  bson.M{"updated_at": time.Now()},
			},
			opts).
		Decode(&doc)
	if err != nil {
		return nil, mapMongoErr(err)
	}
	return doc.toDomain(), nil
}

// SetTaskMilestone updates a task's milestone back-reference; empty clears it.
func (s *MongoStore) SetTaskMilestone(ctx context.Context, taskID, milestoneID string) error {
	objID, err := oid(taskID)
	if err != nil {
		return err
	}

	update := bson.M{"$set": bson.M{"milestone_id": milestoneID}}
	if milestoneID == "" {
		update = bson.M{"$unset": bson.M{"milestone_id": 1}}
	}

	res, err := s.coll(tasksCollection).UpdateOne(ctx, bson.M{"_id": objID}, update)
	if err != nil {
		return fmt.Errorf("set task milestone: %w", err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ClearMilestoneFromTasks unsets the back-reference on every task pointing
// at milestoneID.
func (s *MongoStore) ClearMilestoneFromTasks(ctx context.Context, milestoneID string) error {
	_, err := s.coll(tasksCollection).UpdateMany(ctx,
		bson.M{"milestone_id": milestoneID},
		bson.M{"$unset": bson.M{"milestone_id": 1}},
	)
	if err != nil {
		return fmt.Errorf("clear milestone from tasks: %w", err)
	}
	return nil
}

// DeleteTask removes the task document.
func (s *MongoStore) DeleteTask(ctx context.Context, id string) error {
	objID, err := oid(id)
	if err != nil {
		return err
	}

	res, err := s.coll(tasksCollection).DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteTasksByProject removes every task in the project.
func (s *MongoStore) DeleteTasksByProject(ctx context.Context, projectID string) error {
	_, err := s.coll(tasksCollection).DeleteMany(ctx, bson.M{"project_id": projectID})
	if err != nil {
		return fmt.Errorf("delete tasks by project: %w", err)
	}
	return nil
}
