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

// CreateProject inserts a project and assigns its id and timestamps.
func (s *MongoStore) CreateProject(ctx context.Context, p *store.Project) error {
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now

	doc := projectToDoc(p)
	res, err := s.coll(projectsCollection).InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("insert project: %w", mapMongoErr(err))
	}

	p.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return nil
}

// GetProjectByID retrieves a project by id.
func (s *MongoStore) GetProjectByID(ctx context.Context, id string) (*store.Project, error) {
	objID, err := oid(id)
	if err != nil {
		return nil, err
	}

	var doc projectDoc
	if err := s.coll(projectsCollection).FindOne(ctx, bson.M{"_id": objID}).Decode(&doc); err != nil {
		return nil, mapMongoErr(err)
	}
	return doc.toDomain(), nil
}

// ListProjectsByMember returns projects the user owns or is a member of,
// most recently updated first.
func (s *MongoStore) ListProjectsByMember(ctx context.Context, userID string) ([]*store.Project, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"owner_id": userID},
		bson.M{"members.user_id": userID},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})

	cursor, err := s.coll(projectsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find projects: %w", err)
	}
	defer cursor.Close(ctx)

	var out []*store.Project
	for cursor.Next(ctx) {
		var doc projectDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode project: %w", err)
		}
		out = append(out, doc.toDomain())
	}
	return out, cursor.Err()
}

// UpdateProject applies a partial update and returns the updated project.
func (s *MongoStore) UpdateProject(ctx context.Context, id string, upd store.ProjectUpdate) (*store.Project, error) {
	objID, err := oid(id)
	if err != nil {
		return nil, err
	}

	set := bson.M{"updated_at": time.Now()}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.PrimaryLanguage != nil {
		set["primary_language"] = *upd.PrimaryLanguage
	}
	if upd.Color != nil {
		set["color"] = *upd.Color
	}
	if upd.Notes != nil {
		set["notes"] = *upd.Notes
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc projectDoc
	err = s.coll(projectsCollection).
		FindOneAndUpdate(ctx, bson.M{"_id": objID}, bson.M{"$set": set}, opts).
		Decode(&doc)
	if err != nil {
		return nil, mapMongoErr(err)
	}
	return doc.toDomain(), nil
}

// AddProjectMember appends a membership entry.
func (s *MongoStore) AddProjectMember(ctx context.Context, projectID string, m store.Member) error {
	objID, err := oid(projectID)
	if err != nil {
		return err
	}

	entry := memberDoc{UserID: m.UserID, Role: string(m.Role), JoinedAt: m.JoinedAt}
	res, err := s.coll(projectsCollection).UpdateOne(ctx,
		bson.M{"_id": objID},
		bson.M{
			"$push": bson.M{"members": entry},
			"$set":  bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return fmt.Errorf("add project member: %w", err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// AddProjectTask appends a task reference to the project.
func (s *MongoStore) AddProjectTask(ctx context.Context, projectID, taskID string) error {
	return s.updateProjectRefs(ctx, projectID, "$addToSet", "task_ids", taskID)
}

// RemoveProjectTask pulls a task reference from the project.
func (s *MongoStore) RemoveProjectTask(ctx context.Context, projectID, taskID string) error {
	return s.updateProjectRefs(ctx, projectID, "$pull", "task_ids", taskID)
}

// AddProjectMilestone appends a milestone reference to the project.
func (s *MongoStore) AddProjectMilestone(ctx context.Context, projectID, milestoneID string) error {
	return s.updateProjectRefs(ctx, projectID, "$addToSet", "milestone_ids", milestoneID)
}

// RemoveProjectMilestone pulls a milestone reference from the project.
func (s *MongoStore) RemoveProjectMilestone(ctx context.Context, projectID, milestoneID string) error {
	return s.updateProjectRefs(ctx, projectID, "$pull", "milestone_ids", milestoneID)
}

func (s *MongoStore) updateProjectRefs(ctx context.Context, projectID, op, field, refID string) error {
	objID, err := oid(projectID)
	if err != nil {
		return err
	}

	res, err := s.coll(projectsCollection).UpdateOne(ctx,
		bson.M{"_id": objID},
		bson.M{op: bson.M{field: refID}},
	)
	if err != nil {
		return fmt.Errorf("update project %s: %w", field, err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteProject removes the project document. Cascading deletion of related
// entities is the service layer's job.
func (s *MongoStore) DeleteProject(ctx context.Context, id string) error {
	objID, err := oid(id)
	if err != nil {
		return err
	}

	res, err := s.coll(projectsCollection).DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}
