package mongodb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/teamsphere/teamsphere-server/internal/store"
)

// CreateUser inserts a new user with a hashed password.
func (s *MongoStore) CreateUser(ctx context.Context, name, email, passwordHash string) (*store.User, error) {
	doc := userDoc{
		Name:         name,
		Email:        strings.ToLower(email),
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}

	res, err := s.coll(usersCollection).InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", mapMongoErr(err))
	}

	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc.toDomain(), nil
}

// GetUserByID retrieves a user by id.
func (s *MongoStore) GetUserByID(ctx context.Context, id string) (*store.User, error) {
	objID, err := oid(id)
	if err != nil {
		return nil, err
	}

	var doc userDoc
	if err := s.coll(usersCollection).FindOne(ctx, bson.M{"_id": objID}).Decode(&doc); err != nil {
		return nil, mapMongoErr(err)
	}
	return doc.toDomain(), nil
}

// GetUserByEmail retrieves a user by email.
func (s *MongoStore) GetUserByEmail(ctx context.Context, email string) (*store.User, error) {
	var doc userDoc
	filter := bson.M{"email": strings.ToLower(email)}
	if err := s.coll(usersCollection).FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, mapMongoErr(err)
	}
	return doc.toDomain(), nil
}

// GetUsersByIDs returns the users that exist among ids, keyed by id.
func (s *MongoStore) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*store.User, error) {
	objIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if objID, err := primitive.ObjectIDFromHex(id); err == nil {
			objIDs = append(objIDs, objID)
		}
	}

	out := make(map[string]*store.User, len(objIDs))
	if len(objIDs) == 0 {
		return out, nil
	}

	cursor, err := s.coll(usersCollection).Find(ctx, bson.M{"_id": bson.M{"$in": objIDs}})
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc userDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode user: %w", err)
		}
		u := doc.toDomain()
		out[u.ID] = u
	}
	return out, cursor.Err()
}

// AddUserProject appends a project id to the user's project list.
func (s *MongoStore) AddUserProject(ctx context.Context, userID, projectID string) error {
	objID, err := oid(userID)
	if err != nil {
		return err
	}

	res, err := s.coll(usersCollection).UpdateOne(ctx,
		bson.M{"_id": objID},
		bson.M{"$addToSet": bson.M{"project_ids": projectID}},
	)
	if err != nil {
		return fmt.Errorf("add user project: %w", err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// RemoveProjectFromUsers pulls projectID from every user's project list.
func (s *MongoStore) RemoveProjectFromUsers(ctx context.Context, projectID string) error {
	_, err := s.coll(usersCollection).UpdateMany(ctx,
		bson.M{"project_ids": projectID},
		bson.M{"$pull": bson.M{"project_ids": projectID}},
	)
	if err != nil {
		return fmt.Errorf("remove project from users: %w", err)
	}
	return nil
}
