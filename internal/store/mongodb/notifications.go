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

// CreateNotification inserts a notification and assigns its id.
func (s *MongoStore) CreateNotification(ctx context.Context, n *store.Notification) error {
	n.CreatedAt = time.Now()

	doc := notificationDoc{
		UserID:    n.UserID,
		ProjectID: n.ProjectID,
		Type:      string(n.Type),
		Title:     n.Title,
		Message:   n.Message,
		Read:      n.Read,
		Meta: notificationMetaDoc{
			TaskID:      n.Meta.TaskID,
			MilestoneID: n.Meta.MilestoneID,
			FromUserID:  n.Meta.FromUserID,
		},
		CreatedAt: n.CreatedAt,
	}
	res, err := s.coll(notificationsCollection).InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("insert notification: %w", mapMongoErr(err))
	}

	n.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return nil
}

// GetNotificationByID retrieves a notification by id.
func (s *MongoStore) GetNotificationByID(ctx context.Context, id string) (*store.Notification, error) {
	objID, err := oid(id)
	if err != nil {
		return nil, err
	}

	var doc notificationDoc
	if err := s.coll(notificationsCollection).FindOne(ctx, bson.M{"_id": objID}).Decode(&doc); err != nil {
		return nil, mapMongoErr(err)
	}
	return doc.toDomain(), nil
}

// ListNotifications returns the user's notifications, newest first.
func (s *MongoStore) ListNotifications(ctx context.Context, userID string, limit int) ([]*store.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := s.coll(notificationsCollection).Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find notifications: %w", err)
	}
	defer cursor.Close(ctx)

	var out []*store.Notification
	for cursor.Next(ctx) {
		var doc notificationDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode notification: %w", err)
		}
		out = append(out, doc.toDomain())
	}
	return out, cursor.Err()
}

// CountUnreadNotifications counts the user's unread notifications.
func (s *MongoStore) CountUnreadNotifications(ctx context.Context, userID string) (int64, error) {
	count, err := s.coll(notificationsCollection).CountDocuments(ctx,
		bson.M{"user_id": userID, "read": false},
	)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// MarkNotificationRead flags one notification as read.
func (s *MongoStore) MarkNotificationRead(ctx context.Context, id string) error {
	objID, err := oid(id)
	if err != nil {
		return err
	}

	res, err := s.coll(notificationsCollection).UpdateOne(ctx,
		bson.M{"_id": objID},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// MarkAllNotificationsRead flags every notification of the user as read.
func (s *MongoStore) MarkAllNotificationsRead(ctx context.Context, userID string) error {
	_, err := s.coll(notificationsCollection).UpdateMany(ctx,
		bson.M{"user_id": userID, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}
