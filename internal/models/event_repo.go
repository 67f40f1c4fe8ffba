package models

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func (mdb *MongodbRepo) CreateEvent(ctx context.Context, event *Event) (*Event, error) {
	col, err := mdb.GetCollection(ctx, EventsColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}

	if _, err := col.InsertOne(ctx, event); err != nil {
		return nil, fmt.Errorf("error inserting event: %v", err)
	}

	return event, nil
}

// GetEventByID returns (nil, nil) when the event does not exist.
func (mdb *MongodbRepo) GetEventByID(ctx context.Context, id primitive.ObjectID) (*Event, error) {
	col, err := mdb.GetCollection(ctx, EventsColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	var event Event
	if err := col.FindOne(ctx, bson.M{"_id": id}).Decode(&event); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("error finding event: %v", err)
	}
	return &event, nil
}

func (mdb *MongodbRepo) SaveEvent(ctx context.Context, event *Event) error {
	col, err := mdb.GetCollection(ctx, EventsColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %v", err)
	}

	res, err := col.ReplaceOne(ctx, bson.M{"_id": event.ID}, event)
	if err != nil {
		return fmt.Errorf("error saving event: %v", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("no event found to update")
	}
	return nil
}

func (mdb *MongodbRepo) DeleteEvent(ctx context.Context, id primitive.ObjectID) error {
	col, err := mdb.GetCollection(ctx, EventsColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %v", err)
	}

	if _, err := col.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("error deleting event: %v", err)
	}
	return nil
}

func (mdb *MongodbRepo) ListPublicEvents(ctx context.Context, filter EventFilter) ([]*EventView, error) {
	match := bson.M{}
	if filter.Date != nil {
		match["date"] = bson.M{"$gte": *filter.Date}
	}
	if filter.Category != "" {
		match["category"] = bson.M{"$regex": filter.Category, "$options": "i"}
	}
	if filter.Location != "" {
		match["location"] = bson.M{"$regex": filter.Location, "$options": "i"}
	}

	return mdb.aggregateEventViews(ctx, match, bson.D{{Key: "date", Value: 1}})
}

func (mdb *MongodbRepo) ListUserEvents(ctx context.Context, userID primitive.ObjectID) ([]*EventView, error) {
	match := bson.M{"$or": bson.A{
		bson.M{"owner": userID},
		bson.M{"attendees": userID},
	}}
	return mdb.aggregateEventViews(ctx, match, nil)
}

// aggregateEventViews resolves owner and attendee identities with $lookup,
// the aggregation counterpart of populating references.
func (mdb *MongodbRepo) aggregateEventViews(ctx context.Context, match bson.M, sort bson.D) ([]*EventView, error) {
	col, err := mdb.GetCollection(ctx, EventsColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
	}
	if sort != nil {
		pipeline = append(pipeline, bson.D{{Key: "$sort", Value: sort}})
	}
	pipeline = append(pipeline,
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         UsersColName,
			"localField":   "owner",
			"foreignField": "_id",
			"as":           "owner",
		}}},
		bson.D{{Key: "$unwind", Value: bson.M{
			"path":                       "$owner",
			"preserveNullAndEmptyArrays": true,
		}}},
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         UsersColName,
			"localField":   "attendees",
			"foreignField": "_id",
			"as":           "attendees",
		}}},
		bson.D{{Key: "$project", Value: bson.M{
			"title":       1,
			"description": 1,
			"date":        1,
			"location":    1,
			"capacity":    1,
			"category":    1,
			"image":       1,
			"reportCount": 1,
			"isReported":  1,
			"createdAt":   1,
			"owner":       bson.M{"_id": 1, "username": 1, "email": 1},
			"attendees":   bson.M{"_id": 1, "username": 1, "email": 1},
		}}},
	)

	cursor, err := col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("error aggregating events: %v", err)
	}
	defer cursor.Close(ctx)

	views := []*EventView{}
	for cursor.Next(ctx) {
		var v EventView
		if err := cursor.Decode(&v); err != nil {
			return nil, fmt.Errorf("error decoding event: %v", err)
		}
		views = append(views, &v)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %v", err)
	}

	return views, nil
}

// GetEventChat returns the ordered chat list with sender usernames resolved.
// Senders are fetched in one query and mapped in memory to preserve the
// append order of the embedded message array.
func (mdb *MongodbRepo) GetEventChat(ctx context.Context, id primitive.ObjectID) ([]*ChatMessageView, error) {
	event, err := mdb.GetEventByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, nil
	}

	senderIDs := make([]primitive.ObjectID, 0, len(event.ChatMessages))
	seen := map[primitive.ObjectID]bool{}
	for _, m := range event.ChatMessages {
		if !seen[m.Sender] {
			seen[m.Sender] = true
			senderIDs = append(senderIDs, m.Sender)
		}
	}

	senders := map[primitive.ObjectID]*UserRef{}
	if len(senderIDs) > 0 {
		col, err := mdb.GetCollection(ctx, UsersColName)
		if err != nil {
			return nil, fmt.Errorf("error getting collection: %v", err)
		}
		cursor, err := col.Find(ctx, bson.M{"_id": bson.M{"$in": senderIDs}})
		if err != nil {
			return nil, fmt.Errorf("error finding senders: %v", err)
		}
		defer cursor.Close(ctx)
		for cursor.Next(ctx) {
			var ref UserRef
			if err := cursor.Decode(&ref); err != nil {
				return nil, fmt.Errorf("error decoding sender: %v", err)
			}
			ref.Email = ""
			senders[ref.ID] = &ref
		}
		if err := cursor.Err(); err != nil {
			return nil, fmt.Errorf("cursor error: %v", err)
		}
	}

	messages := make([]*ChatMessageView, 0, len(event.ChatMessages))
	for _, m := range event.ChatMessages {
		messages = append(messages, &ChatMessageView{
			ID:        m.ID,
			Sender:    senders[m.Sender],
			Message:   m.Message,
			Timestamp: m.Timestamp,
		})
	}
	return messages, nil
}
