package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (mdb *MongodbRepo) CreateUser(ctx context.Context, user *User) (*User, error) {
	col, err := mdb.GetCollection(ctx, UsersColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}

	if _, err := col.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("user already exists")
		}
		return nil, fmt.Errorf("error inserting user: %v", err)
	}

	return user, nil
}

func (mdb *MongodbRepo) GetUserByID(ctx context.Context, id primitive.ObjectID) (*User, error) {
	return mdb.findUser(ctx, bson.M{"_id": id})
}

func (mdb *MongodbRepo) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return mdb.findUser(ctx, bson.M{"email": email})
}

func (mdb *MongodbRepo) FindByEmailOrUsername(ctx context.Context, email, username string) (*User, error) {
	return mdb.findUser(ctx, bson.M{"$or": bson.A{
		bson.M{"email": email},
		bson.M{"username": username},
	}})
}

func (mdb *MongodbRepo) FindConflicting(ctx context.Context, exclude primitive.ObjectID, username, email string) (*User, error) {
	or := bson.A{}
	if username != "" {
		or = append(or, bson.M{"username": username})
	}
	if email != "" {
		or = append(or, bson.M{"email": email})
	}
	if len(or) == 0 {
		return nil, nil
	}
	return mdb.findUser(ctx, bson.M{
		"_id": bson.M{"$ne": exclude},
		"$or": or,
	})
}

func (mdb *MongodbRepo) GetUserByResetToken(ctx context.Context, token string) (*User, error) {
	return mdb.findUser(ctx, bson.M{
		"resetPasswordToken":   token,
		"resetPasswordExpires": bson.M{"$gt": time.Now()},
	})
}

// findUser returns (nil, nil) when no document matches.
func (mdb *MongodbRepo) findUser(ctx context.Context, filter bson.M) (*User, error) {
	col, err := mdb.GetCollection(ctx, UsersColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	var user User
	if err := col.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("error finding user: %v", err)
	}
	return &user, nil
}

func (mdb *MongodbRepo) SaveUser(ctx context.Context, user *User) error {
	col, err := mdb.GetCollection(ctx, UsersColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %v", err)
	}

	res, err := col.ReplaceOne(ctx, bson.M{"_id": user.ID}, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("user already exists")
		}
		return fmt.Errorf("error saving user: %v", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("no user found to update")
	}
	return nil
}

func (mdb *MongodbRepo) ListUsers(ctx context.Context, limit int64) ([]*User, error) {
	col, err := mdb.GetCollection(ctx, UsersColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(limit)

	cursor, err := col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing users: %v", err)
	}
	defer cursor.Close(ctx)

	users := []*User{}
	for cursor.Next(ctx) {
		var u User
		if err := cursor.Decode(&u); err != nil {
			return nil, fmt.Errorf("error decoding user: %v", err)
		}
		users = append(users, u.Sanitized())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %v", err)
	}

	return users, nil
}

func (mdb *MongodbRepo) GetAdminStats(ctx context.Context) (*AdminStats, error) {
	col, err := mdb.GetCollection(ctx, UsersColName)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %v", err)
	}

	stats := &AdminStats{}

	counts := []struct {
		dst    *int64
		filter bson.M
	}{
		{&stats.TotalUsers, bson.M{}},
		{&stats.ActiveUsers, bson.M{"isActive": true}},
		{&stats.BlockedUsers, bson.M{"isActive": false}},
		{&stats.AdminUsers, bson.M{"role": RoleAdmin}},
		{&stats.RegularUsers, bson.M{"role": RoleUser}},
		{&stats.RecentUsers, bson.M{"createdAt": bson.M{"$gte": time.Now().AddDate(0, 0, -30)}}},
	}
	for _, c := range counts {
		n, err := col.CountDocuments(ctx, c.filter)
		if err != nil {
			return nil, fmt.Errorf("error counting users: %v", err)
		}
		*c.dst = n
	}

	if stats.TotalUsers > 0 {
		stats.ActivityRate = int(float64(stats.ActiveUsers)/float64(stats.TotalUsers)*100 + 0.5)
	}

	return stats, nil
}
