package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ryde/internal/types"
)

// MongoStore keeps riders and drivers in separate collections, like the original users/captains split.
type MongoStore struct {
	riders  *mongo.Collection
	drivers *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{riders: db.Collection("riders"), drivers: db.Collection("drivers")}
}

func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	for _, c := range []*mongo.Collection{s.riders, s.drivers} {
		if _, err := c.Indexes().CreateOne(ctx, idx); err != nil {
			return fmt.Errorf("%w: create %s indexes: %v", ErrStorageUnavailable, c.Name(), err)
		}
	}
	return nil
}

type accountDoc struct {
	ID          primitive.ObjectID `bson:"_id"`
	FullName    FullName           `bson:"fullName"`
	Email       string             `bson:"email"`
	Password    string             `bson:"password"`
	Phone       string             `bson:"phone,omitempty"`
	DeviceToken string             `bson:"deviceToken,omitempty"`
	Status      string             `bson:"status,omitempty"`
	Vehicle     *Vehicle           `bson:"vehicle,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func (s *MongoStore) collection(role types.Role) (*mongo.Collection, error) {
	switch role {
	case types.RoleRider:
		return s.riders, nil
	case types.RoleDriver:
		return s.drivers, nil
	}
	return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
}

func (s *MongoStore) Create(ctx context.Context, a *Account) error {
	c, err := s.collection(a.Role)
	if err != nil {
		return err
	}
	oid, err := a.ID.ObjectID()
	if err != nil {
		return fmt.Errorf("%w: account id: %v", ErrInvalidInput, err)
	}
	doc := accountDoc{
		ID:          oid,
		FullName:    a.Name,
		Email:       a.Email,
		Password:    a.PasswordHash,
		Phone:       a.Phone,
		DeviceToken: a.DeviceToken,
		Status:      string(a.Status),
		Vehicle:     a.Vehicle,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
	_, err = c.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("%w: insert account: %v", ErrStorageUnavailable, err)
	}
	return nil
}

func (s *MongoStore) FindByEmail(ctx context.Context, role types.Role, email string) (*Account, error) {
	return s.findOne(ctx, role, bson.M{"email": email})
}

func (s *MongoStore) FindByID(ctx context.Context, role types.Role, id types.ID) (*Account, error) {
	oid, err := id.ObjectID()
	if err != nil {
		return nil, ErrNotFound
	}
	return s.findOne(ctx, role, bson.M{"_id": oid})
}

func (s *MongoStore) findOne(ctx context.Context, role types.Role, filter bson.M) (*Account, error) {
	c, err := s.collection(role)
	if err != nil {
		return nil, err
	}
	var doc accountDoc
	err = c.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find account: %v", ErrStorageUnavailable, err)
	}
	return &Account{
		ID:           types.ID(doc.ID.Hex()),
		Role:         role,
		Name:         doc.FullName,
		Email:        doc.Email,
		PasswordHash: doc.Password,
		Phone:        doc.Phone,
		DeviceToken:  doc.DeviceToken,
		Vehicle:      doc.Vehicle,
		Status:       DriverStatus(doc.Status),
		CreatedAt:    doc.CreatedAt,
		UpdatedAt:    doc.UpdatedAt,
	}, nil
}
