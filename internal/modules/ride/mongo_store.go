// README: Ride store backed by MongoDB; conditional writes via FindOneAndUpdate.
package ride

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

const ridesCollection = "rides"

type MongoStore struct {
	collection *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{collection: db.Collection(ridesCollection)}
}

// EnsureIndexes creates the rider history index.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "rider", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("%w: create ride indexes: %v", ErrStorageUnavailable, err)
	}
	return nil
}

type locationDoc struct {
	Point   types.Point `bson:"point"`
	Address string      `bson:"address,omitempty"`
}

type challengeDoc struct {
	Hash      string    `bson:"hash"`
	ExpiresAt time.Time `bson:"expiresAt"`
}

type rideDoc struct {
	ID          primitive.ObjectID  `bson:"_id"`
	Rider       primitive.ObjectID  `bson:"rider"`
	Driver      *primitive.ObjectID `bson:"driver,omitempty"`
	Pickup      locationDoc         `bson:"pickup"`
	Destination locationDoc         `bson:"destination"`
	VehicleType string              `bson:"vehicleType"`
	Fare        int64               `bson:"fare"`
	Currency    string              `bson:"currency"`
	Status      string              `bson:"status"`
	Distance    float64             `bson:"distance"`
	Duration    float64             `bson:"duration"`
	PaymentID   string              `bson:"paymentId,omitempty"`
	OrderID     string              `bson:"orderId,omitempty"`
	Signature   string              `bson:"signature,omitempty"`
	Version     int                 `bson:"version"`
	OTP         *challengeDoc       `bson:"otp,omitempty"`
	CreatedAt   time.Time           `bson:"createdAt"`
	UpdatedAt   time.Time           `bson:"updatedAt"`
}

func toRideDoc(r *Ride) (*rideDoc, error) {
	id, err := r.ID.ObjectID()
	if err != nil {
		return nil, fmt.Errorf("%w: ride id: %v", ErrInvalidInput, err)
	}
	rider, err := r.RiderID.ObjectID()
	if err != nil {
		return nil, fmt.Errorf("%w: rider id: %v", ErrInvalidInput, err)
	}
	d := &rideDoc{
		ID:          id,
		Rider:       rider,
		Pickup:      locationDoc{Point: r.Pickup.Point, Address: r.Pickup.Address},
		Destination: locationDoc{Point: r.Destination.Point, Address: r.Destination.Address},
		VehicleType: string(r.VehicleType),
		Fare:        r.Fare.Amount,
		Currency:    r.Fare.Currency,
		Status:      string(r.Status),
		Distance:    r.DistanceMeters,
		Duration:    r.DurationSeconds,
		PaymentID:   r.PaymentID,
		OrderID:     r.OrderID,
		Signature:   r.Signature,
		Version:     r.Version,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if r.DriverID != nil {
		drv, err := r.DriverID.ObjectID()
		if err != nil {
			return nil, fmt.Errorf("%w: driver id: %v", ErrInvalidInput, err)
		}
		d.Driver = &drv
	}
	if r.OTP != nil {
		d.OTP = &challengeDoc{Hash: r.OTP.Hash, ExpiresAt: r.OTP.ExpiresAt}
	}
	return d, nil
}

func (d *rideDoc) toRide() *Ride {
	r := &Ride{
		ID:              types.ID(d.ID.Hex()),
		RiderID:         types.ID(d.Rider.Hex()),
		Pickup:          Location{Point: d.Pickup.Point, Address: d.Pickup.Address},
		Destination:     Location{Point: d.Destination.Point, Address: d.Destination.Address},
		VehicleType:     types.VehicleType(d.VehicleType),
		Fare:            types.Money{Amount: d.Fare, Currency: d.Currency},
		Status:          Status(d.Status),
		DistanceMeters:  d.Distance,
		DurationSeconds: d.Duration,
		PaymentID:       d.PaymentID,
		OrderID:         d.OrderID,
		Signature:       d.Signature,
		Version:         d.Version,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
	if d.Driver != nil {
		id := types.ID(d.Driver.Hex())
		r.DriverID = &id
	}
	if d.OTP != nil {
		r.OTP = &Challenge{Hash: d.OTP.Hash, ExpiresAt: d.OTP.ExpiresAt}
	}
	return r
}

func (s *MongoStore) Create(ctx context.Context, r *Ride) error {
	doc, err := toRideDoc(r)
	if err != nil {
		return err
	}
	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("%w: insert ride: %v", ErrStorageUnavailable, err)
	}
	return nil
}

func (s *MongoStore) Get(ctx context.Context, id types.ID) (*Ride, error) {
	oid, err := id.ObjectID()
	if err != nil {
		return nil, ErrNotFound
	}
	var doc rideDoc
	err = s.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get ride: %v", ErrStorageUnavailable, err)
	}
	return doc.toRide(), nil
}

func (s *MongoStore) Transition(ctx context.Context, t Transition) (*Ride, error) {
	set := bson.M{"status": string(t.To), "updatedAt": time.Now().UTC()}
	if t.DriverID != nil {
		drv, err := t.DriverID.ObjectID()
		if err != nil {
			return nil, fmt.Errorf("%w: driver id: %v", ErrInvalidInput, err)
		}
		set["driver"] = drv
	}
	update := bson.M{
		"$set":   set,
		"$inc":   bson.M{"version": 1},
		"$unset": bson.M{"otp": ""},
	}
	return s.compareAndSet(ctx, t.ID, t.From, t.Version, update)
}

func (s *MongoStore) SetChallenge(ctx context.Context, id types.ID, status Status, version int, c Challenge) (*Ride, error) {
	update := bson.M{
		"$set": bson.M{
			"otp":       challengeDoc{Hash: c.Hash, ExpiresAt: c.ExpiresAt},
			"updatedAt": time.Now().UTC(),
		},
		"$inc": bson.M{"version": 1},
	}
	return s.compareAndSet(ctx, id, status, version, update)
}

func (s *MongoStore) compareAndSet(ctx context.Context, id types.ID, status Status, version int, update bson.M) (*Ride, error) {
	oid, err := id.ObjectID()
	if err != nil {
		return nil, ErrNotFound
	}
	filter := bson.M{"_id": oid, "status": string(status), "version": version}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc rideDoc
	err = s.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("%w: update ride: %v", ErrStorageUnavailable, err)
	}
	return doc.toRide(), nil
}

func (s *MongoStore) ListByRider(ctx context.Context, riderID types.ID, limit int) ([]*Ride, error) {
	rider, err := riderID.ObjectID()
	if err != nil {
		return nil, fmt.Errorf("%w: rider id: %v", ErrInvalidInput, err)
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := s.collection.Find(ctx, bson.M{"rider": rider}, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: list rides: %v", ErrStorageUnavailable, err)
	}
	defer cur.Close(ctx)

	var docs []rideDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%w: decode rides: %v", ErrStorageUnavailable, err)
	}
	out := make([]*Ride, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toRide())
	}
	return out, nil
}
