// Package mongo implements the store interface for MongoDB.
package mongo

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mgo "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tarancss/suiadp/lib/logx"
	"github.com/tarancss/suiadp/lib/store"
)

// Databases used: one collection per network in each.
const (
	addrDB = "addr"
	explDB = "expl"
	txDB   = "tx"
)

// Mongo implements a connection to a MongoDB database.
type Mongo struct {
	c *mgo.Client
}

// MongoAddress implements a store address to MongoDB.
type MongoAddress struct {
	ID   primitive.ObjectID `json:"_id" bson:"_id"`
	Name string             `json:"name,omitempty" bson:"name,omitempty"`
	Addr string             `json:"address" bson:"address"`
}

// Address converts a MongoAddress to store.Address type.
func (a MongoAddress) Address() store.Address {
	return store.Address{ID: a.ID[:], Addr: a.Addr, Name: a.Name}
}

// New returns a Mongo client connection to the specified MongoDB database uri.
func New(uri string) (*Mongo, error) {
	c, err := mgo.NewClient(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("cannot connect to mongo DB in %s: %w", uri, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second) //nolint:gomnd // 5 seconds timeout
	defer cancel()

	if err = c.Connect(ctx); err != nil {
		return nil, fmt.Errorf("error connecting to mongo DB: %w", err)
	}

	return &Mongo{c: c}, nil
}

// Close will close a database connection.
func (m *Mongo) Close() error {
	return m.c.Disconnect(context.Background())
}

// AddAddress saves an address if the address does not already exist.
func (m *Mongo) AddAddress(a store.Address, net string) ([]byte, error) {
	var ma MongoAddress

	col := m.c.Database(addrDB).Collection(net)

	err := col.FindOne(context.Background(), bson.M{"address": a.Addr}).Decode(&ma)
	if errors.Is(err, mgo.ErrNoDocuments) {
		res, errIns := col.InsertOne(context.Background(), bson.M{"name": a.Name, "address": a.Addr})
		if errIns != nil {
			return nil, fmt.Errorf("could not insert address in db: %w", errIns)
		}

		return hex.DecodeString(res.InsertedID.(primitive.ObjectID).Hex())
	}

	if err != nil {
		return nil, fmt.Errorf("could not insert address in db: %w", err)
	}

	logx.Info("STORE", "[", net, "] Address was already listened: ", ma.Addr)

	return hex.DecodeString(ma.ID.Hex())
}

// RemoveAddress deletes an address from the database.
func (m *Mongo) RemoveAddress(a store.Address, net string) error {
	res, err := m.c.Database(addrDB).Collection(net).DeleteOne(context.Background(), bson.M{"address": a.Addr})
	if err == nil && res.DeletedCount != 1 {
		err = store.ErrAddrNotFound
	}

	return err
}

// GetAddresses returns the addresses monitored for the networks indicated in the nets slice.
func (m *Mongo) GetAddresses(nets []string) ([]store.ListenedAddresses, error) {
	cols, err := m.c.Database(addrDB).ListCollectionNames(context.Background(), bson.D{})
	if err != nil {
		return nil, fmt.Errorf("error getting mongo DB object: %w", err)
	}

	addrs := []store.ListenedAddresses{}

	for _, col := range cols {
		if len(nets) > 0 && !slices.Contains(nets, col) {
			continue
		}

		addr := store.ListenedAddresses{Net: col}

		docs, err := m.c.Database(addrDB).Collection(col).Find(context.Background(), bson.M{})
		if err != nil {
			return nil, fmt.Errorf("error reading addresses of %s: %w", col, err)
		}

		for docs.Next(context.Background()) {
			var a MongoAddress
			if err = bson.Unmarshal(docs.Current, &a); err == nil {
				addr.Addr = append(addr.Addr, a.Address())
			}
		}

		_ = docs.Close(context.Background())

		addrs = append(addrs, addr)
	}

	return addrs, nil
}

// SaveTransfer inserts or updates a transfer record.
func (m *Mongo) SaveTransfer(net string, t store.Transfer) error {
	_, err := m.c.Database(txDB).Collection(net).ReplaceOne(context.Background(), bson.M{"_id": t.ID}, t,
		options.Replace().SetUpsert(true))

	return err
}

// GetTransfers returns the transfers of a network sent from or to addr, or all of them when addr is empty.
func (m *Mongo) GetTransfers(net, addr string) ([]store.Transfer, error) {
	filter := bson.M{}
	if addr != "" {
		filter = bson.M{"$or": bson.A{bson.M{"from": addr}, bson.M{"to": addr}}}
	}

	cur, err := m.c.Database(txDB).Collection(net).Find(context.Background(), filter,
		options.Find().SetSort(bson.D{{Key: "created", Value: 1}}))
	if err != nil {
		return nil, err
	}

	var ts []store.Transfer
	err = cur.All(context.Background(), &ts)

	return ts, err
}

// LoadExplorer loads from db the NetExplorer type for the indicated network.
func (m *Mongo) LoadExplorer(net string) (ne store.NetExplorer, err error) {
	res := m.c.Database(explDB).Collection(net).FindOne(context.Background(), bson.D{})
	if err = res.Decode(&ne); errors.Is(err, mgo.ErrNoDocuments) {
		err = store.ErrDataNotFound
	}

	return
}

// SaveExplorer saves to db the NetExplorer for the indicated network.
func (m *Mongo) SaveExplorer(net string, ne store.NetExplorer) (err error) {
	_, err = m.c.Database(explDB).Collection(net).UpdateOne(context.Background(),
		bson.D{}, // filter
		bson.D{ // update
			{
				Key: "$set", Value: bson.D{
					{Key: "checkpoint", Value: ne.Checkpoint},
					{Key: "digests", Value: ne.Digests},
					{Key: "idx", Value: ne.Idx},
					{Key: "map", Value: ne.Map},
				},
			},
		},
		options.Update().SetUpsert(true))

	return
}

// DeleteExplorer deletes from db the NetExplorer for the indicated network.
func (m *Mongo) DeleteExplorer(net string) (err error) {
	_, err = m.c.Database(explDB).Collection(net).DeleteOne(context.Background(), bson.D{}, options.Delete())

	return
}
