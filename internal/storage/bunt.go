package storage

import (
	"encoding/json"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/buntdb"
	"github.com/tidwall/sjson"
)

// Storable is any record that can live in the bunt database.
type Storable interface {
	Key() string
}

type DB struct {
	*buntdb.DB
}

var ErrKeyNotFound = buntdb.ErrNotFound

func NewBunt(path string) *DB {
	db, err := buntdb.Open(path)
	if err != nil {
		panic(err)
	}
	return &DB{DB: db}
}

func (db *DB) Get(s Storable) error {
	var value string
	err := db.View(func(tx *buntdb.Tx) error {
		var err error
		value, err = tx.Get(s.Key())
		return err
	})
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(value), s)
}

func (db *DB) Set(s Storable) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	// stamp the write time so records carry their own freshness
	value, err := sjson.Set(string(raw), "updated", time.Now())
	if err != nil {
		return err
	}
	return db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(s.Key(), value, nil)
		return err
	})
}

func (db *DB) Delete(key string) error {
	return db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(key)
		return err
	})
}

func (db *DB) Close() {
	if err := db.DB.Close(); err != nil {
		log.Errorf("[Bunt] close: %s", err.Error())
	}
}
