package connector

import (
	"database/sql"
	"sync"
)

// persistentDBs keeps the *sql.DB of persistent connections alive across
// Connector lifetimes, keyed by driver and DSN.
var persistentDBs = struct {
	sync.Mutex
	dbs map[string]*sql.DB
}{dbs: map[string]*sql.DB{}}

func persistentKey(driverName, dsn string) string {
	return driverName + "|" + dsn
}

// acquirePersistent returns the registered handle for key, opening and
// registering one if needed. created reports whether this call opened it.
func acquirePersistent(key string, open func() (*sql.DB, error)) (db *sql.DB, created bool, err error) {
	persistentDBs.Lock()
	defer persistentDBs.Unlock()
	if db, ok := persistentDBs.dbs[key]; ok {
		return db, false, nil
	}
	db, err = open()
	if err != nil {
		return nil, false, err
	}
	persistentDBs.dbs[key] = db
	return db, true, nil
}

// releasePersistent forgets key and returns the handle so the caller can close it.
func releasePersistent(key string) *sql.DB {
	persistentDBs.Lock()
	defer persistentDBs.Unlock()
	db := persistentDBs.dbs[key]
	delete(persistentDBs.dbs, key)
	return db
}
