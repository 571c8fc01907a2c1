package inmemdb

import (
	"sync"

	"github.com/google/uuid"

	"github.com/trezcool/tutoria/core/group"
)

type (
	DB struct {
		group *groupTable
	}

	groupTable struct {
		sync.RWMutex
		table map[uuid.UUID]*group.Group
	}
)

func Open() *DB {
	return &DB{
		group: &groupTable{table: make(map[uuid.UUID]*group.Group)},
	}
}
