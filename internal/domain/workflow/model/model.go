package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Workflow stores a builder graph as an opaque JSON definition. The
// backend never interprets the definition; validation and execution
// live elsewhere.
type Workflow struct {
	ID          uuid.UUID
	Name        string
	Description string
	Version     string
	OwnerID     uuid.UUID
	IsPublic    bool
	IsTemplate  bool
	Definition  datatypes.JSON
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
