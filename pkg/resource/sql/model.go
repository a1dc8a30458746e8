package sql

import (
	"time"

	"github.com/google/uuid"
)

// rootID identifies the root container row.
var rootID = uuid.Nil.String()

// Node is one row of the resources table. The root has an empty ParentID.
// UpdatedAt doubles as the modification time.
type Node struct {
	ID        string `gorm:"primaryKey;size:36"`
	ParentID  string `gorm:"size:36;not null;uniqueIndex:idx_resources_parent_name"`
	Name      string `gorm:"size:255;not null;uniqueIndex:idx_resources_parent_name"`
	Kind      int    `gorm:"not null"`
	Data      []byte
	Tag       string `gorm:"size:255"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName returns the table name for Node.
func (Node) TableName() string {
	return "resources"
}
