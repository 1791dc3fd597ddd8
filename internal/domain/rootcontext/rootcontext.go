// Package rootcontext holds the course and book tables. Both draw their
// surrogate keys from the ContextId sequence table so an id names exactly
// one root context regardless of kind.
package rootcontext

import (
	"time"
)

// FirstContextID is where the shared sequence starts.
const FirstContextID int64 = 1000

// Context holds the columns common to courses and books.
type Context struct {
	ContextID       int64      `gorm:"column:context_id;primaryKey;autoIncrement:false" json:"context_id"`
	ExternalID      *string    `gorm:"column:context_ds_id;size:256;index" json:"context_ds_id"`
	ContextName     *string    `gorm:"column:context_name;size:64;index" json:"context_name"`
	ContextLongName *string    `gorm:"column:context_long_name;size:256" json:"context_long_name"`
	StartDate       *time.Time `gorm:"column:start_date" json:"start_date"`
	EndDate         *time.Time `gorm:"column:end_date" json:"end_date"`
	// Duration is end minus start, in seconds.
	Duration *int64 `gorm:"column:duration" json:"duration"`
}

type Course struct {
	Context
	Term *string `gorm:"column:term;size:32" json:"term"`
	CRN  *string `gorm:"column:crn;size:32" json:"crn"`
	// ParentContextID links a section to the course it was split from.
	ParentContextID *int64 `gorm:"column:parent_context_id;index" json:"parent_context_id"`
}

func (Course) TableName() string { return "Courses" }

type Book struct {
	Context
}

func (Book) TableName() string { return "Books" }

// ContextID is the shared id sequence.
type ContextID struct {
	ContextID int64 `gorm:"column:context_id;primaryKey;autoIncrement" json:"context_id"`
}

func (ContextID) TableName() string { return "ContextId" }
