package enrollments

import (
	"github.com/yungbote/analytics-database/internal/domain/mixin"
)

type CourseCatalogView struct {
	CourseID int64 `gorm:"column:course_id;primaryKey;autoIncrement:false;index" json:"course_id"`
	mixin.KeyedView
	mixin.TimeLength
}

func (CourseCatalogView) TableName() string { return "CourseCatalogViews" }

type EnrollmentType struct {
	TypeID   int64  `gorm:"column:type_id;primaryKey;autoIncrement" json:"type_id"`
	TypeName string `gorm:"column:type_name;size:64;uniqueIndex;not null" json:"type_name"`
}

func (EnrollmentType) TableName() string { return "EnrollmentTypes" }

type CourseEnrollment struct {
	CourseID int64 `gorm:"column:course_id;primaryKey;autoIncrement:false;index" json:"course_id"`
	TypeID   int64 `gorm:"column:type_id;not null;index" json:"type_id"`
	mixin.Rater
}

func (CourseEnrollment) TableName() string { return "CourseEnrollments" }

// CourseDrop allows repeated drops of the same course at distinct times.
type CourseDrop struct {
	CourseID int64 `gorm:"column:course_id;primaryKey;autoIncrement:false;index" json:"course_id"`
	mixin.Moment
}

func (CourseDrop) TableName() string { return "CourseDrops" }
