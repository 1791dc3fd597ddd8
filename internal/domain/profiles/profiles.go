package profiles

import (
	"github.com/yungbote/analytics-database/internal/domain/mixin"
)

// ProfileView records a user looking at another entity's profile.
type ProfileView struct {
	TargetID int64 `gorm:"column:target_id;primaryKey;autoIncrement:false;index" json:"target_id"`
	mixin.KeyedView
	mixin.TimeLength
}

type EntityProfileView struct{ ProfileView }

func (EntityProfileView) TableName() string { return "EntityProfileViews" }

type EntityProfileActivityView struct{ ProfileView }

func (EntityProfileActivityView) TableName() string { return "EntityProfileActivityViews" }

type EntityProfileMembershipView struct{ ProfileView }

func (EntityProfileMembershipView) TableName() string { return "EntityProfileMembershipViews" }
