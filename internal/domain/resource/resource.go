package resource

// Resource is a content item (page, video, asset) referenced by events.
type Resource struct {
	ResourceID  int64   `gorm:"column:resource_id;primaryKey;autoIncrement" json:"resource_id"`
	ExternalID  string  `gorm:"column:resource_ds_id;size:256;index;not null" json:"resource_ds_id"`
	DisplayName *string `gorm:"column:resource_display_name;size:128" json:"resource_display_name"`
	// MaxTimeLength is the video length ceiling in seconds, if known.
	MaxTimeLength *int `gorm:"column:max_time_length" json:"max_time_length"`
}

func (Resource) TableName() string { return "Resources" }
