package identity

import (
	"time"
)

// User is the surrogate identity of a platform entity. A null ExternalID
// marks a deleted entity whose historical events are retained.
type User struct {
	UserID        int64      `gorm:"column:user_id;primaryKey;autoIncrement" json:"user_id"`
	ExternalID    *int64     `gorm:"column:user_ds_id;index" json:"user_ds_id"`
	AllowResearch *bool      `gorm:"column:allow_research" json:"allow_research"`
	Username      *string    `gorm:"column:username;size:64;index" json:"username"`
	Username2     *string    `gorm:"column:username2;size:64" json:"username2"`
	CreateDate    *time.Time `gorm:"column:create_date" json:"create_date"`
}

func (User) TableName() string { return "Users" }

type Session struct {
	SessionID   int64      `gorm:"column:session_id;primaryKey;autoIncrement" json:"session_id"`
	UserID      *int64     `gorm:"column:user_id;index" json:"user_id"`
	IPAddr      *string    `gorm:"column:ip_addr;size:64" json:"ip_addr"`
	UserAgentID *int64     `gorm:"column:user_agent_id;index" json:"user_agent_id"`
	StartTime   *time.Time `gorm:"column:start_time" json:"start_time"`
	EndTime     *time.Time `gorm:"column:end_time" json:"end_time"`
}

func (Session) TableName() string { return "Sessions" }

// Duration is end minus start in whole seconds, or nil while the session is open.
func (s Session) Duration() *int64 {
	if s.StartTime == nil || s.EndTime == nil {
		return nil
	}
	d := int64(s.EndTime.Sub(*s.StartTime) / time.Second)
	return &d
}

type UserAgent struct {
	UserAgentID int64  `gorm:"column:user_agent_id;primaryKey;autoIncrement" json:"user_agent_id"`
	UserAgent   string `gorm:"column:user_agent;size:512;uniqueIndex;not null" json:"user_agent"`
}

func (UserAgent) TableName() string { return "UserAgents" }

type IPGeoLocation struct {
	IPID        int64   `gorm:"column:ip_id;primaryKey;autoIncrement" json:"ip_id"`
	UserID      int64   `gorm:"column:user_id;index;not null" json:"user_id"`
	IPAddr      string  `gorm:"column:ip_addr;size:64;index" json:"ip_addr"`
	CountryCode *string `gorm:"column:country_code;size:8" json:"country_code"`
	LocationID  *int64  `gorm:"column:location_id;index" json:"location_id"`
}

func (IPGeoLocation) TableName() string { return "IpGeoLocation" }

type Location struct {
	LocationID int64   `gorm:"column:location_id;primaryKey;autoIncrement" json:"location_id"`
	Latitude   string  `gorm:"column:latitude;size:64" json:"latitude"`
	Longitude  string  `gorm:"column:longitude;size:64" json:"longitude"`
	City       *string `gorm:"column:city;size:64" json:"city"`
	State      *string `gorm:"column:state;size:64" json:"state"`
	Country    *string `gorm:"column:country;size:128" json:"country"`
}

func (Location) TableName() string { return "Location" }

type FileMimeType struct {
	FileMimeTypeID int64  `gorm:"column:file_mime_type_id;primaryKey;autoIncrement" json:"file_mime_type_id"`
	MimeType       string `gorm:"column:mime_type;size:128;uniqueIndex;not null" json:"mime_type"`
}

func (FileMimeType) TableName() string { return "FileMimeTypes" }
