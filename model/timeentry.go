package model

import "time"

// Location is a GPS fix captured by the device at clock-in or clock-out.
type Location struct {
	Latitude  float64 `json:"latitude" bson:"latitude"`
	Longitude float64 `json:"longitude" bson:"longitude"`
	Accuracy  float64 `json:"accuracy" bson:"accuracy"`
}

type TimeEntry struct {
	ID         string `gorm:"primaryKey;size:36" json:"id" bson:"_id"`
	EmployeeID string `gorm:"size:36;not null;index:idx_time_entries_scope,priority:2;<-:create" json:"employeeId" bson:"employeeId"`
	CompanyID  string `gorm:"size:36;not null;index:idx_time_entries_scope,priority:1;<-:create" json:"companyId" bson:"companyId"`

	ClockIn         time.Time `gorm:"not null;index:idx_time_entries_scope,priority:3;<-:create" json:"clockIn" bson:"clockIn"`
	ClockInLocation *Location `gorm:"type:json;serializer:json;<-:create" json:"clockInLocation" bson:"clockInLocation"`

	ClockOut         *time.Time `json:"clockOut" bson:"clockOut"`
	ClockOutLocation *Location  `gorm:"type:json;serializer:json" json:"clockOutLocation" bson:"clockOutLocation"`
	Duration         *int       `json:"duration" bson:"duration"` // minutes

	AdminNotes *string `gorm:"type:text" json:"adminNotes,omitempty" bson:"adminNotes,omitempty"`

	// OpenEmployeeID mirrors EmployeeID while the entry is open and is NULL once
	// closed; its unique index allows one open entry per employee.
	OpenEmployeeID *string `gorm:"size:36;uniqueIndex:idx_time_entries_open" json:"-" bson:"-"`
	// Open backs the partial unique index of the document store.
	Open bool `gorm:"-" json:"-" bson:"open"`

	CreatedAt time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP;<-:create" json:"createdAt" bson:"createdAt"`
}

func (TimeEntry) TableName() string {
	return "time_entries"
}

// IsOpen reports whether the work session has not been clocked out yet.
func (e *TimeEntry) IsOpen() bool {
	return e.ClockOut == nil
}
