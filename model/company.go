package model

import "time"

const (
	DefaultTimezone          = "America/Chicago"
	DefaultOvertimeThreshold = 40
	DefaultPayPeriodType     = "biweekly"
)

type Company struct {
	ID       string          `gorm:"primaryKey;size:36" json:"id" bson:"_id"`
	Code     string          `gorm:"size:64;not null;uniqueIndex" json:"code" bson:"code"`
	Name     string          `gorm:"size:255;not null" json:"name" bson:"name"`
	Settings CompanySettings `gorm:"embedded;embeddedPrefix:settings_" json:"settings" bson:"settings"`

	CreatedAt time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP;<-:create" json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP on update CURRENT_TIMESTAMP" json:"updatedAt" bson:"updatedAt"`
}

func (Company) TableName() string {
	return "companies"
}

// CompanySettings holds the tenant options an admin can change. Zero values
// mean "not configured" and are replaced by the defaults on read.
type CompanySettings struct {
	Timezone          string  `gorm:"size:64" json:"timezone" bson:"timezone,omitempty"`
	OvertimeThreshold float64 `gorm:"type:decimal(6,2);default:0" json:"overtimeThreshold" bson:"overtimeThreshold,omitempty"`
	PayPeriodType     string  `gorm:"size:32" json:"payPeriodType" bson:"payPeriodType,omitempty"`
}

// WithDefaults returns a copy with unset fields filled in.
func (s CompanySettings) WithDefaults() CompanySettings {
	if s.Timezone == "" {
		s.Timezone = DefaultTimezone
	}
	if s.OvertimeThreshold <= 0 {
		s.OvertimeThreshold = DefaultOvertimeThreshold
	}
	if s.PayPeriodType == "" {
		s.PayPeriodType = DefaultPayPeriodType
	}
	return s
}

// SettingsPatch is a partial update; nil fields are left untouched.
type SettingsPatch struct {
	Name              *string
	Timezone          *string
	OvertimeThreshold *float64
	PayPeriodType     *string
}

func (p SettingsPatch) IsEmpty() bool {
	return p.Name == nil && p.Timezone == nil && p.OvertimeThreshold == nil && p.PayPeriodType == nil
}
