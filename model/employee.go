package model

import (
	"strings"
	"time"
)

const (
	RoleEmployee = "employee"
	RoleAdmin    = "admin"
)

type Employee struct {
	ID             string     `gorm:"primaryKey;size:36" json:"_id" bson:"_id"`
	CompanyID      string     `gorm:"size:36;not null;uniqueIndex:idx_employees_company_number,priority:1" json:"companyId" bson:"companyId"`
	EmployeeNumber string     `gorm:"size:64;not null;uniqueIndex:idx_employees_company_number,priority:2" json:"employeeId" bson:"employeeId"`
	FirstName      string     `gorm:"size:255" json:"firstName" bson:"firstName"`
	LastName       string     `gorm:"size:255" json:"lastName" bson:"lastName"`
	Email          *string    `gorm:"size:255" json:"email" bson:"email,omitempty"`
	Phone          *string    `gorm:"size:64" json:"phone" bson:"phone,omitempty"`
	Role           string     `gorm:"size:32;not null;default:employee" json:"role" bson:"role"`
	Department     *string    `gorm:"size:255" json:"department" bson:"department,omitempty"`
	PinHash        string     `gorm:"size:255;not null" json:"-" bson:"pinHash"`
	Active         bool       `gorm:"not null;default:true" json:"active" bson:"active"`
	LastLogin      *time.Time `json:"lastLogin,omitempty" bson:"lastLogin,omitempty"`

	CreatedAt time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP;<-:create" json:"createdAt" bson:"createdAt"`
}

func (Employee) TableName() string {
	return "employees"
}

func (e *Employee) FullName() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

type Admin struct {
	ID           string     `gorm:"primaryKey;size:36" json:"id" bson:"_id"`
	CompanyID    string     `gorm:"size:36;not null;index" json:"companyId" bson:"companyId"`
	Email        string     `gorm:"size:255;not null;uniqueIndex" json:"email" bson:"email"`
	FirstName    string     `gorm:"size:255" json:"firstName" bson:"firstName"`
	LastName     string     `gorm:"size:255" json:"lastName" bson:"lastName"`
	Role         string     `gorm:"size:32;not null;default:admin" json:"role" bson:"role"`
	PasswordHash string     `gorm:"size:255;not null" json:"-" bson:"passwordHash"`
	Active       bool       `gorm:"not null;default:true" json:"active" bson:"active"`
	LastLogin    *time.Time `json:"lastLogin,omitempty" bson:"lastLogin,omitempty"`

	CreatedAt time.Time `gorm:"type:timestamp;not null;default:CURRENT_TIMESTAMP;<-:create" json:"createdAt" bson:"createdAt"`
}

func (Admin) TableName() string {
	return "admins"
}

// Models lists every table the relational store manages, in creation order.
func Models() []interface{} {
	return []interface{}{
		&Company{},
		&Employee{},
		&Admin{},
		&TimeEntry{},
	}
}

// EmployeePatch is a partial update; nil fields are left untouched.
type EmployeePatch struct {
	FirstName  *string
	LastName   *string
	Email      *string
	Phone      *string
	Department *string
	PinHash    *string
	Active     *bool
}
