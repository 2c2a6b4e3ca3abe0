package models

import (
	"time"

	"github.com/hydrospark/backend/internal/domain/customer"
)

// CustomerModel is the persistence model for customers
type CustomerModel struct {
	AggregateModel
	Name         string `gorm:"type:varchar(200);not null"`
	Address      string `gorm:"type:text;not null"`
	LocationID   *int64
	Type         string `gorm:"type:varchar(20);not null"`
	CycleNumber  int    `gorm:"not null"`
	Phone        string `gorm:"type:varchar(50)"`
	BusinessName string `gorm:"type:varchar(200)"`
	FacilityName   string     `gorm:"type:varchar(200)"`
	SkippedThrough *time.Time `gorm:"type:date"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the model to a domain Customer
func (m *CustomerModel) ToDomain() *customer.Customer {
	return &customer.Customer{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Name:              m.Name,
		Address:           m.Address,
		LocationID:        m.LocationID,
		Type:              customer.CustomerType(m.Type),
		CycleNumber:       m.CycleNumber,
		Phone:             m.Phone,
		BusinessName:      m.BusinessName,
		FacilityName:      m.FacilityName,
		SkippedThrough:    utcDay(m.SkippedThrough),
	}
}

// FromDomain populates the model from a domain Customer
func (m *CustomerModel) FromDomain(c *customer.Customer) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.Name = c.Name
	m.Address = c.Address
	m.LocationID = c.LocationID
	m.Type = string(c.Type)
	m.CycleNumber = c.CycleNumber
	m.Phone = c.Phone
	m.BusinessName = c.BusinessName
	m.FacilityName = c.FacilityName
	m.SkippedThrough = c.SkippedThrough
}

// CustomerModelFromDomain creates a persistence model from a domain Customer
func CustomerModelFromDomain(c *customer.Customer) *CustomerModel {
	m := &CustomerModel{}
	m.FromDomain(c)
	return m
}

func utcDay(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}
