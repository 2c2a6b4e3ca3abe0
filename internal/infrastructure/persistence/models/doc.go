// Package models contains the GORM persistence models. They are kept apart
// from the domain aggregates and converted with ToDomain/FromDomain so that
// storage tags never leak into the domain layer.
package models
