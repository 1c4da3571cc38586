// Package store defines the persistence interfaces for domain entities.
// Implementations live under internal/platform; callers depend only on
// the interfaces and sentinel errors declared here.
package store
