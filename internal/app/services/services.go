// Package services holds the business rules of the API. Services receive the
// caller explicitly and depend on repository interfaces.
package services

import "github.com/alumnisphere/api/internal/app/models"

// Actor identifies the authenticated caller of a service operation
type Actor struct {
	UserID int64
	Role   models.Role
}
