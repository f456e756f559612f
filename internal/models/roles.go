package models

// User roles
const (
	RoleAdmin = "admin" // Can edit target routes
	RoleUser  = "user"  // Can compile and play
)

// CanEditTargets checks if a role may create or delete target routes
func CanEditTargets(role string) bool {
	return role == RoleAdmin
}
