package domain

// User is the directory projection the booking core depends on. Account
// management and auth live outside this service.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}
