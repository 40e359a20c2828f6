package models

// HealthCheckResponse is the body of the health endpoint
type HealthCheckResponse struct {
	Alive bool `json:"alive"`
}
