package server

// DetectRequest is the body of POST /detect and POST /jobs/detect.
type DetectRequest struct {
	URL string `json:"url" example:"http://secure-login.paypal.com.verify123.xyz/account/update?id=1"`
	// Algorithm defaults to random-forest when empty; unknown names are
	// scored by random-forest.
	Algorithm string `json:"algorithm" example:"knn"`
}

// HealthResponse is returned by GET /healthz.
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

// ErrorResponse is a uniform error payload returned by the API.
type ErrorResponse struct {
	Error string `json:"error" example:"not found"`
}
