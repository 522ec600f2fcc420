package api

type ErrorResponse struct {
	Error string `json:"error" example:"something went wrong"`
}

type MessageResponse struct {
	Message string `json:"message" example:"ok"`
}

type HealthResponse struct {
	Status  string            `json:"status" example:"ok"`
	Checks  map[string]string `json:"checks,omitempty"`
	Storage string            `json:"storage,omitempty" example:"postgres"`
}

// FieldErrorResponse is returned for rejected input.
type FieldErrorResponse struct {
	Error   string       `json:"error" example:"validation failed"`
	Details []FieldError `json:"details"`
}

// RejectionResponse is returned when a business rule refuses the request.
type RejectionResponse struct {
	Error string `json:"error" example:"promo code has expired"`
	Code  string `json:"code" example:"expired"`
}

// InsufficientFundsResponse tells the client how much is missing so it can
// offer a recharge.
type InsufficientFundsResponse struct {
	Error     string `json:"error" example:"insufficient funds"`
	Balance   int64  `json:"balance" example:"100"`
	Requested int64  `json:"requested" example:"450"`
	Shortfall int64  `json:"shortfall" example:"350"`
	Recharge  bool   `json:"recharge" example:"true"`
}

type PageResponse[T any] struct {
	Items  []T `json:"items"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}
