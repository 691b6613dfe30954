// Package apierror holds the JSON bodies of every 4xx/5xx response.
package apierror

// APIError is the plain envelope: {"detail": "..."}.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError carries one message per offending field.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Error de validacion", Fields: fields}
}

// BloqueoError explains why a container cannot be deleted: one tally per
// blocking kind, e.g. {"cajones": 2, "repuestos": 1}.
type BloqueoError struct {
	Detail   string           `json:"detail"`
	Bloqueos map[string]int64 `json:"bloqueos"`
}

func NewBloqueo(msg string, bloqueos map[string]int64) *BloqueoError {
	return &BloqueoError{Detail: msg, Bloqueos: bloqueos}
}
