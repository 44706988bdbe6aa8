package apperr

// Detail is the structured error object of the versioned API.
type Detail struct {
	Status  int    `json:"status"  example:"404"`
	Code    string `json:"code"    example:"NOT_FOUND"`
	Message string `json:"message" example:"Task not found"`
}

// Body is the versioned error envelope: {"error": {status, code, message}}.
type Body struct {
	Error Detail `json:"error"`
}

// LegacyBody is the flat error envelope of the un-versioned API: {"error": "..."}.
type LegacyBody struct {
	Error string `json:"error" example:"Task not found"`
}

// NewBody builds the versioned envelope for a status and message.
func NewBody(status int, message string) Body {
	return Body{Error: Detail{Status: status, Code: CodeFor(status), Message: message}}
}
