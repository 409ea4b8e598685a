package domain

// GenerateRequest asks the content styler to rewrite a message in the
// persona voice for one target platform.
type GenerateRequest struct {
	Message  string `json:"message" validate:"required"`
	Platform string `json:"platform" validate:"omitempty,oneof=twitter telegram"`
}

// GenerateResponse carries the styled content back to the caller.
type GenerateResponse struct {
	StyledContent string `json:"styled_content"`
	Platform      string `json:"platform"`
}
