package dto

// DailyCodeResponse código diario del usuario autenticado.
type DailyCodeResponse struct {
	UserID string `json:"user_id"`
	Code   string `json:"code"`
	Day    string `json:"day"`
}

// ValidateCodeRequest body para POST /api/codes/validate.
type ValidateCodeRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Code   string `json:"code" validate:"required"`
}

// ValidateCodeResponse resultado de la validación.
type ValidateCodeResponse struct {
	UserID string `json:"user_id"`
	Day    string `json:"day"`
	Valid  bool   `json:"valid"`
}
