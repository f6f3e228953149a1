package common

import (
	"errors"
	"net/http"
)

// ErrorResponse 定義 API 錯誤響應結構
type ErrorResponse struct {
	Error   string `json:"error"`             // 使用者可讀訊息
	Code    string `json:"code"`              // 錯誤代碼
	Details string `json:"details,omitempty"` // 詳細信息（僅在開發模式顯示）
}

// CustomError 定義自定義錯誤類型
type CustomError struct {
	Code    string // 錯誤代碼
	Message string // 錯誤信息
	Err     error  // 原始錯誤
	Status  int    // HTTP 狀態碼
}

func (e *CustomError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *CustomError) Unwrap() error {
	return e.Err
}

// WithErr 回傳帶有原始錯誤的副本，預定義錯誤本身不被修改
func (e *CustomError) WithErr(err error) *CustomError {
	clone := *e
	clone.Err = err
	return &clone
}

// Response 轉為 API 錯誤響應，debug 模式附帶原始錯誤
func (e *CustomError) Response(debug bool) ErrorResponse {
	resp := ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
	if debug && e.Err != nil {
		resp.Details = e.Err.Error()
	}
	return resp
}

// NewError 創建新的自定義錯誤
func NewError(code string, message string, status int, err error) *CustomError {
	return &CustomError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// AsCustomError 從錯誤鏈取出 CustomError
func AsCustomError(err error) (*CustomError, bool) {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// ValidationError 表示驗證錯誤
type ValidationError struct {
	message string
}

// Error 實現 error 介面
func (e *ValidationError) Error() string {
	return e.message
}

// NewValidationError 創建新的驗證錯誤
func NewValidationError(message string) error {
	return &ValidationError{
		message: message,
	}
}

// IsValidationError 檢查是否為驗證錯誤
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// 預定義錯誤代碼
const (
	// 客戶端錯誤 (4xx)
	ErrCodeInvalidRequest  = "INVALID_REQUEST"   // 400
	ErrCodeUnauthorized    = "UNAUTHORIZED"      // 401
	ErrCodeForbidden       = "FORBIDDEN"         // 403
	ErrCodeNotFound        = "NOT_FOUND"         // 404
	ErrCodeRequestTimeout  = "REQUEST_TIMEOUT"   // 408
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS" // 429

	// 擷取相關
	ErrCodeNoRecipeFound       = "NO_RECIPE_FOUND"             // 422
	ErrCodeUpstreamUnreachable = "UPSTREAM_UNREACHABLE"        // 422
	ErrCodeMalformedUpstream   = "MALFORMED_UPSTREAM_RESPONSE" // 502

	// 服務器錯誤 (5xx)
	ErrCodeInternalError      = "INTERNAL_ERROR"      // 500
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE" // 503
	ErrCodeGatewayTimeout     = "GATEWAY_TIMEOUT"     // 504
)

// 預定義錯誤
var (
	ErrInvalidRequest     = NewError(ErrCodeInvalidRequest, "Invalid request", http.StatusBadRequest, nil)
	ErrUnauthorized       = NewError(ErrCodeUnauthorized, "Missing user identity", http.StatusUnauthorized, nil)
	ErrForbidden          = NewError(ErrCodeForbidden, "You do not have access to this recipe", http.StatusForbidden, nil)
	ErrRecipeNotFound     = NewError(ErrCodeNotFound, "Recipe not found", http.StatusNotFound, nil)
	ErrIngredientNotFound = NewError(ErrCodeNotFound, "Ingredient not found", http.StatusNotFound, nil)
	ErrInvalidURL         = NewError(ErrCodeInvalidRequest, "Please enter a valid http or https URL", http.StatusBadRequest, nil)
	ErrPayloadTooLarge    = NewError("PAYLOAD_TOO_LARGE", "Request body too large", http.StatusRequestEntityTooLarge, nil)
	ErrRequestTimeout     = NewError(ErrCodeRequestTimeout, "Request timeout", http.StatusRequestTimeout, nil)
	ErrTooManyRequests    = NewError(ErrCodeTooManyRequests, "Too many requests", http.StatusTooManyRequests, nil)

	ErrNoRecipeFound = NewError(ErrCodeNoRecipeFound,
		"This page does not appear to contain a recipe. Try a different URL or enter the recipe manually.",
		http.StatusUnprocessableEntity, nil)
	ErrUpstreamUnreachable = NewError(ErrCodeUpstreamUnreachable,
		"Could not access URL. Please check the URL and try again.",
		http.StatusUnprocessableEntity, nil)
	ErrMalformedUpstream = NewError(ErrCodeMalformedUpstream,
		"Failed to extract recipe",
		http.StatusBadGateway, nil)

	ErrInternalError      = NewError(ErrCodeInternalError, "Internal server error", http.StatusInternalServerError, nil)
	ErrServiceUnavailable = NewError(ErrCodeServiceUnavailable, "Service temporarily unavailable", http.StatusServiceUnavailable, nil)
	ErrLLMNotConfigured   = NewError("LLM_NOT_CONFIGURED", "Voice input is not configured", http.StatusServiceUnavailable, nil)
	ErrGatewayTimeout     = NewError(ErrCodeGatewayTimeout, "Gateway timeout", http.StatusGatewayTimeout, nil)

	// 快取
	ErrCacheMiss = NewError("CACHE_MISS", "緩存未命中", http.StatusNotFound, nil)
	ErrCacheFull = NewError("CACHE_FULL", "緩存已滿", http.StatusServiceUnavailable, nil)

	// 照片
	ErrInvalidImageFormat = NewError("INVALID_IMAGE_FORMAT", "Unsupported photo format", http.StatusBadRequest, nil)
	ErrInvalidImageSize   = NewError("INVALID_IMAGE_SIZE", "Photo exceeds size limit", http.StatusBadRequest, nil)
	ErrPhotoUnreachable   = NewError("PHOTO_UNREACHABLE", "Could not access photo URL", http.StatusBadRequest, nil)
)
