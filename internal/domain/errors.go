package domain

import "errors"

// 统一业务错误分类：service 层只返回这些（可 wrap），transport 层用 errors.Is 映射响应码
var (
	ErrValidation = errors.New("validation failed") // 400
	ErrAuth       = errors.New("unauthorized")      // 401
	ErrForbidden  = errors.New("forbidden")         // 403
	ErrNotFound   = errors.New("not found")         // 404
	ErrConflict   = errors.New("conflict")          // 409
)
