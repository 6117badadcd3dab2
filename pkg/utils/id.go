package utils

import (
	"strings"

	"github.com/google/uuid"
)

// NewID 去掉连字符的 uuid，固定 32 位
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
