package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword bcrypt 哈希；失败返回空串（调用方按空串处理）
func HashPassword(pw string) string {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return ""
	}
	return string(b)
}

// CheckPassword 常量时间比较，hashed 为空直接失败
func CheckPassword(pw, hashed string) bool {
	if hashed == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(pw)) == nil
}
