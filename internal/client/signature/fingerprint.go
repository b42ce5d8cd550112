package signature

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// fingerprintLen длина отпечатка в байтах до hex-кодирования
const fingerprintLen = 8

// Fingerprint возвращает короткий SHA-256 отпечаток data URL подписи.
// Отпечаток детерминирован и позволяет сверить локальную квитанцию
// с полем Firma в таблице, не храня саму подпись.
func Fingerprint(dataURL string) (string, error) {
	if dataURL == "" {
		return "", fmt.Errorf("signature data URL cannot be empty")
	}

	sum := sha256.Sum256([]byte(dataURL))
	return hex.EncodeToString(sum[:fingerprintLen]), nil
}

// MatchFingerprint проверяет, что отпечаток соответствует data URL
func MatchFingerprint(dataURL, fingerprint string) (bool, error) {
	if fingerprint == "" {
		return false, fmt.Errorf("fingerprint cannot be empty")
	}
	computed, err := Fingerprint(dataURL)
	if err != nil {
		return false, err
	}
	return computed == fingerprint, nil
}
