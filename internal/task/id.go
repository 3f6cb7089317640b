package task

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	minIDLength  = 4
	maxIDLength  = 10
	nonceSize    = 16 // 128 bits of entropy
	hexChunkSize = 4  // 16 bits per base36 chunk
)

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidID reports whether id is safe to use as a record name: letters,
// digits, '_' and '-' only.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}

// GenerateID derives a short task ID from the title, creation time and a
// random nonce. It starts at minIDLength characters and only grows when the
// shorter prefix is already taken.
func GenerateID(title string, createdAt time.Time, existsFn func(string) bool) string {
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}

	h := sha256.New()
	h.Write([]byte(strings.ToLower(title)))
	h.Write([]byte(createdAt.UTC().Format(time.RFC3339Nano)))
	h.Write(nonce)

	digits := hexToBase36(hex.EncodeToString(h.Sum(nil)))
	for length := minIDLength; length <= maxIDLength && length <= len(digits); length++ {
		if candidate := digits[:length]; !existsFn(candidate) {
			return candidate
		}
	}
	return digits[:maxIDLength]
}

func hexToBase36(hexStr string) string {
	var result strings.Builder
	for i := 0; i < len(hexStr); i += hexChunkSize {
		end := min(i+hexChunkSize, len(hexStr))
		val, _ := strconv.ParseUint(hexStr[i:end], 16, 64)
		result.WriteString(strconv.FormatUint(val, 36))
	}
	return result.String()
}
