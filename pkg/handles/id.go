package handles

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// HandlePrefix tags every handle so it is recognizable in tool output.
const HandlePrefix = "qh_"

const handleEntropyBytes = 16

// NewHandle generates a new handle token from 16 random bytes.
func NewHandle() string {
	b := make([]byte, handleEntropyBytes)
	if _, err := rand.Read(b); err != nil {
		// The OS crypto source failing is an unrecoverable state.
		panic(fmt.Errorf("crypto/rand failed: %w", err))
	}
	return HandlePrefix + hex.EncodeToString(b)
}

// LooksLikeHandle reports whether s has the shape of a generated handle.
// It says nothing about whether the handle exists.
func LooksLikeHandle(s string) bool {
	if !strings.HasPrefix(s, HandlePrefix) {
		return false
	}
	body := s[len(HandlePrefix):]
	if len(body) != handleEntropyBytes*2 {
		return false
	}
	_, err := hex.DecodeString(body)
	return err == nil
}
