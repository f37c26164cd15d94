package validator

import (
	"fmt"
	"strings"
)

// maxTokenSize bounds the bearer token before any decoding. Cognito ID
// tokens with many groups stay well under a few KB.
const maxTokenSize = 64 << 10

// checkTokenShape rejects tokens that cannot be a compact JWS before any
// allocation proportional to their content: oversized input, a segment count
// other than three and characters outside the base64url alphabet. Padding
// and whitespace are rejected here too.
func checkTokenShape(token string) error {
	if len(token) == 0 {
		return fmt.Errorf("%w: token is empty", ErrMalformedToken)
	}
	if len(token) > maxTokenSize {
		return fmt.Errorf("%w: token exceeds %d bytes", ErrMalformedToken, maxTokenSize)
	}
	if dots := strings.Count(token, "."); dots != 2 {
		return fmt.Errorf("%w: expected 3 segments, got %d", ErrMalformedToken, dots+1)
	}

	for i := 0; i < len(token); i++ {
		if !isTokenByte(token[i]) {
			return fmt.Errorf("%w: invalid character at offset %d", ErrMalformedToken, i)
		}
	}

	return nil
}

func isTokenByte(b byte) bool {
	switch {
	case 'A' <= b && b <= 'Z', 'a' <= b && b <= 'z', '0' <= b && b <= '9':
		return true
	case b == '-', b == '_', b == '.':
		return true
	}
	return false
}
