package validator

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/lpforge/bearerauth/core"
)

// ErrMalformedToken is wrapped by every Decode error.
var ErrMalformedToken = errors.New("malformed token")

var segmentEncoding = base64.RawURLEncoding.Strict()

// DecodedToken is a compact JWS split into its parts. Nothing in it is
// trusted until the signature over SignedContent has been verified.
type DecodedToken struct {
	KeyID     string
	Algorithm string
	Claims    core.Claims
	Signature []byte

	// SignedContent is the original "header.payload" text. Signatures are
	// checked against these bytes, never against re-encoded JSON.
	SignedContent []byte
}

type header struct {
	KeyID     any `json:"kid"`
	Algorithm any `json:"alg"`
}

// Decode splits and decodes token without verifying anything.
func Decode(token string) (*DecodedToken, error) {
	if err := checkTokenShape(token); err != nil {
		return nil, err
	}

	lastDot := strings.LastIndexByte(token, '.')
	signedContent := token[:lastDot]
	headerSeg, payloadSeg, _ := strings.Cut(signedContent, ".")
	signatureSeg := token[lastDot+1:]

	kid, alg, err := decodeHeader(headerSeg)
	if err != nil {
		return nil, err
	}

	claims, err := decodePayload(payloadSeg)
	if err != nil {
		return nil, err
	}

	signature, err := segmentEncoding.DecodeString(signatureSeg)
	if err != nil {
		return nil, fmt.Errorf("%w: signature is not base64url: %w", ErrMalformedToken, err)
	}

	return &DecodedToken{
		KeyID:         kid,
		Algorithm:     alg,
		Claims:        claims,
		Signature:     signature,
		SignedContent: []byte(signedContent),
	}, nil
}

func decodeHeader(segment string) (kid, alg string, err error) {
	raw, err := segmentEncoding.DecodeString(segment)
	if err != nil {
		return "", "", fmt.Errorf("%w: header is not base64url: %w", ErrMalformedToken, err)
	}

	var h header
	if err := json.Unmarshal(raw, &h); err != nil {
		return "", "", fmt.Errorf("%w: header is not a JSON object: %w", ErrMalformedToken, err)
	}

	kid, ok := h.KeyID.(string)
	if !ok || kid == "" {
		return "", "", fmt.Errorf("%w: header kid must be a non-empty string", ErrMalformedToken)
	}
	alg, ok = h.Algorithm.(string)
	if !ok || alg == "" {
		return "", "", fmt.Errorf("%w: header alg must be a non-empty string", ErrMalformedToken)
	}

	return kid, alg, nil
}

func decodePayload(segment string) (core.Claims, error) {
	raw, err := segmentEncoding.DecodeString(segment)
	if err != nil {
		return nil, fmt.Errorf("%w: payload is not base64url: %w", ErrMalformedToken, err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var claims core.Claims
	if err := dec.Decode(&claims); err != nil {
		return nil, fmt.Errorf("%w: payload is not a JSON object: %w", ErrMalformedToken, err)
	}
	if claims == nil {
		return nil, fmt.Errorf("%w: payload is not a JSON object", ErrMalformedToken)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after payload", ErrMalformedToken)
	}

	return claims, nil
}
