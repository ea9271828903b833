package jwks

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"
)

// JWK is one JSON Web Key as published by an issuer.
type JWK struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Alg string `json:"alg,omitempty"`
	Use string `json:"use,omitempty"`

	// RSA
	N string `json:"n,omitempty"`
	E string `json:"e,omitempty"`

	// EC
	Crv string `json:"crv,omitempty"`
	X   string `json:"x,omitempty"`
	Y   string `json:"y,omitempty"`
}

// Document is the body of a JWKS endpoint.
type Document struct {
	Keys []JWK `json:"keys"`
}

// KeySet is the signing keys fetched from one JWKS URL.
type KeySet struct {
	URL       string    `json:"url"`
	Keys      []JWK     `json:"keys"`
	FetchedAt time.Time `json:"fetched_at"`
}

// NewKeySet keeps the signing keys of doc. Keys marked for encryption are dropped.
func NewKeySet(url string, doc Document, fetchedAt time.Time) *KeySet {
	keys := make([]JWK, 0, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Use == "sig" || k.Use == "" {
			keys = append(keys, k)
		}
	}
	return &KeySet{URL: url, Keys: keys, FetchedAt: fetchedAt}
}

// Lookup returns the key with the given kid.
func (s *KeySet) Lookup(kid string) (JWK, bool) {
	if s == nil || kid == "" {
		return JWK{}, false
	}
	for _, k := range s.Keys {
		if k.Kid == kid {
			return k, true
		}
	}
	return JWK{}, false
}

// Stale reports whether the set is older than ttl at now.
func (s *KeySet) Stale(now time.Time, ttl time.Duration) bool {
	return s == nil || now.Sub(s.FetchedAt) > ttl
}

// PublicKey converts the key to an *rsa.PublicKey or *ecdsa.PublicKey.
func (k JWK) PublicKey() (crypto.PublicKey, error) {
	switch k.Kty {
	case "RSA":
		return k.rsaPublicKey()
	case "EC":
		return k.ecPublicKey()
	default:
		return nil, fmt.Errorf("unsupported key type %q", k.Kty)
	}
}

// compatible reports whether the key can verify signatures made with alg.
func (k JWK) compatible(alg string) bool {
	if k.Alg != "" && k.Alg != alg {
		return false
	}
	switch {
	case strings.HasPrefix(alg, "RS"):
		return k.Kty == "RSA"
	case strings.HasPrefix(alg, "ES"):
		return k.Kty == "EC"
	}
	return false
}

func (k JWK) rsaPublicKey() (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, fmt.Errorf("decode RSA n: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, fmt.Errorf("decode RSA e: %w", err)
	}
	if len(nBytes) == 0 || len(eBytes) == 0 || len(eBytes) > 4 {
		return nil, errors.New("invalid RSA key parameters")
	}

	e := new(big.Int).SetBytes(eBytes)
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: int(e.Int64()),
	}, nil
}

func (k JWK) ecPublicKey() (*ecdsa.PublicKey, error) {
	var curve elliptic.Curve
	switch k.Crv {
	case "P-256":
		curve = elliptic.P256()
	case "P-384":
		curve = elliptic.P384()
	case "P-521":
		curve = elliptic.P521()
	default:
		return nil, fmt.Errorf("unsupported curve %q", k.Crv)
	}

	xBytes, err := base64.RawURLEncoding.DecodeString(k.X)
	if err != nil {
		return nil, fmt.Errorf("decode EC x: %w", err)
	}
	yBytes, err := base64.RawURLEncoding.DecodeString(k.Y)
	if err != nil {
		return nil, fmt.Errorf("decode EC y: %w", err)
	}

	return &ecdsa.PublicKey{
		Curve: curve,
		X:     new(big.Int).SetBytes(xBytes),
		Y:     new(big.Int).SetBytes(yBytes),
	}, nil
}
