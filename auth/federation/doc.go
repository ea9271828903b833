// Package federation bridges an identity verified elsewhere (Apple, Google)
// into the federated user pool without storing third-party credentials.
//
// The bridge provisions the user if needed, resets it to a random password
// nobody knows, and signs in through the pool's custom challenge flow. The
// challenge answer is an HMAC nonce that the pool's verify trigger checks
// with the same shared secret:
//
//	nonce := federation.Nonce(secret, "a@example.com", time.Now())
//	err := federation.VerifyNonce(secret, "a@example.com", nonce, time.Now())
package federation
