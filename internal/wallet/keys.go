package wallet

import "crypto/ed25519"

// Ed25519Key expands a 32 byte seed into a signing key. 64 byte keys are accepted and
// re-expanded from their seed half.
func Ed25519Key(privateKey []byte) (ed25519.PrivateKey, error) {
	switch len(privateKey) {
	case ed25519.SeedSize, ed25519.PrivateKeySize:
		return ed25519.NewKeyFromSeed(privateKey[:ed25519.SeedSize]), nil
	default:
		return nil, ErrInvalidKey
	}
}
