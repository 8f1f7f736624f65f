package crypto

// This file provides wrapper functions implemented by a separate
// initialization package (internal/cryptoinit) to avoid a circular import:
// crypto/keys imports crypto for the KeyPair interface, so crypto cannot
// import crypto/keys back.

var (
	// generateEd25519KeyPair is the implementation function for Ed25519 key generation
	generateEd25519KeyPair func() (KeyPair, error)

	// generateX25519KeyPair is the implementation function for X25519 key generation
	generateX25519KeyPair func() (KeyPair, error)

	// newMemoryKeyStorage is the implementation function for memory storage creation
	newMemoryKeyStorage func() KeyStorage
)

// SetKeyGenerators sets the key generation functions.
func SetKeyGenerators(ed25519Gen, x25519Gen func() (KeyPair, error)) {
	generateEd25519KeyPair = ed25519Gen
	generateX25519KeyPair = x25519Gen
}

// SetStorageConstructors sets the storage constructor functions.
func SetStorageConstructors(memoryStorage func() KeyStorage) {
	newMemoryKeyStorage = memoryStorage
}

// NewEd25519KeyPair generates a new Ed25519 key pair.
func NewEd25519KeyPair() (KeyPair, error) {
	if generateEd25519KeyPair == nil {
		panic("Ed25519 key generator not initialized; import internal/cryptoinit")
	}
	return generateEd25519KeyPair()
}

// NewX25519KeyPair generates a new X25519 key pair.
func NewX25519KeyPair() (KeyPair, error) {
	if generateX25519KeyPair == nil {
		panic("X25519 key generator not initialized; import internal/cryptoinit")
	}
	return generateX25519KeyPair()
}

// GenerateEd25519KeyPair is an alias for NewEd25519KeyPair.
func GenerateEd25519KeyPair() (KeyPair, error) { return NewEd25519KeyPair() }

// GenerateX25519KeyPair is an alias for NewX25519KeyPair.
func GenerateX25519KeyPair() (KeyPair, error) { return NewX25519KeyPair() }

// NewMemoryKeyStorage creates a new in-memory key storage.
func NewMemoryKeyStorage() KeyStorage {
	if newMemoryKeyStorage == nil {
		panic("memory key storage constructor not initialized; import internal/cryptoinit")
	}
	return newMemoryKeyStorage()
}
