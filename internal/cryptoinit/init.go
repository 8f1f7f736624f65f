// Package cryptoinit wires the crypto package's generator/storage hooks to
// their implementations in crypto/keys and crypto/storage, breaking the
// import cycle those subpackages would otherwise form with crypto itself.
// Blank-import this package once, from main, before using crypto.NewEd25519KeyPair,
// crypto.NewX25519KeyPair, or crypto.NewMemoryKeyStorage.
package cryptoinit

import (
	"github.com/hashrand-project/hashrand/crypto"
	"github.com/hashrand-project/hashrand/crypto/keys"
	"github.com/hashrand-project/hashrand/crypto/storage"
)

func init() {
	crypto.SetKeyGenerators(
		func() (crypto.KeyPair, error) { return keys.GenerateEd25519KeyPair() },
		func() (crypto.KeyPair, error) { return keys.GenerateX25519KeyPair() },
	)

	crypto.SetStorageConstructors(
		func() crypto.KeyStorage { return storage.NewMemoryKeyStorage() },
	)
}
