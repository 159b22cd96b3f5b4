// Package encryption seals small secrets with an AEAD cipher.
//
// Keys are derived from a passphrase with Argon2id and a random salt that is
// stored next to the ciphertext:
//
//	salt, err := encryption.NewSalt()
//	enc, err := encryption.New(encryption.DeriveKey(passphrase, salt), encryption.AlgorithmAESGCM)
//	sealed, err := enc.Encrypt(plaintext, []byte("entry-id"))
//	plaintext, err := enc.Decrypt(sealed, []byte("entry-id"))
//
// The associated data binds a ciphertext to its entry, so a sealed value
// copied under another entry fails to decrypt.
package encryption
