package cursorsync

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha1"
	"testing"

	"golang.org/x/crypto/pbkdf2"
)

func encryptAppCookie(t *testing.T, value string, key []byte) []byte {
	t.Helper()

	// host-key hash prefix the way newer Chromium stores values
	plaintext := append(bytes.Repeat([]byte{0xAB}, 32), []byte(value)...)
	padLen := aes.BlockSize - len(plaintext)%aes.BlockSize
	plaintext = append(plaintext, bytes.Repeat([]byte{byte(padLen)}, padLen)...)

	block, err := aes.NewCipher(key)
	if err != nil {
		t.Fatal(err)
	}
	ciphertext := make([]byte, len(plaintext))
	cipher.NewCBCEncrypter(block, []byte("                ")).CryptBlocks(ciphertext, plaintext)

	return append([]byte("v10"), ciphertext...)
}

func TestDecryptAppCookie(t *testing.T) {
	key := pbkdf2.Key([]byte("keychain-secret"), []byte("saltysalt"), 1003, 16, sha1.New)
	const token = "user_01HXYZ%3A%3AeyJhbGciOiJIUzI1NiJ9"

	got, err := decryptAppCookie(encryptAppCookie(t, token, key), key)
	if err != nil {
		t.Fatalf("decryptAppCookie: %v", err)
	}
	if got != token {
		t.Errorf("got %q, want %q", got, token)
	}
}

func TestDecryptAppCookieRejectsBadInput(t *testing.T) {
	key := pbkdf2.Key([]byte("keychain-secret"), []byte("saltysalt"), 1003, 16, sha1.New)

	if _, err := decryptAppCookie([]byte("v2"), key); err == nil {
		t.Error("short input accepted")
	}
	if _, err := decryptAppCookie([]byte("v20aaaaaaaaaaaaaaaa"), key); err == nil {
		t.Error("unknown version prefix accepted")
	}
	if _, err := decryptAppCookie([]byte("v10abc"), key); err == nil {
		t.Error("unaligned ciphertext accepted")
	}
}
