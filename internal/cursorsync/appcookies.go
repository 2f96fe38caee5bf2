package cursorsync

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha1"
	"database/sql"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"golang.org/x/crypto/pbkdf2"
)

// SessionTokenFromApp pulls the session cookie out of the Cursor
// desktop app's own Chromium cookie store. macOS only: the store key
// lives in the login keychain.
func SessionTokenFromApp(ctx context.Context) (string, error) {
	if runtime.GOOS != "darwin" {
		return "", fmt.Errorf("cursor app cookie extraction is only supported on macOS")
	}

	key, err := appEncryptionKey(ctx)
	if err != nil {
		return "", fmt.Errorf("getting encryption key: %w", err)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	cookiesPath := filepath.Join(home, "Library", "Application Support", "Cursor", "Cookies")
	if _, err := os.Stat(cookiesPath); os.IsNotExist(err) {
		return "", fmt.Errorf("cursor app cookie store not found: %s", cookiesPath)
	}

	// the app keeps the DB locked; query a copy
	src, err := os.ReadFile(cookiesPath)
	if err != nil {
		return "", fmt.Errorf("reading cookie store: %w", err)
	}
	tmpFile, err := os.CreateTemp("", "cursor-cookies-*.db")
	if err != nil {
		return "", fmt.Errorf("creating temp cookie store: %w", err)
	}
	tmpPath := tmpFile.Name()
	tmpFile.Close()
	defer os.Remove(tmpPath)
	if err := os.WriteFile(tmpPath, src, 0o600); err != nil {
		return "", fmt.Errorf("copying cookie store: %w", err)
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro", tmpPath))
	if err != nil {
		return "", fmt.Errorf("opening cookie store: %w", err)
	}
	defer db.Close()

	var encrypted []byte
	err = db.QueryRowContext(ctx,
		`SELECT encrypted_value FROM cookies WHERE host_key LIKE '%cursor.com%' AND name = ?`,
		sessionCookie).Scan(&encrypted)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", fmt.Errorf("no session cookie in the cursor app (not signed in?)")
		}
		return "", fmt.Errorf("querying cookie store: %w", err)
	}

	token, err := decryptAppCookie(encrypted, key)
	if err != nil {
		return "", fmt.Errorf("decrypting session cookie: %w", err)
	}
	return token, nil
}

func appEncryptionKey(ctx context.Context) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "security", "find-generic-password", "-w", "-s", "Cursor Safe Storage", "-a", "Cursor")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("keychain lookup failed (is the Cursor app installed?): %w", err)
	}
	password := strings.TrimSpace(string(out))
	return pbkdf2.Key([]byte(password), []byte("saltysalt"), 1003, 16, sha1.New), nil
}

func decryptAppCookie(encrypted, key []byte) (string, error) {
	if len(encrypted) < 3 {
		return "", fmt.Errorf("encrypted value too short")
	}
	if prefix := string(encrypted[:3]); prefix != "v10" {
		return "", fmt.Errorf("unexpected cookie encryption version %q", prefix)
	}
	ciphertext := encrypted[3:]
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return "", fmt.Errorf("ciphertext not aligned to block size")
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("creating AES cipher: %w", err)
	}

	iv := []byte("                ") // 16 spaces
	mode := cipher.NewCBCDecrypter(block, iv)
	plaintext := make([]byte, len(ciphertext))
	mode.CryptBlocks(plaintext, ciphertext)

	padLen := int(plaintext[len(plaintext)-1])
	if padLen == 0 || padLen > aes.BlockSize || padLen > len(plaintext) {
		return "", fmt.Errorf("invalid PKCS7 padding")
	}
	plaintext = plaintext[:len(plaintext)-padLen]

	// newer Chromium prefixes the value with a host-key hash
	const hashPrefixLen = 32
	if len(plaintext) <= hashPrefixLen {
		return "", fmt.Errorf("decrypted value too short (len=%d)", len(plaintext))
	}
	return string(plaintext[hashPrefixLen:]), nil
}
