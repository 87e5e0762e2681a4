package cryptox

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "cryptox")
	if err != nil {
		panic(err)
	}
	SetPepperPath(filepath.Join(dir, "pepper"))

	code := m.Run()
	_ = os.RemoveAll(dir)
	os.Exit(code)
}

func TestHashPasswordFormat(t *testing.T) {
	for _, pw := range []string{"password123", "P@ssw0rd!#$%^&*()", strings.Repeat("a", 100), "", "пароль🔒密码"} {
		hash, err := HashPassword(pw)
		require.NoError(t, err)

		parts := strings.Split(hash, "$")
		require.Len(t, parts, 6)
		require.Equal(t, "argon2id", parts[1])
		require.Equal(t, "v=19", parts[2])
		require.Equal(t, "m=19456,t=2,p=1", parts[3])
		require.NotEmpty(t, parts[4])
		require.NotEmpty(t, parts[5])

		require.NoError(t, VerifyPassword(pw, hash))
	}
}

func TestHashPasswordUsesFreshSalt(t *testing.T) {
	a, err := HashPassword("same")
	require.NoError(t, err)
	b, err := HashPassword("same")
	require.NoError(t, err)

	require.NotEqual(t, a, b)
	require.NoError(t, VerifyPassword("same", a))
	require.NoError(t, VerifyPassword("same", b))
}

func TestVerifyPasswordMismatch(t *testing.T) {
	hash, err := HashPassword("correct-password")
	require.NoError(t, err)

	for _, wrong := range []string{"wrong-password", "Correct-Password", "correct-password ", "", strings.Repeat("x", 10000)} {
		require.ErrorIs(t, VerifyPassword(wrong, hash), ErrPasswordMismatch, wrong)
	}
}

func TestVerifyPasswordInvalidHash(t *testing.T) {
	tests := map[string]string{
		"empty":          "",
		"bcrypt":         "$bcrypt$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		"missing parts":  "$argon2id$v=19$m=19456",
		"bad params":     "$argon2id$v=19$invalid$c2FsdA$aGFzaA",
		"bad salt":       "$argon2id$v=19$m=19456,t=2,p=1$!!!$aGFzaA",
		"bad hash":       "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$!!!",
		"wrong version":  "$argon2id$v=18$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		"plaintext only": "hunter2",
	}

	for name, hash := range tests {
		t.Run(name, func(t *testing.T) {
			require.ErrorIs(t, VerifyPassword("pw", hash), ErrInvalidHash)
		})
	}
}

func TestPepperChangesHash(t *testing.T) {
	hash, err := HashPassword("secret")
	require.NoError(t, err)

	prev, err := currentPepper()
	require.NoError(t, err)
	t.Cleanup(func() { SetPepper(prev) })

	SetPepper("a-different-pepper")
	require.ErrorIs(t, VerifyPassword("secret", hash), ErrPasswordMismatch)
}

func TestLoadPepperPersistsToFile(t *testing.T) {
	prevFile := pepperFile
	prev, err := currentPepper()
	require.NoError(t, err)
	t.Cleanup(func() {
		SetPepperPath(prevFile)
		SetPepper(prev)
	})

	path := filepath.Join(t.TempDir(), "nested", "pepper")
	SetPepperPath(path)
	require.NoError(t, LoadPepper())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Len(t, string(raw), 43)

	// a second load reads the same value back
	SetPepperPath(path)
	got, err := currentPepper()
	require.NoError(t, err)
	require.Equal(t, string(raw), got)
}
