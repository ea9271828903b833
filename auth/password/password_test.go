package password

import (
	"errors"
	"strings"
	"testing"
	"unicode"

	"golang.org/x/crypto/argon2"
)

// Cheap parameters keep the tests fast.
func newTestHasher() *Argon2Hasher {
	return NewArgon2Hasher(WithMemory(64), WithTime(1), WithThreads(1))
}

func TestArgon2Hasher_RoundTrip(t *testing.T) {
	h := newTestHasher()
	for _, pw := range []string{"Secret123", "", "pässwörd with spaces", strings.Repeat("x", 200)} {
		hash, err := h.Hash(pw)
		if err != nil {
			t.Fatalf("Hash(%q) failed: %v", pw, err)
		}
		if err := h.Verify(pw, hash); err != nil {
			t.Errorf("Verify(%q) failed: %v", pw, err)
		}
	}
}

func TestArgon2Hasher_Mismatch(t *testing.T) {
	h := newTestHasher()
	hash, _ := h.Hash("Secret123")
	if err := h.Verify("Secret124", hash); !errors.Is(err, ErrMismatch) {
		t.Errorf("expected ErrMismatch, got %v", err)
	}
}

func TestArgon2Hasher_FreshSalt(t *testing.T) {
	h := newTestHasher()
	a, _ := h.Hash("Secret123")
	b, _ := h.Hash("Secret123")
	if a == b {
		t.Error("expected distinct hashes for the same password")
	}
}

func TestArgon2Hasher_Format(t *testing.T) {
	hash, _ := newTestHasher().Hash("Secret123")
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=64,t=1,p=1$") {
		t.Errorf("unexpected encoding %q", hash)
	}
}

func TestArgon2Hasher_VerifyUsesEmbeddedParams(t *testing.T) {
	hash, _ := NewArgon2Hasher(WithMemory(128), WithTime(2), WithThreads(2)).Hash("Secret123")
	if err := newTestHasher().Verify("Secret123", hash); err != nil {
		t.Errorf("expected verification with embedded params, got %v", err)
	}
}

func TestArgon2Hasher_MalformedHashFailsClosed(t *testing.T) {
	h := newTestHasher()
	good, _ := h.Hash("Secret123")
	parts := strings.Split(good, "$")

	tests := map[string]string{
		"empty":          "",
		"bcrypt":         "$2a$12$abcdefghijklmnopqrstuv",
		"wrong version":  strings.Join([]string{"", "argon2id", "v=16", parts[3], parts[4], parts[5]}, "$"),
		"bad params":     strings.Join([]string{"", "argon2id", parts[2], "m=x", parts[4], parts[5]}, "$"),
		"huge memory":    strings.Join([]string{"", "argon2id", parts[2], "m=4294967295,t=1,p=1", parts[4], parts[5]}, "$"),
		"bad salt":       strings.Join([]string{"", "argon2id", parts[2], parts[3], "!!!", parts[5]}, "$"),
		"empty key":      strings.Join([]string{"", "argon2id", parts[2], parts[3], parts[4], ""}, "$"),
		"argon2i prefix": strings.Replace(good, "argon2id", "argon2i", 1),
	}
	for name, hash := range tests {
		t.Run(name, func(t *testing.T) {
			var derived int
			h.derive = func(password, salt []byte, time, memory uint32, threads uint8, keyLen uint32) []byte {
				derived++
				if memory != h.memory || time != h.time {
					t.Errorf("derived with m=%d t=%d, want the hasher's parameters", memory, time)
				}
				return argon2.IDKey(password, salt, time, memory, threads, keyLen)
			}
			if err := h.Verify("Secret123", hash); !errors.Is(err, ErrMismatch) {
				t.Errorf("expected ErrMismatch, got %v", err)
			}
			if derived != 1 {
				t.Errorf("expected one key derivation, got %d", derived)
			}
		})
	}
}

func TestConfig_DefaultsAndValidate(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if cfg.Memory != DefaultMemory || cfg.Time != DefaultTime || cfg.Threads != DefaultThreads {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected defaults to validate, got %v", err)
	}
	if err := (&Config{Memory: 64, Time: 0, Threads: 1}).Validate(); err == nil {
		t.Error("expected error for zero time")
	}
}

func TestNewHasher_FromConfig(t *testing.T) {
	h := NewHasher(Config{Memory: 64, Time: 1, Threads: 1})
	hash, err := h.Hash("Secret123")
	if err != nil {
		t.Fatalf("Hash failed: %v", err)
	}
	if !strings.Contains(hash, "m=64,t=1,p=1") {
		t.Errorf("expected configured params in %q", hash)
	}
}

func TestGenerateProviderPassword(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		pw, err := GenerateProviderPassword()
		if err != nil {
			t.Fatalf("GenerateProviderPassword failed: %v", err)
		}
		if len(pw) != providerPasswordLength {
			t.Fatalf("expected length %d, got %d", providerPasswordLength, len(pw))
		}
		var upper, lower, digit bool
		for _, r := range pw {
			switch {
			case unicode.IsUpper(r):
				upper = true
			case unicode.IsLower(r):
				lower = true
			case unicode.IsDigit(r):
				digit = true
			}
		}
		if !upper || !lower || !digit {
			t.Fatalf("password %q misses a required character class", pw)
		}
		if seen[pw] {
			t.Fatalf("duplicate password %q", pw)
		}
		seen[pw] = true
	}
}
