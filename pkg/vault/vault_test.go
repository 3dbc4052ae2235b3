package vault

import (
	"encoding/base64"
	"encoding/json"
	"reflect"
	"testing"
)

func TestNewRequiresSecret(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatal("expected error for empty secret")
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	v, err := New("site-secret")
	if err != nil {
		t.Fatalf("new vault: %v", err)
	}

	creds := map[string]string{
		"api_key":  "k-123",
		"hotel_id": "H42",
		"endpoint": "https://partner.example.com",
	}

	blob, err := v.Encrypt(creds)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if blob == "" {
		t.Fatal("expected non-empty blob")
	}
	if _, err := base64.StdEncoding.DecodeString(blob); err != nil {
		t.Fatalf("blob is not base64: %v", err)
	}

	got := v.Decrypt(blob)
	if !reflect.DeepEqual(got, creds) {
		t.Fatalf("round trip mismatch: expected %v got %v", creds, got)
	}
}

func TestEncryptProducesFreshIV(t *testing.T) {
	v, err := New("site-secret")
	if err != nil {
		t.Fatalf("new vault: %v", err)
	}

	creds := map[string]string{"api_key": "k"}
	first, err := v.Encrypt(creds)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	second, err := v.Encrypt(creds)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if first == second {
		t.Fatal("expected distinct ciphertexts for the same plaintext")
	}
}

func TestDecryptEmptyMap(t *testing.T) {
	v, err := New("site-secret")
	if err != nil {
		t.Fatalf("new vault: %v", err)
	}

	blob, err := v.Encrypt(nil)
	if err != nil {
		t.Fatalf("encrypt nil: %v", err)
	}
	got := v.Decrypt(blob)
	if len(got) != 0 {
		t.Fatalf("expected empty map, got %v", got)
	}
}

func TestDecryptLegacyPlainJSON(t *testing.T) {
	v, err := New("site-secret")
	if err != nil {
		t.Fatalf("new vault: %v", err)
	}

	legacy := map[string]string{"username": "hotel", "password": "pw"}
	raw, err := json.Marshal(legacy)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got := v.Decrypt(string(raw))
	if !reflect.DeepEqual(got, legacy) {
		t.Fatalf("legacy decode mismatch: expected %v got %v", legacy, got)
	}
}

func TestDecryptGarbageReturnsEmptyMap(t *testing.T) {
	v, err := New("site-secret")
	if err != nil {
		t.Fatalf("new vault: %v", err)
	}

	for _, blob := range []string{"not-base64!!", "AAAA", ""} {
		got := v.Decrypt(blob)
		if got == nil {
			t.Fatalf("expected empty map for %q, got nil", blob)
		}
		if len(got) != 0 {
			t.Fatalf("expected empty map for %q, got %v", blob, got)
		}
	}
}

func TestDecryptWithWrongKeyFallsBack(t *testing.T) {
	a, err := New("secret-a")
	if err != nil {
		t.Fatalf("new vault: %v", err)
	}
	b, err := New("secret-b")
	if err != nil {
		t.Fatalf("new vault: %v", err)
	}

	blob, err := a.Encrypt(map[string]string{"api_key": "k"})
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	got := b.Decrypt(blob)
	if len(got) != 0 {
		t.Fatalf("expected empty map under wrong key, got %v", got)
	}
}
