package crypto

import "testing"

type samplePayload struct {
	Zeta  string `json:"zeta"`
	Alpha int    `json:"alpha"`
}

func TestCanonicalJSONSortsKeys(t *testing.T) {
	encoded, err := CanonicalJSON(samplePayload{Zeta: "z", Alpha: 1})
	if err != nil {
		t.Fatalf("canonical encoding failed: %v", err)
	}

	want := `{"alpha":1,"zeta":"z"}`
	if string(encoded) != want {
		t.Errorf("expected %s, got %s", want, encoded)
	}
}

func TestSignAndVerifyCanonical(t *testing.T) {
	kp, err := NewKeyPair()
	if err != nil {
		t.Fatalf("generating key pair: %v", err)
	}

	body := samplePayload{Zeta: "hello", Alpha: 42}
	sig, _, err := SignCanonical(kp, body)
	if err != nil {
		t.Fatalf("signing failed: %v", err)
	}

	ok, err := VerifyCanonical(kp.PublicKey, sig, body)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if !ok {
		t.Error("expected signature to verify")
	}
}

func TestSignatureBindingToBody(t *testing.T) {
	kp, _ := NewKeyPair()

	body := samplePayload{Zeta: "hello", Alpha: 42}
	sig, _, err := SignCanonical(kp, body)
	if err != nil {
		t.Fatalf("signing failed: %v", err)
	}

	tampered := samplePayload{Zeta: "hello", Alpha: 43}
	ok, err := VerifyCanonical(kp.PublicKey, sig, tampered)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if ok {
		t.Error("expected signature verification to fail for a tampered body")
	}
}
