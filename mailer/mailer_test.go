package mailer

import (
	"context"
	"testing"
)

func TestGenerateVerificationCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := GenerateVerificationCode(6)
		if err != nil {
			t.Fatalf("GenerateVerificationCode: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("code %q has length %d, want 6", code, len(code))
		}
		for _, c := range code {
			if c < '0' || c > '9' {
				t.Fatalf("code %q contains non-digit %q", code, c)
			}
		}
		seen[code] = true
	}
	// 50 draws from a million-value space colliding into one value
	// means the generator is broken, not unlucky.
	if len(seen) < 2 {
		t.Fatal("generator produced a single repeated code")
	}
}

func TestGenerateVerificationCodeRejectsBadLength(t *testing.T) {
	for _, digits := range []int{-1, 0, 5, 11} {
		if _, err := GenerateVerificationCode(digits); err == nil {
			t.Errorf("GenerateVerificationCode(%d) should fail", digits)
		}
	}
}

func TestNewSMTPSenderValidation(t *testing.T) {
	cases := []struct {
		name string
		cfg  SMTPConfig
	}{
		{"missing host", SMTPConfig{Port: 587, From: "noreply@example.com"}},
		{"missing port", SMTPConfig{Host: "smtp.example.com", From: "noreply@example.com"}},
		{"missing from", SMTPConfig{Host: "smtp.example.com", Port: 587}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewSMTPSender(tc.cfg); err == nil {
				t.Fatal("NewSMTPSender should fail")
			}
		})
	}

	sender, err := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", Port: 587, From: "noreply@example.com"})
	if err != nil {
		t.Fatalf("NewSMTPSender: %v", err)
	}
	if sender == nil {
		t.Fatal("sender is nil")
	}
}

func TestDiscardHonorsContext(t *testing.T) {
	if err := (Discard{}).SendPasswordResetEmail(context.Background(), "a@b.c", "123456"); err != nil {
		t.Fatalf("Discard: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := (Discard{}).SendPasswordResetEmail(ctx, "a@b.c", "123456"); err == nil {
		t.Fatal("Discard should surface a canceled context")
	}
}
