package model_test

import (
	"testing"
	"time"

	"directory-pass/internal/domain/model"
)

func TestPassTransactionID_RoundTrip(t *testing.T) {
	at := time.UnixMilli(1700000000000)
	id := model.NewPassTransactionID("u1", at)

	if id != "ACCESSPASS_u1_1700000000000" {
		t.Fatalf("unexpected id: %s", id)
	}

	userID, ts, ok := model.ParsePassTransactionID(id)
	if !ok {
		t.Fatal("expected id to parse")
	}
	if userID != "u1" {
		t.Errorf("expected user 'u1', got %q", userID)
	}
	if !ts.Equal(at) {
		t.Errorf("expected timestamp %v, got %v", at, ts)
	}
}

func TestPassTransactionID_UserIDWithUnderscores(t *testing.T) {
	id := model.NewPassTransactionID("user_with_underscores", time.UnixMilli(42))
	userID, _, ok := model.ParsePassTransactionID(id)
	if !ok || userID != "user_with_underscores" {
		t.Fatalf("expected underscored user id to survive, got %q ok=%v", userID, ok)
	}
}

func TestPassTransactionID_Foreign(t *testing.T) {
	cases := []string{
		"",
		"ORDER_u1_1700000000000",
		"ACCESSPASS_",
		"ACCESSPASS_u1",
		"ACCESSPASS_u1_",
		"ACCESSPASS__1700000000000",
		"ACCESSPASS_u1_notanumber",
	}
	for _, c := range cases {
		if _, _, ok := model.ParsePassTransactionID(c); ok {
			t.Errorf("expected %q not to parse", c)
		}
	}
}

func TestAccessPass_ActiveAt(t *testing.T) {
	now := time.Now()
	p := &model.AccessPass{Status: model.PassStatusActive, ExpiresAt: now.Add(time.Hour)}

	if !p.ActiveAt(now) {
		t.Error("expected pass to be active before expiry")
	}
	if p.ActiveAt(now.Add(2 * time.Hour)) {
		t.Error("expected pass to be inactive after expiry")
	}

	p.Status = model.PassStatusRevoked
	if p.ActiveAt(now) {
		t.Error("expected revoked pass to be inactive")
	}

	var nilPass *model.AccessPass
	if nilPass.ActiveAt(now) {
		t.Error("expected nil pass to be inactive")
	}
}

func TestAccessPass_Remaining(t *testing.T) {
	now := time.Now()
	p := &model.AccessPass{Status: model.PassStatusActive, ExpiresAt: now.Add(30 * time.Minute)}
	if got := p.Remaining(now); got != 30*time.Minute {
		t.Errorf("expected 30m remaining, got %v", got)
	}
	if got := p.Remaining(now.Add(time.Hour)); got != 0 {
		t.Errorf("expected 0 remaining after expiry, got %v", got)
	}
}
