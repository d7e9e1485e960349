package utils

import (
	"testing"

	"unilms_go/models"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if !IsHashedPassword(hash) {
		t.Error("bcrypt output not recognized as hashed")
	}
	if !CheckPassword(hash, "s3cret-pass") {
		t.Error("correct password rejected")
	}
	if CheckPassword(hash, "wrong") {
		t.Error("wrong password accepted")
	}
}

func TestIsHashedPassword(t *testing.T) {
	if IsHashedPassword("plaintext123") {
		t.Error("plaintext misdetected as hash")
	}
	if !IsHashedPassword("$2a$10$abcdefghijklmnopqrstuv") {
		t.Error("$2a$ prefix not detected")
	}
}

func TestConstantTimeEquals(t *testing.T) {
	if !ConstantTimeEquals("abc", "abc") {
		t.Error("equal strings reported unequal")
	}
	if ConstantTimeEquals("abc", "abd") {
		t.Error("unequal strings reported equal")
	}
	if ConstantTimeEquals("abc", "abcd") {
		t.Error("different lengths reported equal")
	}
}

func TestFullName(t *testing.T) {
	p := &models.Person{FirstName: "Aysel", MiddleName: "M", LastName: "Aliyeva"}
	if got := FullName(p); got != "Aysel M Aliyeva" {
		t.Errorf("FullName = %q", got)
	}
	if got := FullName(&models.Person{FirstName: "Tural", LastName: "Hasanov"}); got != "Tural Hasanov" {
		t.Errorf("FullName without middle = %q", got)
	}
	if got := FullName(nil); got != "" {
		t.Errorf("FullName(nil) = %q", got)
	}
}

func TestNewLocalizedField(t *testing.T) {
	text := models.LocalizedText{"en": "Faculty of Science", "az": "Elm fakültəsi"}
	f := NewLocalizedField(text, "az")
	if f.Resolved != "Elm fakültəsi" {
		t.Errorf("Resolved = %q", f.Resolved)
	}
	empty := NewLocalizedField(text, "")
	if empty.Resolved != "" {
		t.Errorf("no-language field resolved to %q", empty.Resolved)
	}
}
