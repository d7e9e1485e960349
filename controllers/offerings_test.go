package controllers

import "testing"

func TestOfferingCloseUpdates(t *testing.T) {
	updates := offeringCloseUpdates()
	if updates["enrollment_status"] != "closed" {
		t.Errorf("enrollment_status = %v, want closed", updates["enrollment_status"])
	}
	published, ok := updates["is_published"].(bool)
	if !ok || published {
		t.Errorf("is_published = %v, want false", updates["is_published"])
	}
}
