package service

import (
	"testing"

	"github.com/mybenefitsvideos/campaign-backend/internal/models"
)

func TestBreaches(t *testing.T) {
	target := models.KPITarget{MetricName: "ga4_sessions", TargetValue: 1000, AlertThreshold: 20}

	// Floor is 800.
	if Breaches(target, 850) {
		t.Fatalf("850 should not breach a floor of 800")
	}
	if Breaches(target, 800) {
		t.Fatalf("landing exactly on the floor should not breach")
	}
	if !Breaches(target, 799) {
		t.Fatalf("799 should breach a floor of 800")
	}
}

func TestAlertThresholdValue(t *testing.T) {
	target := models.KPITarget{TargetValue: 50, AlertThreshold: 10}
	if got := AlertThresholdValue(target); got != 45 {
		t.Fatalf("expected floor 45, got %v", got)
	}
}

func TestBreachesZeroThreshold(t *testing.T) {
	target := models.KPITarget{TargetValue: 100, AlertThreshold: 0}
	if !Breaches(target, 99.9) {
		t.Fatalf("any value below target should breach when threshold is 0")
	}
	if Breaches(target, 100) {
		t.Fatalf("meeting the target should never breach")
	}
}
