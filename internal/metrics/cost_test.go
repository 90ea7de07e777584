package metrics

import (
	"math"
	"testing"
)

func TestEstimateCostKnownService(t *testing.T) {
	est := EstimateCost("aws-bedrock-kb", 1000, 10)

	wantQuery := 1000.0 * 30 * 0.0008
	if math.Abs(est.QueryCost-wantQuery) > 1e-9 {
		t.Errorf("Expected query cost %v, got %v", wantQuery, est.QueryCost)
	}
	wantStorage := 10 * 0.025
	if math.Abs(est.StorageCost-wantStorage) > 1e-9 {
		t.Errorf("Expected storage cost %v, got %v", wantStorage, est.StorageCost)
	}
	wantIndex := 10 * 0.05
	if math.Abs(est.IndexCost-wantIndex) > 1e-9 {
		t.Errorf("Expected index cost %v, got %v", wantIndex, est.IndexCost)
	}
	// Monthly total covers recurring spend only.
	if math.Abs(est.EstimatedMonthlyCost-(wantQuery+wantStorage)) > 1e-9 {
		t.Errorf("Monthly cost should exclude index cost, got %v", est.EstimatedMonthlyCost)
	}
}

func TestEstimateCostUnknownServiceUsesDefaults(t *testing.T) {
	est := EstimateCost("mystery-backend", 100, 1)

	wantQuery := 100.0 * 30 * 0.001
	if math.Abs(est.QueryCost-wantQuery) > 1e-9 {
		t.Errorf("Expected default per-query pricing, got %v", est.QueryCost)
	}
	if math.Abs(est.StorageCost-0.02) > 1e-9 {
		t.Errorf("Expected default storage pricing, got %v", est.StorageCost)
	}
	if math.Abs(est.IndexCost-0.04) > 1e-9 {
		t.Errorf("Expected default indexing pricing, got %v", est.IndexCost)
	}
}

func TestEstimateCostLocalBackendIsFree(t *testing.T) {
	est := EstimateCost("simple-store", 100000, 50)
	if est.EstimatedMonthlyCost != 0 {
		t.Errorf("Local backend should cost nothing, got %v", est.EstimatedMonthlyCost)
	}
}
