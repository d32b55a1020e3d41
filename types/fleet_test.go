package types

import (
	"testing"
)

func fleetFixture() *FleetResult {
	return &FleetResult{
		Records: map[string][]ResourceRecord{
			"proj-b": {
				{Service: ServiceCompute, Kind: "disk", ProjectID: "proj-b", Identifier: "disk-1"},
			},
			"proj-a": {
				{Service: ServiceCompute, Kind: "instance", ProjectID: "proj-a", Identifier: "vm-1"},
				{Service: ServiceStorage, Kind: "bucket", ProjectID: "proj-a", Identifier: "bucket-1"},
			},
		},
	}
}

func TestFleetResult_Projects(t *testing.T) {
	result := fleetFixture()
	projects := result.Projects()
	if len(projects) != 2 || projects[0] != "proj-a" || projects[1] != "proj-b" {
		t.Errorf("Projects() = %v, want sorted [proj-a proj-b]", projects)
	}
}

func TestFleetResult_AllRecords(t *testing.T) {
	result := fleetFixture()
	all := result.AllRecords()
	if len(all) != 3 {
		t.Fatalf("AllRecords() returned %d records, want 3", len(all))
	}
	// Project order decides record order.
	if all[0].ProjectID != "proj-a" || all[2].ProjectID != "proj-b" {
		t.Errorf("AllRecords() order = %v", all)
	}
}

func TestFleetResult_RecordsOfKind(t *testing.T) {
	result := fleetFixture()
	disks := result.RecordsOfKind("disk")
	if len(disks) != 1 || disks[0].Identifier != "disk-1" {
		t.Errorf("RecordsOfKind(disk) = %v", disks)
	}
	if got := result.RecordsOfKind("cluster"); len(got) != 0 {
		t.Errorf("RecordsOfKind(cluster) = %v, want empty", got)
	}
}

func TestFailureClass_Retryable(t *testing.T) {
	if !FailureTransient.Retryable() {
		t.Error("transient should be retryable")
	}
	for _, class := range []FailureClass{FailurePermissionDenied, FailureNotFound, FailureCancelled, FailureUnknown} {
		if class.Retryable() {
			t.Errorf("%s should not be retryable", class)
		}
	}
}

func TestScanOutcome_Failed(t *testing.T) {
	ok := ScanOutcome{Scope: ScanScope{ProjectID: "p"}, Attempts: 1}
	if ok.Failed() {
		t.Error("outcome without failure should not be failed")
	}
	bad := ScanOutcome{
		Scope:    ScanScope{ProjectID: "p"},
		Attempts: 3,
		Failure:  &ScanFailure{Class: FailureTransient, Message: "boom"},
	}
	if !bad.Failed() {
		t.Error("outcome with failure should be failed")
	}
}
