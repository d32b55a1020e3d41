package pricing

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultTable(t *testing.T) {
	table := DefaultTable()

	tests := []struct {
		name   string
		kind   string
		region string
		sizeGB float64
		want   float64
	}{
		{"standard disk", "disk/pd-standard", "us-central1", 100, 4.0},
		{"balanced disk", "disk/pd-balanced", "us-central1", 100, 10.0},
		{"ssd disk", "disk/pd-ssd", "us-central1", 100, 17.0},
		{"unknown variant falls back to base", "disk/pd-extreme", "us-central1", 100, 4.0},
		{"static ip flat rate", "static-ip", "us-east1", 0, 7.30},
		{"bucket", "bucket", "us", 500, 10.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := table.PriceFor(tt.kind, tt.region, tt.sizeGB)
			if !ok {
				t.Fatalf("PriceFor(%s) returned no price", tt.kind)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("PriceFor(%s) = %v, want %v", tt.kind, got, tt.want)
			}
		})
	}
}

func TestPriceFor_UnknownKind(t *testing.T) {
	table := DefaultTable()
	if _, ok := table.PriceFor("snapshot", "us-central1", 100); ok {
		t.Error("unknown kind must report no price, not zero")
	}
}

func TestPriceFor_RegionOverride(t *testing.T) {
	table := NewStaticTable(map[string]Rate{
		"disk":             {PerGBMonth: 0.04},
		"europe-west1/disk": {PerGBMonth: 0.05},
	})

	got, ok := table.PriceFor("disk", "europe-west1", 100)
	if !ok || math.Abs(got-5.0) > 1e-9 {
		t.Errorf("regional price = %v, %v; want 5.0", got, ok)
	}

	got, ok = table.PriceFor("disk", "us-central1", 100)
	if !ok || math.Abs(got-4.0) > 1e-9 {
		t.Errorf("fallback price = %v, %v; want 4.0", got, ok)
	}
}

func TestLoad_OverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.yaml")
	content := `
static-ip:
  flat_monthly: 9.99
disk/pd-hyper:
  per_gb_month: 0.25
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	table, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	got, ok := table.PriceFor("static-ip", "", 0)
	if !ok || math.Abs(got-9.99) > 1e-9 {
		t.Errorf("overridden static-ip = %v, %v", got, ok)
	}
	got, ok = table.PriceFor("disk/pd-hyper", "", 10)
	if !ok || math.Abs(got-2.5) > 1e-9 {
		t.Errorf("new kind = %v, %v", got, ok)
	}
	// Defaults not named in the file survive.
	got, ok = table.PriceFor("bucket", "", 100)
	if !ok || math.Abs(got-2.0) > 1e-9 {
		t.Errorf("default bucket = %v, %v", got, ok)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file should error")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("not: [valid: yaml"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("malformed yaml should error")
	}
}
