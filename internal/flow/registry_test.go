package flow

import (
	"reflect"
	"testing"

	"github.com/mitrajaya/garment-tracker/internal/models"
)

func TestDefaultFlow(t *testing.T) {
	want := []string{"cutting", "sewing", "finishing", "qc", "packing", "shipping"}
	if got := DefaultFlow(); !reflect.DeepEqual(got, want) {
		t.Errorf("DefaultFlow() = %v, want %v", got, want)
	}
}

func TestOrderedProcesses_Configured(t *testing.T) {
	got := OrderedProcesses(`["cutting","sewing","packing"]`)
	want := []string{"cutting", "sewing", "packing"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("OrderedProcesses() = %v, want %v", got, want)
	}
}

func TestOrderedProcesses_FallsBackToDefault(t *testing.T) {
	tests := []struct {
		name       string
		serialized string
	}{
		{"empty", ""},
		{"not json", "cutting,sewing"},
		{"truncated json", `["cutting","sew`},
		{"wrong type", `{"a":1}`},
		{"empty array", `[]`},
		{"empty element", `["cutting",""]`},
	}

	want := DefaultFlow()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, usedDefault := ResolveFlow(tt.serialized)
			if !usedDefault {
				t.Error("ResolveFlow() usedDefault = false, want true")
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("ResolveFlow() = %v, want default %v", got, want)
			}
		})
	}
}

func TestNextProcess(t *testing.T) {
	fl := []string{"cutting", "sewing", "packing"}

	tests := []struct {
		name    string
		current string
		want    string
		wantOK  bool
	}{
		{"first to second", "cutting", "sewing", true},
		{"middle to last", "sewing", "packing", true},
		{"last has no successor", "packing", "", false},
		{"unknown process", "embroidery", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NextProcess(fl, tt.current)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("NextProcess(%q) = (%q, %v), want (%q, %v)", tt.current, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestDepartmentFor(t *testing.T) {
	dept, ok := DepartmentFor("cutting")
	if !ok || dept != "Cutting" {
		t.Errorf("DepartmentFor(cutting) = (%q, %v), want (Cutting, true)", dept, ok)
	}

	if _, ok := DepartmentFor("embroidery"); ok {
		t.Error("DepartmentFor(embroidery) should not resolve")
	}
}

func TestPhaseFor(t *testing.T) {
	tests := []struct {
		process string
		want    models.Phase
	}{
		{"cutting", models.PhaseProduction},
		{"qc", models.PhaseProduction},
		{"packing", models.PhaseDelivery},
		{"shipping", models.PhaseDelivery},
	}

	for _, tt := range tests {
		t.Run(tt.process, func(t *testing.T) {
			if got := PhaseFor(tt.process); got != tt.want {
				t.Errorf("PhaseFor(%q) = %v, want %v", tt.process, got, tt.want)
			}
		})
	}
}

func TestAvailableNextProcesses(t *testing.T) {
	completed := map[string]bool{"cutting": true, "sewing": true}
	inProgress := map[string]bool{"finishing": true}

	got := AvailableNextProcesses(completed, inProgress)
	want := []string{"qc", "packing", "shipping"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("AvailableNextProcesses() = %v, want %v", got, want)
	}
}

func TestAvailableNextProcesses_AllTaken(t *testing.T) {
	completed := map[string]bool{}
	inProgress := map[string]bool{}
	for _, p := range DefaultFlow() {
		completed[p] = true
	}

	if got := AvailableNextProcesses(completed, inProgress); len(got) != 0 {
		t.Errorf("AvailableNextProcesses() = %v, want empty", got)
	}
}
