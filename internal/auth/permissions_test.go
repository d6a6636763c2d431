package auth

import "testing"

func TestCanExecute(t *testing.T) {
	tests := []struct {
		name       string
		department string
		process    string
		isAdmin    bool
		want       bool
	}{
		{"admin may execute anything", "Office", "cutting", true, true},
		{"owning department", "Cutting", "cutting", false, true},
		{"other department", "Sewing", "cutting", false, false},
		{"ppic never executes", "PPIC", "cutting", false, false},
		{"ppic admin may execute", "PPIC", "cutting", true, true},
		{"unknown process", "Cutting", "embroidery", false, false},
		{"delivery process", "Shipping", "shipping", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanExecute(tt.department, tt.process, tt.isAdmin); got != tt.want {
				t.Errorf("CanExecute(%q, %q, %v) = %v, want %v",
					tt.department, tt.process, tt.isAdmin, got, tt.want)
			}
		})
	}
}

func TestRejectAndTransferGatesMatchExecute(t *testing.T) {
	cases := []struct {
		department string
		process    string
		isAdmin    bool
	}{
		{"Cutting", "cutting", false},
		{"Sewing", "cutting", false},
		{"PPIC", "sewing", false},
		{"Anything", "qc", true},
	}

	for _, c := range cases {
		execute := CanExecute(c.department, c.process, c.isAdmin)
		if got := CanRecordReject(c.department, c.process, c.isAdmin); got != execute {
			t.Errorf("CanRecordReject(%q, %q, %v) = %v, want %v", c.department, c.process, c.isAdmin, got, execute)
		}
		if got := CanReceiveTransfer(c.department, c.process, c.isAdmin); got != execute {
			t.Errorf("CanReceiveTransfer(%q, %q, %v) = %v, want %v", c.department, c.process, c.isAdmin, got, execute)
		}
	}
}

func TestCanAssignProcess(t *testing.T) {
	tests := []struct {
		name       string
		department string
		isAdmin    bool
		want       bool
	}{
		{"ppic assigns", "PPIC", false, true},
		{"admin assigns", "Cutting", true, true},
		{"execution department cannot assign", "Cutting", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanAssignProcess(tt.department, tt.isAdmin); got != tt.want {
				t.Errorf("CanAssignProcess(%q, %v) = %v, want %v", tt.department, tt.isAdmin, got, tt.want)
			}
		})
	}
}

func TestCanView(t *testing.T) {
	if !CanView("Anyone", false) {
		t.Error("CanView() should always be true")
	}
}

func TestPermissionError_NamesRequiredDepartment(t *testing.T) {
	err := &PermissionError{Operation: "complete", Process: "cutting", RequiredDepartment: "Cutting"}
	if got := err.Error(); got != "permission denied: complete on cutting requires department Cutting" {
		t.Errorf("unexpected error message: %q", got)
	}
}
