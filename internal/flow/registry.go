// Package flow holds the process flow registry: the ordered process lists for
// both phases, the process-to-department map, and next-process resolution.
package flow

import (
	"encoding/json"

	"github.com/mitrajaya/garment-tracker/internal/models"
)

// ProcessDelivered is the sentinel recorded as Order.CurrentProcess once the
// last process in the flow completes.
const ProcessDelivered = "delivered"

// DepartmentPPIC is the coordinating department. It assigns work but never
// executes production steps itself.
const DepartmentPPIC = "PPIC"

// Production phase processes, in execution order.
var productionProcesses = []string{
	"cutting",
	"sewing",
	"finishing",
	"qc",
}

// Delivery phase processes, in execution order.
var deliveryProcesses = []string{
	"packing",
	"shipping",
}

var processDepartments = map[string]string{
	"cutting":   "Cutting",
	"sewing":    "Sewing",
	"finishing": "Finishing",
	"qc":        "QC",
	"packing":   "Packing",
	"shipping":  "Shipping",
}

var deliverySet = func() map[string]bool {
	set := make(map[string]bool, len(deliveryProcesses))
	for _, p := range deliveryProcesses {
		set[p] = true
	}
	return set
}()

// ProductionProcesses returns a copy of the production phase process list.
func ProductionProcesses() []string {
	return append([]string(nil), productionProcesses...)
}

// DeliveryProcesses returns a copy of the delivery phase process list.
func DeliveryProcesses() []string {
	return append([]string(nil), deliveryProcesses...)
}

// DefaultFlow returns the full default sequence: production processes
// followed by delivery processes.
func DefaultFlow() []string {
	flow := make([]string, 0, len(productionProcesses)+len(deliveryProcesses))
	flow = append(flow, productionProcesses...)
	flow = append(flow, deliveryProcesses...)
	return flow
}

// OrderedProcesses resolves an order's configured flow from its serialized
// form. A missing, unparseable or empty value silently falls back to the
// default flow; a corrupt per-order override must never block progression.
func OrderedProcesses(serialized string) []string {
	resolved, _ := ResolveFlow(serialized)
	return resolved
}

// ResolveFlow is OrderedProcesses plus a flag telling the caller whether the
// default flow was substituted, so call sites can log the fallback.
func ResolveFlow(serialized string) ([]string, bool) {
	if serialized == "" {
		return DefaultFlow(), true
	}

	var configured []string
	if err := json.Unmarshal([]byte(serialized), &configured); err != nil {
		return DefaultFlow(), true
	}
	if len(configured) == 0 {
		return DefaultFlow(), true
	}
	for _, p := range configured {
		if p == "" {
			return DefaultFlow(), true
		}
	}
	return configured, false
}

// NextProcess returns the process immediately after current in the flow.
// The second return is false when current is last or not present.
func NextProcess(flow []string, current string) (string, bool) {
	for i, p := range flow {
		if p == current {
			if i+1 < len(flow) {
				return flow[i+1], true
			}
			return "", false
		}
	}
	return "", false
}

// DepartmentFor returns the department responsible for a process.
func DepartmentFor(process string) (string, bool) {
	dept, ok := processDepartments[process]
	return dept, ok
}

// IsKnownProcess returns true if the process name is in the registry.
func IsKnownProcess(process string) bool {
	_, ok := processDepartments[process]
	return ok
}

// PhaseFor returns the phase a process belongs to. Delivery processes map to
// the delivery phase, everything else to production; this is what detects
// the production-to-delivery boundary.
func PhaseFor(process string) models.Phase {
	if deliverySet[process] {
		return models.PhaseDelivery
	}
	return models.PhaseProduction
}

// ProcessesFor returns the set of processes a department executes.
func ProcessesFor(department string) []string {
	var processes []string
	for _, p := range DefaultFlow() {
		if processDepartments[p] == department {
			processes = append(processes, p)
		}
	}
	return processes
}

// AvailableNextProcesses returns the full process universe minus completed
// minus in-progress, in default flow order. Used only by manual assignment,
// never by the automatic transition engine.
func AvailableNextProcesses(completed, inProgress map[string]bool) []string {
	var available []string
	for _, p := range DefaultFlow() {
		if completed[p] || inProgress[p] {
			continue
		}
		available = append(available, p)
	}
	return available
}
