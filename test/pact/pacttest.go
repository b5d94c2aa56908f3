//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const (
	ProviderName = "machine-orders-api"
	ConsumerName = "order-desk"

	StateOrdersBaseline = "orders baseline with reference catalog"
	StateDraftExists    = "draft order with id 1 exists"
	StateOrderMissing   = "no order with id 404"
)

const (
	ExistingOrderID int64 = 1
	MissingOrderID  int64 = 404

	ControlSystemID    int64 = 1
	MachineModelID     int64 = 1
	SoftwareOptionID   int64 = 1
	ControlSystemName        = "Fanuc 31i-B5"
	MachineModelName         = "VMC-500"
	SoftwareOptionName       = "Tool Probing"

	ActorID   = "7"
	ActorName = "Pact Planner"
)

const (
	exampleOrderNumber  = "PACT-0001"
	exampleCustomerName = "Pact Tooling Ltd"
)

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile returns the canonical pact file path for the order desk consumer.
func PactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), ConsumerName+"-"+ProviderName+".json")
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

// ExampleCreateOrderPayload provides stable request data for order creation.
func ExampleCreateOrderPayload() map[string]any {
	return map[string]any{
		"orderNumber":       exampleOrderNumber,
		"customerName":      exampleCustomerName,
		"controlSystemId":   ControlSystemID,
		"machineModelId":    MachineModelID,
		"softwareOptionIds": []int64{SoftwareOptionID},
	}
}

// projectRoot walks up from this file to the workspace root.
func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
