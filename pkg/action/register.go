package action

// RegisterAll wires every action group of spec.md §4.3 into d. Callers
// (pkg/engine, pkg/gateway) invoke this once at startup, before any
// reasoning loop runs against the dispatcher.
func RegisterAll(d *Dispatcher) {
	RegisterUtterance(d)
	RegisterWorkspace(d)
	RegisterLearning(d)
	RegisterSearch(d)
	RegisterSelfManagement(d)
}
