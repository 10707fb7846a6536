// Package harness runs scenario files against built-in apps and checks
// what the engine did.
//
// A scenario names an app, a sequence of events to emit, and assertions
// over the settled tree. Scenarios are YAML or CUE; both decode into
// the same Scenario struct, and CUE files are unified with an embedded
// schema before anything runs, so malformed input fails with positions
// instead of half-running.
//
// # Determinism
//
// Runs are reproducible: store keys come from a sequential source named
// after the scenario instead of UUIDs, steps are emitted in file order,
// and every engine pass is traced. Two runs of one scenario produce
// row-identical traces, which is exactly what the replay command
// checks.
//
// # Golden files
//
// A settled run renders its tree with DumpTree; golden tests compare
// that dump against testdata/golden/{name}.golden via goldie.
package harness
