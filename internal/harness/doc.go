// Package harness runs reconciliation scenarios end to end.
//
// A scenario pairs a CUE declaration with the remote state it is reconciled
// against, then asserts on the validation outcome, the write plan and the
// remote state after the plan is applied.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: step_soft_update
//	description: "Changing order and filter updates the step in place"
//	declaration: |
//	  solution: "Core"
//	  plugin: "Ctx.Plugins.A": step: [{
//	      message: "Update"
//	      entity:  "account"
//	      stage:   "PostOperation"
//	  }]
//	remote:
//	  solutions:
//	    Core:
//	      plugin_types:
//	        - name: Ctx.Plugins.A
//	apply: true
//	assertions:
//	  - type: plan_count
//	    action: update
//	    count: 1
//	  - type: plan_contains
//	    operation: '~ update step "..." in "Ctx.Plugins.A" (ExecutionOrder)'
//
// The declaration is given inline or as a directory of CUE files (source,
// relative to the scenario file). The remote block uses the store fixture
// format.
//
// # Assertion Types
//
//   - plan_contains: an operation, rendered as by reconcile.FormatOperation, is planned
//   - plan_order: operations appear in the plan in the given relative order
//   - plan_count: exactly count operations with the given action (and kind)
//   - violation: validation reported code, optionally with a message fragment
//   - final_state: an entity of kind and name exists (or not) once the run ends
//
// # Deterministic Testing
//
// Every run uses a fresh in-memory SQLite store whose IDs come from
// testutil.SequentialIDs, so plans and golden snapshots are reproducible.
// When apply is set the plan is written and the declaration diffed again;
// a non-empty second plan fails the scenario.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/step_soft_update.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, msg := range result.Errors {
//	        log.Println(msg)
//	    }
//	}
package harness
