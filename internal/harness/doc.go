// Package harness runs conformance scenarios against the scoring engine.
//
// # Scenario Format
//
// Scenarios are YAML files with the following structure:
//
//	name: serial_transposition
//	description: "Swapped neighbours score zero at both positions"
//	paradigm: serial_recall
//	presented: BDGK
//	response: BGDK
//	normalize: false
//	similarity_pairs:
//	  - [B, P]
//	expect:
//	  per_position_binary: "1001"
//	  proportion_correct_in_position: 0.5
//
// Letters in presented and response are one item per character. With
// normalize set, response is treated as raw typed input and normalized the
// way the console session does before scoring.
//
// # Expectations
//
// Every expect field is optional, but at least one must be given:
//
//   - n_correct, proportion_correct, phonological_confusions: free recall
//   - per_position_binary, proportion_correct_in_position: serial recall
//   - error: "invalid_input" when scoring must be rejected
//
// Proportions are compared after rounding to three decimals, the precision
// stored in CSV records.
//
// # Golden Snapshots
//
// RunWithGolden scores a scenario and compares the canonical JSON of the
// outcome against testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
