// Package trial defines the domain types shared by every other package:
// items, sequences, trials, sessions and the metrics scoring derives from them.
//
// trial imports nothing internal. Scoring, storage, CSV records and the
// session runner all build on these types.
//
// Identity:
//   - Trial IDs are content-addressed: SHA-256 with domain separation over
//     RFC 8785 canonical JSON of (session, index, paradigm, presented, response).
//   - Metrics are excluded from the ID because they are derived from the inputs.
//   - Session IDs are UUIDv7 strings assigned by the runner.
package trial
