// Package protocol loads experiment protocols from CUE.
//
// A protocol names one experiment variant (for example the Speed variant of
// free recall) and fixes everything a block needs: the paradigm, the number
// of trials, the list conditions, presentation timing and the similarity
// pairs used for scoring. Protocols are declared under a top-level
// protocol struct:
//
//	protocol: Speed: {
//		paradigm:   "free_recall"
//		experiment: "Speed"
//		trials:     20
//	}
//
// A default set is embedded in the binary and returned by Builtin.
package protocol
