// Package ripple measures the residual ripple of a power envelope.
//
// An envelope follower driven by a periodic signal does not settle to a
// constant; it oscillates around its mean at twice the signal frequency for
// squared detectors. [Analyzer] reports the mean level, the RMS of the
// deviation from it, and the frequency where that deviation is strongest.
package ripple
