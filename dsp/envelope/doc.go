// Package envelope provides a per-channel smoothed power envelope follower.
//
// [Follower] tracks, for every channel, a running average of the squared
// sample value. The average rises quickly when the signal power exceeds it
// (attack, [SmoothingFactorUp]) and decays slowly otherwise (release,
// [SmoothingFactorDown]). Processing overwrites each sample with the current
// average, turning the signal into its smoothed power envelope.
//
// The first sample seen on a fresh or reset channel seeds the average with
// its own squared value and is emitted unchanged as that value.
package envelope
