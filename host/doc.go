// Package host adapts the envelope follower to a plugin-host style
// lifecycle.
//
// A host prepares the [Processor] with its sample rate, maximum block size
// and channel count, calls [Processor.Process] once per audio block, and
// releases it when playback stops. Output channels without a matching input
// are cleared before processing; the remaining channels are replaced by
// their smoothed power envelope in place.
//
// Only mono and stereo layouts with matching input and output are supported,
// see [IsLayoutSupported].
package host
