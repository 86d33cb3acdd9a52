package host

// Layout is a bus channel layout.
type Layout int

const (
	// LayoutDisabled is an inactive bus.
	LayoutDisabled Layout = iota
	// LayoutMono is a single-channel bus.
	LayoutMono
	// LayoutStereo is a two-channel bus.
	LayoutStereo
)

// Channels returns the number of channels of the layout.
func (l Layout) Channels() int {
	switch l {
	case LayoutMono:
		return 1
	case LayoutStereo:
		return 2
	default:
		return 0
	}
}

func (l Layout) String() string {
	switch l {
	case LayoutDisabled:
		return "disabled"
	case LayoutMono:
		return "mono"
	case LayoutStereo:
		return "stereo"
	default:
		return "unknown"
	}
}

// IsLayoutSupported reports whether the processor accepts the given main
// input and output layouts. The output must be mono or stereo and the input
// must match it.
func IsLayoutSupported(in, out Layout) bool {
	if out != LayoutMono && out != LayoutStereo {
		return false
	}

	return in == out
}
