package ns

import (
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/sys/unix"
)

const DEBUGFS_BLUETOOTH_DIR = "/sys/kernel/debug/bluetooth"

// AdvertisingBounds names the two debugfs endpoints holding the controller's
// minimum and maximum advertising interval, in ticks. Injected everywhere so
// tests can point both at a temp directory.
type AdvertisingBounds struct {
	Min string
	Max string
}

func BoundsForAdapter(adapter string) AdvertisingBounds {
	dir := filepath.Join(DEBUGFS_BLUETOOTH_DIR, adapter)
	return AdvertisingBounds{
		Min: filepath.Join(dir, "adv_min_interval"),
		Max: filepath.Join(dir, "adv_max_interval"),
	}
}

// Writable probes both endpoints without touching them, so callers can
// refuse early with a classified error.
func (b AdvertisingBounds) Writable() (err error) {
	for _, path := range []string{b.Min, b.Max} {
		if accessErr := unix.Access(path, unix.W_OK); accessErr != nil {
			err = classifyEndpointError(path, &os.PathError{Op: "access", Path: path, Err: accessErr})
			return
		}
	}
	return
}

// Apply writes the tick value as decimal text to min then max, in that fixed
// order. Both endpoints get the same value: the interval is pinned to a single
// point rather than a range. Not transactional; if max fails after min
// succeeded the controller is left inconsistent and the error names the
// endpoint that failed.
func (b AdvertisingBounds) Apply(ticks uint64) (err error) {
	for _, path := range []string{b.Min, b.Max} {
		if err = writeEndpoint(path, ticks); err != nil {
			return
		}
	}
	return
}

func writeEndpoint(path string, ticks uint64) (err error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return classifyEndpointError(path, err)
	}
	defer f.Close()
	if _, err = f.WriteString(strconv.FormatUint(ticks, 10)); err != nil {
		return classifyEndpointError(path, err)
	}
	return
}
