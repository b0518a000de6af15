//go:build !mpv

package audio

import "errors"

// ErrNoMPV is returned by NewMPV in builds without the mpv tag.
var ErrNoMPV = errors.New("built without mpv support")

// NewMPV always fails; build with -tags mpv to link libmpv.
func NewMPV() (Player, error) {
	return nil, ErrNoMPV
}
