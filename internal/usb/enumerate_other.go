//go:build !linux && !darwin && !windows

package usb

import "context"

type unsupportedEnumerator struct{}

func newPlatformEnumerator() Enumerator {
	return unsupportedEnumerator{}
}

func (unsupportedEnumerator) List(context.Context) ([]Volume, error) {
	return nil, nil
}

func (unsupportedEnumerator) Unmount(context.Context, Volume) error {
	return ErrUnmountUnsupported
}
