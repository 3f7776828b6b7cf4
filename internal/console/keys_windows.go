package console

import (
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

var procReadConsoleInput = windows.NewLazySystemDLL("kernel32.dll").NewProc("ReadConsoleInputW")

// keyEventRecord mirrors KEY_EVENT_RECORD.
type keyEventRecord struct {
	KeyDown         int32
	RepeatCount     uint16
	VirtualKeyCode  uint16
	VirtualScanCode uint16
	UnicodeChar     uint16
	ControlKeyState uint32
}

// inputRecord mirrors INPUT_RECORD. Only key events are decoded; the union
// is the size of its largest member, KEY_EVENT_RECORD.
type inputRecord struct {
	EventType uint16
	_         uint16
	Key       keyEventRecord
}

// pollKey waits on the console input handle until a key is pressed or the
// timeout passes. The handle is signalled by every input record, including
// key releases, focus and mouse events, so pending records are consumed
// without blocking and everything but a key press is dropped.
func pollKey(fd int, timeout time.Duration) (byte, bool, error) {
	handle := windows.Handle(fd)
	deadline := time.Now().Add(timeout)
	for {
		remaining := max(time.Until(deadline), 0)
		event, err := windows.WaitForSingleObject(handle, uint32(remaining/time.Millisecond))
		if err != nil {
			return 0, false, err
		}
		if event != windows.WAIT_OBJECT_0 {
			return 0, false, nil
		}

		key, ok, err := readPendingKey(handle)
		if err != nil || ok {
			return key, ok, err
		}
		if remaining == 0 {
			return 0, false, nil
		}
	}
}

// readPendingKey reads queued records one at a time until it finds a key
// press. Records after that key stay queued for the next call.
func readPendingKey(handle windows.Handle) (byte, bool, error) {
	for {
		var pending uint32
		if err := windows.GetNumberOfConsoleInputEvents(handle, &pending); err != nil {
			return 0, false, err
		}
		if pending == 0 {
			return 0, false, nil
		}

		var rec inputRecord
		var read uint32
		r1, _, e1 := procReadConsoleInput.Call(uintptr(handle), uintptr(unsafe.Pointer(&rec)), 1, uintptr(unsafe.Pointer(&read)))
		if r1 == 0 {
			return 0, false, e1
		}
		if read == 0 {
			return 0, false, nil
		}
		if key, ok := keyFromRecord(rec); ok {
			return key, true, nil
		}
	}
}

// keyFromRecord returns the ASCII character of a key press.
func keyFromRecord(rec inputRecord) (byte, bool) {
	if rec.EventType != windows.KEY_EVENT || rec.Key.KeyDown == 0 {
		return 0, false
	}
	c := rec.Key.UnicodeChar
	if c == 0 || c > 0x7f {
		return 0, false
	}
	return byte(c), true
}
