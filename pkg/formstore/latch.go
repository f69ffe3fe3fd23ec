package formstore

import "sync"

// ControlSubmit is the latch name guarding form submission.
const ControlSubmit = "submit"

// UploadControl returns the latch name guarding the file input bound to path.
func UploadControl(path Path) string {
	return "upload:" + path.String()
}

// Latch disables individual form controls while their one in-flight request
// runs. It is not a general lock: acquiring never blocks.
type Latch struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// TryAcquire marks control busy, reporting false when it already is.
func (l *Latch) TryAcquire(control string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held == nil {
		l.held = make(map[string]struct{})
	}
	if _, busy := l.held[control]; busy {
		return false
	}
	l.held[control] = struct{}{}
	return true
}

// Release re-enables control.
func (l *Latch) Release(control string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, control)
}

// Busy reports whether control is disabled.
func (l *Latch) Busy(control string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, busy := l.held[control]
	return busy
}
