package utils

// Guard runs cleanup for a partially built resource when the function building it returns early.
//
//	guard := NewGuard(func() { f.Close() })
//	defer guard.OnFail()
//	if err != nil { return err }
//	guard.Success()
//	return f, nil
type Guard struct {
	OnFail  func()
	success bool
}

// NewGuard returns a Guard that calls onFailCleanup from OnFail unless Success was called.
func NewGuard(onFailCleanup func()) *Guard {
	ret := &Guard{}
	ret.OnFail = func() {
		if !ret.success {
			onFailCleanup()
		}
	}
	return ret
}

// Success disarms the cleanup.
func (guard *Guard) Success() {
	guard.success = true
}
