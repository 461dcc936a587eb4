package nvdec

import "runtime"

// pinnedCall runs push, fn and pop on one OS thread. CUDA keeps the
// current-context stack per thread, so a goroutine must not migrate between
// pushing a context and popping it. pop runs only when push succeeded.
func pinnedCall(push func() error, pop func(), fn func() error) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := push(); err != nil {
		return err
	}
	defer pop()
	return fn()
}
