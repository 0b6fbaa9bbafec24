// Package resource implements the Controller for memory and IO budgets.
//
//   - Memory: track and limit the bytes held by stored objects
//     (non-blocking, fail-fast)
//   - IO: rate-limit persistence reads and writes (token bucket)
//
// A nil *Controller is valid and imposes no limits:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes:   1 << 30,
//	    IOLimitBytesPerSec: 64 << 20,
//	})
//	if err := rc.AcquireMemory(int64(dim * 4)); err != nil {
//	    // resource.ErrMemoryLimitExceeded
//	}
package resource
