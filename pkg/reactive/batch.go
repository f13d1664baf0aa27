package reactive

// Batch groups multiple signal writes into a single propagation pass.
// Writes inside fn are stored immediately but propagation is deferred until
// the outermost batch completes, so every dependent runs at most once and
// observes only the final values.
//
// Batches can be nested. Propagation only happens when the outermost batch
// completes. The returned error joins the failures of that propagation.
//
// Example:
//
//	rt.Batch(func() {
//	    firstName.Set("John")
//	    lastName.Set("Doe")
//	})
//	// Effects reading both names run once
func (rt *Runtime) Batch(fn func()) (err error) {
	rt.batchDepth++
	defer func() {
		rt.batchDepth--
		if rt.batchDepth == 0 {
			if ferr := rt.flush(); err == nil {
				err = ferr
			}
		}
	}()
	fn()
	return nil
}

// BatchNamed is like Batch but logs the batch boundaries at debug level.
func (rt *Runtime) BatchNamed(name string, fn func()) error {
	rt.logger.Debug("reactive: batch start", "batch", name)
	err := rt.Batch(fn)
	rt.logger.Debug("reactive: batch end", "batch", name, "error", err)
	return err
}
