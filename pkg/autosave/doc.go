// Package autosave debounces draft writes and surfaces conflicts between
// writer instances instead of letting the last writer win.
//
// A Coordinator moves through Idle, Scheduled, Running and ConflictRejected.
// Each Schedule call restarts the quiet period; when it elapses the
// coordinator checks the store for a conflicting owner, saves, and records
// the caller as the owner:
//
//	c := autosave.NewCoordinator(store, autosave.WithConfig(cfg.AutoSave))
//	id := autosave.NewInstanceID()
//	go func() {
//		if err := <-c.Schedule("shipment-draft", shipment, id); err != nil {
//			var conflict *draft.ConflictError
//			if errors.As(err, &conflict) {
//				// ask the user which copy to keep
//			}
//		}
//	}()
package autosave
