package system

import "time"

// Order is a system's execution key within a tick. Lower runs first; equal
// keys run in registration order.
type Order int

// Named bands for common kinds of work. Any integer is a valid Order.
const (
	OrderInput      Order = 0    // feed external input into components
	OrderPreUpdate  Order = 1000 // react to last tick's events
	OrderUpdate     Order = 2000 // simulation
	OrderPostUpdate Order = 3000 // movement integration, hierarchy
	OrderOutput     Order = 4000 // build render/network state
	OrderPersist    Order = 5000 // snapshots
	OrderCleanup    Order = 6000 // lifetime expiry, bookkeeping
)

// System is anything the Runner can tick.
type System interface {
	Order() Order
	Update(dt time.Duration)
}
