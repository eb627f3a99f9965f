// Package stream provides the synchronous multicast channel that every
// remod module is wired from, plus the small operator set logic functions
// are written with.
//
// Delivery is synchronous: Push calls each observer on the caller's stack,
// in subscription order, before returning. There is no buffering, no error
// signal and no completion signal. Operators are cold (each subscription
// runs its own pipeline) except Share and ShareReplay, which multicast one
// upstream subscription to many observers.
package stream
