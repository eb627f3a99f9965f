// Package engine wires reactive module descriptors into live instances.
//
// A Module pairs a declarative ir.ModuleSpec with a LogicFunc. Wire turns
// it into an Instance:
//
//  1. The descriptor is validated (compiler.Validate) and the logic checked for nil.
//  2. One stream.Channel is created per Input and Feedback name.
//  3. Logic is invoked exactly once with the read-only channel sources and
//     returns one stream per PureFeedback, OutputFeedback and PureOutput name.
//  4. Every returned stream is wrapped in stream.Share.
//  5. The feedback router subscribes to the feedback-bound outputs and
//     pushes each value back into the same-named channel.
//  6. The snapshot aggregator subscribes to the exposed outputs and folds
//     each value into a new immutable Snapshot.
//  7. Setters are created for every Input name that is not a Feedback name.
//
// DELIVERY:
//
// Everything is synchronous. Instance.Set returns only after the input
// push and every consequence of it (feedback pushes, folds, hooks) has run
// on the caller's stack. Set calls on one instance are serialized.
//
// A feedback stream that re-triggers itself without bound is stopped by a
// per-instance FeedbackGuard; the Set call that started it returns a
// FEEDBACK_LOOP RuntimeError.
//
// ORDERING:
//
// Every input push, feedback push and fold is stamped with a seq from the
// engine's Sequencer. Traces never carry wall-clock time.
//
// TEARDOWN:
//
// Instance.Close cancels the router and aggregator subscriptions and
// closes every channel. Later Set calls return TORN_DOWN errors and the
// final snapshot stays readable.
package engine
