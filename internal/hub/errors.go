package hub

import "errors"

var (
	// ErrHandshake marks an upgrade request that was rejected before a
	// connection was registered.
	ErrHandshake = errors.New("handshake rejected")

	// ErrSubscription marks a subscribe or unsubscribe that had no effect.
	// It is reported to the originating connection only.
	ErrSubscription = errors.New("subscription rejected")

	// ErrDispatch marks an envelope that could not be serialized or written.
	ErrDispatch = errors.New("dispatch failed")

	// ErrBackpressure marks an outbound queue at capacity.
	ErrBackpressure = errors.New("outbound queue at capacity")

	// ErrUnknownConnection is returned for ids that are not registered.
	ErrUnknownConnection = errors.New("unknown connection")

	// ErrClosed is returned by Register after Shutdown.
	ErrClosed = errors.New("hub closed")
)
