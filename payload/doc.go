/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package payload provides an immutable semi-structured value type for untyped server payloads.
// Accessors never panic: they report a shape mismatch with a false flag or return null.
package payload
