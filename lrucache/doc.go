/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package lrucache provides a bounded in-memory cache with LRU eviction policy and Prometheus metrics.
// It backs the name hash memo shared by evaluation snapshots.
package lrucache
