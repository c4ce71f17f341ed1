/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package log provides structured logging (based on ssgreg/logf) used by the evaluation cache.
package log
