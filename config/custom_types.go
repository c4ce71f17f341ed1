/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"fmt"
	"strings"

	"code.cloudfoundry.org/bytefmt"
)

// BytesCount is a size in bytes, e.g. the log file rotation threshold.
type BytesCount uint64

// String returns the human-readable form ("10M").
func (b BytesCount) String() string {
	return bytefmt.ByteSize(uint64(b))
}

// bytefmt does not know k8s power-of-two suffixes ("Mi", "Gi"), so they are cut to "M", "G".
func parseBytesCount(s string) (BytesCount, error) {
	v := strings.TrimSpace(s)
	if v == "" {
		return 0, nil
	}
	for _, k8sByteSuffix := range [...]string{"Ki", "Mi", "Gi", "Ti", "Pi", "Ei"} {
		if strings.HasSuffix(v, k8sByteSuffix) {
			v = v[:len(v)-1]
			break
		}
	}
	num, err := bytefmt.ToBytes(v)
	if err != nil {
		return 0, fmt.Errorf("invalid bytes count format (%s): %w", s, err)
	}
	return BytesCount(num), nil
}
