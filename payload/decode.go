/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package payload

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Decode copies the value into out, usually a pointer to a struct.
// Object fields are matched by json tags (or by field name, case-insensitively),
// numbers fit any numeric field and strings like "30s" fit time.Duration fields.
// Fields missing from the value keep what out already holds.
func (v Value) Decode(out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    "json",
		Result:     out,
		DecodeHook: mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return err
	}
	if err = dec.Decode(v.Interface()); err != nil {
		return fmt.Errorf("decode %s value: %w", v.kind, err)
	}
	return nil
}
