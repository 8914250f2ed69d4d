// payload.go
//
// A data model description and method invocation service for the jam-build data service
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of jam-build-datamodel.
// jam-build-datamodel is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// jam-build-datamodel is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with jam-build-datamodel.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package types

import (
	"encoding/json"
)

// FlexPayload is an encoded payload that can be unmarshaled from either a JSON
// string holding text in the request's format, or an inline JSON value, which
// implies the json format.
type FlexPayload struct {
	Text   string
	Inline bool
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (p *FlexPayload) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*p = FlexPayload{}
		return nil
	}

	// A string is already encoded text
	if data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*p = FlexPayload{Text: text}
		return nil
	}

	*p = FlexPayload{Text: string(data), Inline: true}
	return nil
}

// MarshalJSON implements the json.Marshaler interface.
func (p FlexPayload) MarshalJSON() ([]byte, error) {
	if p.Inline {
		return []byte(p.Text), nil
	}
	return json.Marshal(p.Text)
}
