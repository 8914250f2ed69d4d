// common.go
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

package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/jam-build-datamodel/internal/types"
	"github.com/localnerve/jam-build-datamodel/internal/utils"
)

var validate = validator.New()

// PayloadRequest is the body of every invocation route
type PayloadRequest struct {
	Payload types.FlexPayload `json:"payload" swaggertype:"string"`
	Format  string            `json:"format" validate:"omitempty,oneof=msgpack json"`
}

// WireFormat is the format the payload is encoded in. An inline payload is
// always json. Empty means the service default.
func (r *PayloadRequest) WireFormat() string {
	if r.Payload.Inline {
		return "json"
	}
	return r.Format
}

// parsePayloadRequest reads and validates the request body. On failure the
// error response has already been sent and ok is false.
func parsePayloadRequest(c *fiber.Ctx, errorType string) (req PayloadRequest, ok bool, err error) {
	if err := c.BodyParser(&req); err != nil {
		return req, false, utils.ErrorResponse(c, "Invalid input", fiber.StatusBadRequest, errorType)
	}
	if err := validate.Struct(&req); err != nil {
		return req, false, utils.ErrorResponse(c, "Invalid input: "+err.Error(), fiber.StatusBadRequest, errorType)
	}
	return req, true, nil
}
