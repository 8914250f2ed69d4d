// datamodel.go
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
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/jam-build-datamodel/internal/services"
	"github.com/localnerve/jam-build-datamodel/internal/utils"
)

// DataModelHandler handles the data model document and invocation routes
type DataModelHandler struct {
	Models  *services.ModelService
	Invoker *services.InvokeService
}

// NewDataModelHandler creates a handler over the registered models
func NewDataModelHandler(models *services.ModelService) *DataModelHandler {
	return &DataModelHandler{
		Models:  models,
		Invoker: services.NewInvokeService(models),
	}
}

// GetDataModel handles GET /api/datamodel
// @Summary Get the data model document
// @Description Get the description of every registered model, keyed by model name
// @Tags DataModel
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /datamodel [get]
func (h *DataModelHandler) GetDataModel(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(fiber.StatusOK).Send(h.Models.DocumentJSON())
}

// InvokeMethod handles POST /api/method/:collection/:instid/:method
// @Summary Invoke a model method
// @Description Call a method on a persisted instance with encoded {args, kwargs}
// @Tags DataModel
// @Accept json
// @Produce json
// @Param collection path string true "Collection name"
// @Param instid path string true "Instance primary key"
// @Param method path string true "Method name"
// @Param body body PayloadRequest true "Encoded arguments"
// @Success 200 {object} utils.PayloadResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /method/{collection}/{instid}/{method} [post]
func (h *DataModelHandler) InvokeMethod(c *fiber.Ctx) error {
	req, ok, err := parsePayloadRequest(c, "datamodel.validation.input")
	if !ok {
		return err
	}

	result, err := h.Invoker.InvokeMethod(c.UserContext(),
		c.Params("collection"), c.Params("instid"), c.Params("method"),
		req.Payload.Text, req.WireFormat())
	if err != nil {
		log.Printf("Method %s/%s/%s failed: %v", c.Params("collection"), c.Params("instid"), c.Params("method"), err)
		return utils.FailureResponse(c, err, "invokeMethod")
	}
	if !result.Found {
		return utils.EmptyResponse(c)
	}
	return utils.PayloadResponse(c, result.Payload)
}

// GetProperty handles GET /api/property/:collection/:instid/:property
// @Summary Read a model property
// @Description Read a property of a persisted instance
// @Tags DataModel
// @Produce json
// @Param collection path string true "Collection name"
// @Param instid path string true "Instance primary key"
// @Param property path string true "Property name"
// @Param format query string false "Payload format, msgpack or json"
// @Success 200 {object} utils.PayloadResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /property/{collection}/{instid}/{property} [get]
func (h *DataModelHandler) GetProperty(c *fiber.Ctx) error {
	result, err := h.Invoker.GetProperty(c.UserContext(),
		c.Params("collection"), c.Params("instid"), c.Params("property"), c.Query("format"))
	if err != nil {
		return utils.FailureResponse(c, err, "getProperty")
	}
	if !result.Found {
		return utils.EmptyResponse(c)
	}
	return utils.PayloadResponse(c, result.Payload)
}

// SetProperty handles POST /api/property/:collection/:instid/:property
// @Summary Write a model property
// @Description Write a property of a persisted instance and commit
// @Tags DataModel
// @Accept json
// @Produce json
// @Param collection path string true "Collection name"
// @Param instid path string true "Instance primary key"
// @Param property path string true "Property name"
// @Param body body PayloadRequest true "Encoded value"
// @Success 200 {object} utils.MessageResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /property/{collection}/{instid}/{property} [post]
func (h *DataModelHandler) SetProperty(c *fiber.Ctx) error {
	req, ok, err := parsePayloadRequest(c, "datamodel.validation.input")
	if !ok {
		return err
	}

	result, err := h.Invoker.SetProperty(c.UserContext(),
		c.Params("collection"), c.Params("instid"), c.Params("property"),
		req.Payload.Text, req.WireFormat())
	if err != nil {
		return utils.FailureResponse(c, err, "setProperty")
	}
	if !result.Found {
		return utils.EmptyResponse(c)
	}
	return utils.MessageResponse(c, "success")
}

// ReadObjectProperty handles POST /api/property
// @Summary Read a property of an encoded entity
// @Description Read a property of the entity referenced by an encoded {object, property} mapping
// @Tags DataModel
// @Accept json
// @Produce json
// @Param body body PayloadRequest true "Encoded {object, property}"
// @Success 200 {object} utils.PayloadResponseStruct
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /property [post]
func (h *DataModelHandler) ReadObjectProperty(c *fiber.Ctx) error {
	req, ok, err := parsePayloadRequest(c, "datamodel.validation.input")
	if !ok {
		return err
	}

	result, err := h.Invoker.ReadObjectProperty(c.UserContext(), req.Payload.Text, req.WireFormat())
	if err != nil {
		return utils.FailureResponse(c, err, "readObjectProperty")
	}
	if !result.Found {
		return utils.EmptyResponse(c)
	}
	return utils.PayloadResponse(c, result.Payload)
}

// RegisterRoutes mounts the data model routes on router. Mutating routes run
// behind the given middleware.
func (h *DataModelHandler) RegisterRoutes(router fiber.Router, mutating ...fiber.Handler) {
	router.Get("/datamodel", h.GetDataModel)
	router.Get("/property/:collection/:instid/:property", h.GetProperty)
	router.Post("/property", h.ReadObjectProperty)

	chain := func(handler fiber.Handler) []fiber.Handler {
		return append(append([]fiber.Handler{}, mutating...), handler)
	}
	router.Post("/method/:collection/:instid/:method", chain(h.InvokeMethod)...)
	router.Post("/property/:collection/:instid/:property", chain(h.SetProperty)...)
}
