// invoke_service_test.go
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

package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/localnerve/jam-build-datamodel/internal/codec"
	"github.com/localnerve/jam-build-datamodel/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func id(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}

func invocationError(t *testing.T, err error) *InvocationError {
	t.Helper()
	var ie *InvocationError
	require.ErrorAs(t, err, &ie)
	return ie
}

func TestInvokeMethodKeywordArguments(t *testing.T) {
	db := setupDB(t)
	invoker := NewInvokeService(newModelService(t, db, ModelOptions{}))
	p := seedPerson(t, db)

	result, err := invoker.InvokeMethod(context.Background(), "people", id(p.ID), "age_in_x_years_y_months",
		`{"args":[],"kwargs":{"y_offset":10,"m_offset":3}}`, codec.JSONFormat)
	require.NoError(t, err)
	assert.True(t, result.Found)
	assert.Equal(t, CommitSkipped, result.Commit)
	assert.JSONEq(t, `{"$type":"date","$value":"2028-04-01"}`, result.Payload)

	result, err = invoker.InvokeMethod(context.Background(), "people", id(p.ID), "age_in_x_years_y_months",
		`{"args":[1]}`, codec.JSONFormat)
	require.NoError(t, err)
	assert.JSONEq(t, `{"$type":"date","$value":"2019-01-01"}`, result.Payload)
}

func TestInvokeMethodRejectsLossyNumbers(t *testing.T) {
	db := setupDB(t)
	invoker := NewInvokeService(newModelService(t, db, ModelOptions{}))
	p := seedPerson(t, db)

	_, err := invoker.InvokeMethod(context.Background(), "people", id(p.ID), "age_in_x_years_y_months",
		`{"args":[1.9]}`, codec.JSONFormat)
	ie := invocationError(t, err)
	assert.Equal(t, "TypeError", ie.Kind)
	assert.Contains(t, ie.Message, `argument "y_offset"`)
	assert.Equal(t, http.StatusInternalServerError, ie.StatusCode())

	result, err := invoker.InvokeMethod(context.Background(), "people", id(p.ID), "age_in_x_years_y_months",
		`{"args":[2.0]}`, codec.JSONFormat)
	require.NoError(t, err)
	assert.JSONEq(t, `{"$type":"date","$value":"2020-01-01"}`, result.Payload)
}

func TestInvokeMethodMsgpack(t *testing.T) {
	db := setupDB(t)
	svc := newModelService(t, db, ModelOptions{})
	invoker := NewInvokeService(svc)
	p := seedPerson(t, db)

	wire, err := codec.FormatByName(codec.MsgpackFormat)
	require.NoError(t, err)
	payload, err := wire.Marshal(map[string]any{
		"args":   []any{2},
		"kwargs": map[string]any{"m_offset": 6, "extra": "kept"},
	})
	require.NoError(t, err)

	result, err := invoker.InvokeMethod(context.Background(), "people", id(p.ID), "age_in_x_years_y_months", payload, "")
	require.NoError(t, err)

	raw, err := wire.Unmarshal(result.Payload)
	require.NoError(t, err)
	out, err := svc.Codecs().Decode(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "2020-07-01", time.Time(out.(datatypes.Date)).Format("2006-01-02"))
}

func TestInvokeMethodMissingInstance(t *testing.T) {
	db := setupDB(t)
	invoker := NewInvokeService(newModelService(t, db, ModelOptions{}))

	result, err := invoker.InvokeMethod(context.Background(), "people", "999", "age_in_x_years_y_months",
		`{"args":[10]}`, codec.JSONFormat)
	require.NoError(t, err)
	assert.False(t, result.Found)
	assert.Empty(t, result.Payload)
}

func TestInvokeMethodFailures(t *testing.T) {
	db := setupDB(t)
	invoker := NewInvokeService(newModelService(t, db, ModelOptions{}))
	w := &widget{Label: "first"}
	require.NoError(t, db.Create(w).Error)
	ctx := context.Background()

	tests := []struct {
		name       string
		collection string
		method     string
		payload    string
		message    string
		status     int
	}{
		{"method error", "widgets", "explode", "", "Error: Something happened", http.StatusInternalServerError},
		{"panic", "widgets", "boom", "", "Panic: boom", http.StatusInternalServerError},
		{"too many arguments", "widgets", "relabel", `{"args":["a","b"]}`,
			"TypeError: takes 1 positional arguments but 2 were given", http.StatusInternalServerError},
		{"missing argument", "widgets", "relabel", `{"args":[]}`,
			`TypeError: missing required argument "arg0"`, http.StatusInternalServerError},
		{"unexpected keyword", "widgets", "relabel", `{"args":["a"],"kwargs":{"color":"red"}}`,
			`TypeError: unexpected keyword argument "color"`, http.StatusInternalServerError},
		{"bad payload", "widgets", "relabel", `[1,2]`,
			"TypeError: payload must be a mapping with args and kwargs", http.StatusInternalServerError},
		{"malformed payload", "widgets", "relabel", `{`, "", http.StatusBadRequest},
		{"unknown method", "widgets", "missing", "", `NotFound: widget has no method "missing"`, http.StatusNotFound},
		{"unknown collection", "gizmos", "explode", "", `NotFound: no collection "gizmos"`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := invoker.InvokeMethod(ctx, tt.collection, id(w.ID), tt.method, tt.payload, codec.JSONFormat)
			ie := invocationError(t, err)
			if tt.message != "" {
				assert.Equal(t, tt.message, ie.Error())
			}
			assert.Equal(t, tt.status, ie.StatusCode())
		})
	}
}

func TestInvokeMethodEntityArgument(t *testing.T) {
	db := setupDB(t)
	invoker := NewInvokeService(newModelService(t, db, ModelOptions{}))
	p := seedPerson(t, db)
	mine := &models.Computer{Name: "Analytical Engine", OwnerID: &p.ID}
	theirs := &models.Computer{Name: "Difference Engine"}
	require.NoError(t, db.Create(mine).Error)
	require.NoError(t, db.Create(theirs).Error)

	owns := func(c *models.Computer) string {
		result, err := invoker.InvokeMethod(context.Background(), "people", id(p.ID), "owns",
			fmt.Sprintf(`{"args":[{"$type":"Computer","$value":%d}]}`, c.ID), codec.JSONFormat)
		require.NoError(t, err)
		return result.Payload
	}
	assert.Equal(t, "true", owns(mine))
	assert.Equal(t, "false", owns(theirs))

	result, err := invoker.InvokeMethod(context.Background(), "people", id(p.ID), "computer_count", "", codec.JSONFormat)
	require.NoError(t, err)
	assert.Equal(t, "1", result.Payload)
}

func TestInvokeMethodCommit(t *testing.T) {
	t.Run("skipped", func(t *testing.T) {
		db := setupDB(t)
		invoker := NewInvokeService(newModelService(t, db, ModelOptions{}))
		p := seedPerson(t, db)

		result, err := invoker.InvokeMethod(context.Background(), "people", id(p.ID), "rename",
			`{"args":["Grace Hopper"]}`, codec.JSONFormat)
		require.NoError(t, err)
		assert.Equal(t, `"Grace Hopper"`, result.Payload)
		assert.Equal(t, CommitSkipped, result.Commit)

		var stored models.Person
		require.NoError(t, db.First(&stored, p.ID).Error)
		assert.Equal(t, "Ada Lovelace", stored.Name)
	})

	t.Run("committed", func(t *testing.T) {
		db := setupDB(t)
		invoker := NewInvokeService(newModelService(t, db, ModelOptions{CommitOnMethodReturn: true}))
		p := seedPerson(t, db)

		result, err := invoker.InvokeMethod(context.Background(), "people", id(p.ID), "rename",
			`{"kwargs":{"name":"Grace Hopper"}}`, codec.JSONFormat)
		require.NoError(t, err)
		assert.Equal(t, Committed, result.Commit)

		var stored models.Person
		require.NoError(t, db.First(&stored, p.ID).Error)
		assert.Equal(t, "Grace Hopper", stored.Name)
	})

	t.Run("commit failure ignored", func(t *testing.T) {
		db := setupDB(t)
		invoker := NewInvokeService(newModelService(t, db, ModelOptions{CommitOnMethodReturn: true}))
		p := seedPerson(t, db)

		require.NoError(t, db.Callback().Update().Before("gorm:update").Register("test:fail_update", func(tx *gorm.DB) {
			tx.AddError(errors.New("disk full"))
		}))

		result, err := invoker.InvokeMethod(context.Background(), "people", id(p.ID), "rename",
			`{"args":["Grace Hopper"]}`, codec.JSONFormat)
		require.NoError(t, err)
		assert.True(t, result.Found)
		assert.Equal(t, `"Grace Hopper"`, result.Payload)
		assert.Equal(t, CommitFailedIgnored, result.Commit)
		assert.Equal(t, "commit_failed_ignored", result.Commit.String())
	})
}

func TestPropertyWriteThenRead(t *testing.T) {
	db := setupDB(t)
	invoker := NewInvokeService(newModelService(t, db, ModelOptions{}))
	p := seedPerson(t, db)
	ctx := context.Background()

	result, err := invoker.GetProperty(ctx, "people", id(p.ID), "display_name", codec.JSONFormat)
	require.NoError(t, err)
	assert.Equal(t, `"Ada Lovelace"`, result.Payload)

	result, err = invoker.SetProperty(ctx, "people", id(p.ID), "display_name", `"Countess"`, codec.JSONFormat)
	require.NoError(t, err)
	assert.True(t, result.Found)
	assert.Equal(t, Committed, result.Commit)

	result, err = invoker.GetProperty(ctx, "people", id(p.ID), "display_name", codec.JSONFormat)
	require.NoError(t, err)
	assert.Equal(t, `"Countess"`, result.Payload)

	result, err = invoker.GetProperty(ctx, "people", id(p.ID), "initials", codec.JSONFormat)
	require.NoError(t, err)
	assert.Equal(t, `"AL"`, result.Payload)
}

func TestUnresolvableInstanceID(t *testing.T) {
	db := setupDB(t)
	invoker := NewInvokeService(newModelService(t, db, ModelOptions{}))
	ctx := context.Background()

	for _, instID := range []string{"abc", "-1", "1.5"} {
		result, err := invoker.GetProperty(ctx, "people", instID, "display_name", codec.JSONFormat)
		require.NoError(t, err, instID)
		assert.False(t, result.Found, instID)

		result, err = invoker.SetProperty(ctx, "people", instID, "display_name", `"Countess"`, codec.JSONFormat)
		require.NoError(t, err, instID)
		assert.False(t, result.Found, instID)

		result, err = invoker.InvokeMethod(ctx, "people", instID, "age_in_x_years_y_months", `{"args":[1]}`, codec.JSONFormat)
		require.NoError(t, err, instID)
		assert.False(t, result.Found, instID)
	}
}

func TestHideProperties(t *testing.T) {
	db := setupDB(t)
	svc := newModelService(t, db, ModelOptions{HideProperties: true})
	invoker := NewInvokeService(svc)
	p := seedPerson(t, db)

	person := svc.Document()["Person"].(*EntityDocument)
	assert.Empty(t, person.Properties)

	_, err := invoker.GetProperty(context.Background(), "people", id(p.ID), "display_name", codec.JSONFormat)
	assert.Equal(t, http.StatusNotFound, invocationError(t, err).StatusCode())
}

func TestPropertyFailures(t *testing.T) {
	db := setupDB(t)
	invoker := NewInvokeService(newModelService(t, db, ModelOptions{}))
	p := seedPerson(t, db)
	ctx := context.Background()

	_, err := invoker.SetProperty(ctx, "people", id(p.ID), "display_name", `"  "`, codec.JSONFormat)
	ie := invocationError(t, err)
	assert.Equal(t, "could not set property: display name cannot be empty", ie.Error())
	assert.Equal(t, http.StatusInternalServerError, ie.StatusCode())

	_, err = invoker.SetProperty(ctx, "people", id(p.ID), "initials", `"XY"`, codec.JSONFormat)
	ie = invocationError(t, err)
	assert.Equal(t, `could not set property: property "initials" is read-only`, ie.Error())

	_, err = invoker.GetProperty(ctx, "people", id(p.ID), "nickname", codec.JSONFormat)
	ie = invocationError(t, err)
	assert.Equal(t, http.StatusNotFound, ie.StatusCode())

	result, err := invoker.GetProperty(ctx, "people", "999", "display_name", codec.JSONFormat)
	require.NoError(t, err)
	assert.False(t, result.Found)

	result, err = invoker.SetProperty(ctx, "people", "999", "display_name", `"Nobody"`, codec.JSONFormat)
	require.NoError(t, err)
	assert.False(t, result.Found)

	var stored models.Person
	require.NoError(t, db.First(&stored, p.ID).Error)
	assert.Empty(t, stored.Nickname)
}

func TestPropertyWriteCommitFailure(t *testing.T) {
	db := setupDB(t)
	invoker := NewInvokeService(newModelService(t, db, ModelOptions{}))
	p := seedPerson(t, db)

	require.NoError(t, db.Callback().Update().Before("gorm:update").Register("test:fail_update", func(tx *gorm.DB) {
		tx.AddError(errors.New("disk full"))
	}))

	_, err := invoker.SetProperty(context.Background(), "people", id(p.ID), "display_name", `"Countess"`, codec.JSONFormat)
	ie := invocationError(t, err)
	assert.Equal(t, "could not set property: disk full", ie.Error())
	assert.Equal(t, http.StatusInternalServerError, ie.StatusCode())
}

func TestReadObjectProperty(t *testing.T) {
	db := setupDB(t)
	invoker := NewInvokeService(newModelService(t, db, ModelOptions{}))
	p := seedPerson(t, db)
	ctx := context.Background()

	result, err := invoker.ReadObjectProperty(ctx,
		fmt.Sprintf(`{"object":{"$type":"Person","$value":%d},"property":"initials"}`, p.ID), codec.JSONFormat)
	require.NoError(t, err)
	assert.True(t, result.Found)
	assert.Equal(t, `"AL"`, result.Payload)

	result, err = invoker.ReadObjectProperty(ctx,
		`{"object":{"$type":"Person","$value":999},"property":"initials"}`, codec.JSONFormat)
	require.NoError(t, err)
	assert.False(t, result.Found)

	_, err = invoker.ReadObjectProperty(ctx,
		fmt.Sprintf(`{"object":{"$type":"Person","$value":%d},"property":7}`, p.ID), codec.JSONFormat)
	assert.Equal(t, "TypeError: property must be a string", invocationError(t, err).Error())

	_, err = invoker.ReadObjectProperty(ctx,
		`{"object":{"$type":"Gizmo","$value":1},"property":"initials"}`, codec.JSONFormat)
	assert.Equal(t, "UnregisteredType", invocationError(t, err).Kind)
}

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "Error", errorKind(errors.New("plain")))
	assert.Equal(t, "Error", errorKind(fmt.Errorf("wrapped: %w", gorm.ErrInvalidData)))
	assert.Equal(t, "Panic", errorKind(&PanicError{Value: "x"}))
	assert.Equal(t, "UnregisteredType", errorKind(&codec.UnregisteredTypeError{Name: "x"}))
	assert.Equal(t, "InvocationError", errorKind(&InvocationError{Message: "x"}))
}
