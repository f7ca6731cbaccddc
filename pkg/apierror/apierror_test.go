package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestFromDB(t *testing.T) {
	msgs := DBMessages{
		NotFound: "Lead status not found",
		Conflict: "Lead status with this name or code already exists",
		InUse:    "Cannot delete lead status - it is being used by existing leads",
	}

	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"not found", gorm.ErrRecordNotFound, http.StatusNotFound, msgs.NotFound},
		{"gorm duplicate", gorm.ErrDuplicatedKey, http.StatusConflict, msgs.Conflict},
		{"pg unique", &pgconn.PgError{Code: "23505"}, http.StatusConflict, msgs.Conflict},
		{"wrapped pg unique", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), http.StatusConflict, msgs.Conflict},
		{"gorm foreign key", gorm.ErrForeignKeyViolated, http.StatusConflict, msgs.InUse},
		{"pg foreign key", &pgconn.PgError{Code: "23503"}, http.StatusConflict, msgs.InUse},
		{"other", errors.New("connection reset"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromDB(tt.err, msgs)
			assert.Equal(t, tt.status, got.Status)
			assert.Equal(t, tt.message, got.Message)
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestFromDBPassesThroughAPIErrors(t *testing.T) {
	orig := BadRequest("Invalid status")
	assert.Same(t, orig, FromDB(orig, DBMessages{}))
	assert.Nil(t, FromDB(nil, DBMessages{}))
}

func TestErrorMessage(t *testing.T) {
	err := Internal("Could not save").Wrap(errors.New("disk full"))
	assert.Equal(t, "Could not save: disk full", err.Error())

	v := Validation("Validation failed", FieldError{Field: "code", Message: "code is required"})
	assert.Equal(t, http.StatusBadRequest, v.Status)
	assert.Len(t, v.Errors, 1)
}
