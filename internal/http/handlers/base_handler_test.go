package handlers_test

import (
	"testing"

	"github.com/gin-gonic/gin/binding"

	"ryde/internal/http/handlers"
)

// otherEngine is a StructValidator whose engine is not go-playground/validator.
type otherEngine struct{}

func (otherEngine) ValidateStruct(any) error { return nil }

func (otherEngine) Engine() any { return struct{}{} }

func TestRegisterValidators(t *testing.T) {
	if err := handlers.RegisterValidators(); err != nil {
		t.Fatalf("RegisterValidators() error = %v", err)
	}

	orig := binding.Validator
	binding.Validator = otherEngine{}
	defer func() { binding.Validator = orig }()

	if err := handlers.RegisterValidators(); err == nil {
		t.Error("expected an error when the binding engine cannot take custom tags")
	}
}
