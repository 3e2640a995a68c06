// Package storage provides the data persistence layer for the arktecher application.
package storage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/arktecher/Micro-sub000/internal/model"
)

// Validation errors.
var (
	ErrNilContext        = errors.New("context cannot be nil")
	ErrEmptyString       = errors.New("string parameter cannot be empty")
	ErrNilParameter      = errors.New("parameter cannot be nil")
	ErrInvalidSpace      = errors.New("invalid space")
	ErrInvalidArea       = errors.New("invalid saved area")
	ErrInvalidExhibition = errors.New("invalid exhibition request")
	ErrSpaceNotFound     = errors.New("space not found")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateSpace(space *model.Space) error {
	if space == nil {
		return fmt.Errorf("%w: space", ErrNilParameter)
	}
	if strings.TrimSpace(space.ID) == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidSpace)
	}
	if strings.TrimSpace(space.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidSpace)
	}
	if space.SavedArea != nil {
		return validateArea(space.SavedArea)
	}
	return nil
}

// validateArea checks the stored form only. Clamping belongs to the
// placement package; storage refuses anything that would not load back.
func validateArea(area *model.SavedArea) error {
	if area == nil {
		return fmt.Errorf("%w: area", ErrNilParameter)
	}
	for _, v := range []float64{area.X, area.Y, area.Width, area.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite value", ErrInvalidArea)
		}
	}
	if area.X < 0 || area.Y < 0 || area.Width <= 0 || area.Height <= 0 {
		return fmt.Errorf("%w: %+v", ErrInvalidArea, *area)
	}
	if area.X+area.Width > 100 || area.Y+area.Height > 100 {
		return fmt.Errorf("%w: exceeds image bounds: %+v", ErrInvalidArea, *area)
	}
	return nil
}

func validateExhibition(req *model.Exhibition) error {
	if req == nil {
		return fmt.Errorf("%w: exhibition", ErrNilParameter)
	}
	if strings.TrimSpace(req.CandidateID) == "" {
		return fmt.Errorf("%w: missing candidate ID", ErrInvalidExhibition)
	}
	if strings.TrimSpace(req.SpaceID) == "" {
		return fmt.Errorf("%w: missing space ID", ErrInvalidExhibition)
	}
	return nil
}
