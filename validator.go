// Copyright (c) 2026, Eugene Ponizovsky, <ponizovsky@gmail.com>. All rights
// reserved. Use of this source code is governed by a MIT License that can
// be found in the LICENSE file.

package yamlconf

import "fmt"

// Validator describes rules for settings parameters. Names are dot separated
// paths, as in Settings.Get.
type Validator struct {
	Names []string

	// MustExist requires the parameters to be present.
	MustExist bool

	// Default is assigned to missing parameters. If ApplyDefaultOnNone option
	// is enabled, it also replaces null values.
	Default any

	// Condition is checked for present parameters.
	Condition func(value any) bool

	// Message replaces the default error message.
	Message string
}

// ValidationError is returned when settings do not pass a validator.
type ValidationError struct {
	Name    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", errPref, e.Message)
}

func validate(data M, validators []*Validator, applyDefaultOnNone bool) error {
	for _, v := range validators {
		for _, name := range v.Names {
			err := v.validate(data, name, applyDefaultOnNone)

			if err != nil {
				return err
			}
		}
	}

	return nil
}

func (v *Validator) validate(data M, name string, applyDefaultOnNone bool) error {
	value, ok := lookup(data, name)

	if v.Default != nil && (!ok || (value == nil && applyDefaultOnNone)) {
		value, ok = copyValue(v.Default), true
		err := assign(data, name, value)

		if err != nil {
			return err
		}
	}

	if !ok {
		if v.MustExist {
			return v.error(name, fmt.Sprintf("%s is required in settings", name))
		}

		return nil
	}

	if v.Condition != nil && !v.Condition(value) {
		return v.error(name, fmt.Sprintf("%s has invalid value: %v", name, value))
	}

	return nil
}

func (v *Validator) error(name, message string) error {
	if v.Message != "" {
		message = v.Message
	}

	return &ValidationError{
		Name:    name,
		Message: message,
	}
}
