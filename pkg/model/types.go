package model

import internalmodel "github.com/goliatone/go-formstore/internal/model"

// FieldType re-exports the internal FieldType enumeration.
type FieldType = internalmodel.FieldType

const (
	FieldTypeString  = internalmodel.FieldTypeString
	FieldTypeInteger = internalmodel.FieldTypeInteger
	FieldTypeNumber  = internalmodel.FieldTypeNumber
	FieldTypeBoolean = internalmodel.FieldTypeBoolean
	FieldTypeArray   = internalmodel.FieldTypeArray
	FieldTypeObject  = internalmodel.FieldTypeObject
)

const (
	FormatText     = internalmodel.FormatText
	FormatTextArea = internalmodel.FormatTextArea
	FormatLines    = internalmodel.FormatLines
	FormatHTML     = internalmodel.FormatHTML
	FormatColor    = internalmodel.FormatColor
	FormatURL      = internalmodel.FormatURL
	FormatImage    = internalmodel.FormatImage
	FormatEmail    = internalmodel.FormatEmail
)

const (
	ValidationRuleMin       = internalmodel.ValidationRuleMin
	ValidationRuleMax       = internalmodel.ValidationRuleMax
	ValidationRuleMinLength = internalmodel.ValidationRuleMinLength
	ValidationRuleMaxLength = internalmodel.ValidationRuleMaxLength
	ValidationRulePattern   = internalmodel.ValidationRulePattern
)

type ValidationRule = internalmodel.ValidationRule
type Field = internalmodel.Field
type FormSchema = internalmodel.FormSchema
