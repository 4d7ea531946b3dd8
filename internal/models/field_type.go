// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

// FieldType selects the formatting and validation rules applied to a
// field value.
type FieldType string

const (
	FieldTypeText          FieldType = "text"
	FieldTypeTextarea      FieldType = "textarea"
	FieldTypeEmail         FieldType = "email"
	FieldTypeNumber        FieldType = "number"
	FieldTypeCurrency      FieldType = "currency"
	FieldTypePercentage    FieldType = "percentage"
	FieldTypeDate          FieldType = "date"
	FieldTypeDateTime      FieldType = "datetime"
	FieldTypeTime          FieldType = "time"
	FieldTypeCPF           FieldType = "cpf"
	FieldTypeCNPJ          FieldType = "cnpj"
	FieldTypePhone         FieldType = "phone"
	FieldTypeCEP           FieldType = "cep"
	FieldTypeSelect        FieldType = "select"
	FieldTypeMultiSelect   FieldType = "multiselect"
	FieldTypeCheckbox      FieldType = "checkbox"
	FieldTypeProcessNumber FieldType = "process_number"
)

// FieldTypes lists every supported type in a stable order.
var FieldTypes = []FieldType{
	FieldTypeText,
	FieldTypeTextarea,
	FieldTypeEmail,
	FieldTypeNumber,
	FieldTypeCurrency,
	FieldTypePercentage,
	FieldTypeDate,
	FieldTypeDateTime,
	FieldTypeTime,
	FieldTypeCPF,
	FieldTypeCNPJ,
	FieldTypePhone,
	FieldTypeCEP,
	FieldTypeSelect,
	FieldTypeMultiSelect,
	FieldTypeCheckbox,
	FieldTypeProcessNumber,
}

// Valid reports whether t is one of the supported field types.
func (t FieldType) Valid() bool {
	for _, ft := range FieldTypes {
		if ft == t {
			return true
		}
	}
	return false
}

// IsNumeric reports whether values of this type are parsed as numbers.
func (t FieldType) IsNumeric() bool {
	return t == FieldTypeNumber || t == FieldTypeCurrency || t == FieldTypePercentage
}
