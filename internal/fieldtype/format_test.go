package fieldtype

import (
	"testing"

	"lexdesk/internal/models"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name  string
		value any
		typ   models.FieldType
		want  string
	}{
		{"nil", nil, models.FieldTypeText, ""},
		{"text", "Maria", models.FieldTypeText, "Maria"},
		{"textarea keeps newlines", "a\nb", models.FieldTypeTextarea, "a\nb"},
		{"number float", 1234.5, models.FieldTypeNumber, "1.234,5"},
		{"number string", "1000000", models.FieldTypeNumber, "1.000.000"},
		{"number garbage passes through", "abc", models.FieldTypeNumber, "abc"},
		{"currency", 1234.5, models.FieldTypeCurrency, "R$ 1.234,50"},
		{"currency string", "50000", models.FieldTypeCurrency, "R$ 50.000,00"},
		{"currency negative", -10.0, models.FieldTypeCurrency, "-R$ 10,00"},
		{"currency garbage is zero", "abc", models.FieldTypeCurrency, "R$ 0,00"},
		{"percentage", 12.5, models.FieldTypePercentage, "12,5%"},
		{"percentage garbage", "x", models.FieldTypePercentage, "0%"},
		{"date iso", "2026-03-05", models.FieldTypeDate, "05/03/2026"},
		{"date already formatted", "05/03/2026", models.FieldTypeDate, "05/03/2026"},
		{"date garbage", "someday", models.FieldTypeDate, "someday"},
		{"datetime", "2026-03-05T14:30", models.FieldTypeDateTime, "05/03/2026 14:30"},
		{"time", "09:15", models.FieldTypeTime, "09:15"},
		{"cpf digits", "12345678909", models.FieldTypeCPF, "123.456.789-09"},
		{"cpf masked passthrough", "123.456.789-09", models.FieldTypeCPF, "123.456.789-09"},
		{"cpf wrong length passthrough", "1234", models.FieldTypeCPF, "1234"},
		{"cnpj", "11222333000181", models.FieldTypeCNPJ, "11.222.333/0001-81"},
		{"cep", "01310100", models.FieldTypeCEP, "01310-100"},
		{"process number", "00012345620268260100", models.FieldTypeProcessNumber, "0001234-56.2026.8.26.0100"},
		{"mobile phone", "11987654321", models.FieldTypePhone, "(11) 98765-4321"},
		{"landline phone", "(11) 3456-7890", models.FieldTypePhone, "(11) 3456-7890"},
		{"phone odd length", "12345", models.FieldTypePhone, "12345"},
		{"select", "civil", models.FieldTypeSelect, "civil"},
		{"multiselect strings", []string{"a", "b"}, models.FieldTypeMultiSelect, "a, b"},
		{"multiselect json array", []any{"a", "b", "c"}, models.FieldTypeMultiSelect, "a, b, c"},
		{"checkbox true", true, models.FieldTypeCheckbox, "Sim"},
		{"checkbox false", false, models.FieldTypeCheckbox, "Não"},
		{"checkbox string", "true", models.FieldTypeCheckbox, "Sim"},
		{"unknown type", "raw", models.FieldType("mystery"), "raw"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.value, tt.typ); got != tt.want {
				t.Errorf("Format(%v, %s) = %q, want %q", tt.value, tt.typ, got, tt.want)
			}
		})
	}
}

func TestEveryFieldTypeHasRule(t *testing.T) {
	for _, ft := range models.FieldTypes {
		if !Supported(ft) {
			t.Errorf("field type %q has no rule", ft)
		}
	}
	if Supported(models.FieldType("mystery")) {
		t.Error("unknown type should not be supported")
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   any
		want float64
		ok   bool
	}{
		{"1234.56", 1234.56, true},
		{"1.234,56", 1234.56, true},
		{"12,5", 12.5, true},
		{" 7 ", 7, true},
		{42, 42, true},
		{"", 0, false},
		{"abc", 0, false},
		{true, 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseNumber(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseNumber(%v) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestDigitsOnly(t *testing.T) {
	if got := DigitsOnly("(11) 98765-4321"); got != "11987654321" {
		t.Errorf("DigitsOnly = %q", got)
	}
	if got := DigitsOnly("no digits"); got != "" {
		t.Errorf("DigitsOnly = %q, want empty", got)
	}
}

func TestRawString(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"x", "x"},
		{3.0, "3"},
		{2.5, "2.5"},
		{true, "true"},
		{[]any{"a", 1.0}, "a, 1"},
	}
	for _, tt := range tests {
		if got := RawString(tt.in); got != tt.want {
			t.Errorf("RawString(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
